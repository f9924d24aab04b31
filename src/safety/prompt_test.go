package safety_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"docsnap/src/safety"
)

func TestConfirm_AutoYes(t *testing.T) {
	var out bytes.Buffer
	p := safety.NewPrompter(strings.NewReader(""), &out, safety.Options{Yes: true})
	ok, err := p.Confirm(context.Background(), "proceed?")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatalf("expected auto-yes to confirm")
	}
	if out.Len() != 0 {
		t.Fatalf("auto-yes should not prompt; got %q", out.String())
	}
}

func TestConfirm_UserInput(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"  y  \n", true},
		{"y", true},
		{"yes\n", false},
		{"No\n", false},
		{"\n", false},
		{"", false},
	}
	for _, c := range cases {
		var out bytes.Buffer
		p := safety.NewPrompter(strings.NewReader(c.in), &out, safety.Options{})
		got, err := p.Confirm(context.Background(), "This will overwrite existing data. Continue?")
		if err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Fatalf("input %q: got %v want %v", c.in, got, c.want)
		}
		if !strings.Contains(out.String(), "Continue? (y/N):") {
			t.Fatalf("prompt missing question; got %q", out.String())
		}
	}
}

func TestSelect(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr error
	}{
		{"1\n", 0, nil},
		{"3\n", 2, nil},
		{"2", 1, nil},
		{"0\n", 0, safety.ErrInvalidSelection},
		{"4\n", 0, safety.ErrInvalidSelection},
		{"two\n", 0, safety.ErrInvalidSelection},
		{"", 0, safety.ErrCancelled},
	}
	for _, c := range cases {
		p := safety.NewPrompter(strings.NewReader(c.in), io.Discard, safety.Options{})
		got, err := p.Select(context.Background(), "Select backup to restore (number):", 3)
		if c.wantErr != nil {
			if !errors.Is(err, c.wantErr) {
				t.Fatalf("input %q: got err %v want %v", c.in, err, c.wantErr)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Fatalf("input %q: got %d, %v want %d", c.in, got, err, c.want)
		}
	}
}

func TestPrompter_SharesBufferedInput(t *testing.T) {
	p := safety.NewPrompter(strings.NewReader("2\ny\n"), io.Discard, safety.Options{})
	idx, err := p.Select(context.Background(), "pick:", 2)
	if err != nil || idx != 1 {
		t.Fatalf("select: %d %v", idx, err)
	}
	ok, err := p.Confirm(context.Background(), "sure?")
	if err != nil || !ok {
		t.Fatalf("confirm after select: %v %v", ok, err)
	}
}

func TestSelect_ContextCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := safety.NewPrompter(pr, io.Discard, safety.Options{})
	if _, err := p.Select(ctx, "pick:", 2); !errors.Is(err, safety.ErrCancelled) {
		t.Fatalf("got %v, want ErrCancelled", err)
	}
}
