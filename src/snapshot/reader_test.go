package snapshot_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
	"time"

	"docsnap/src/docstore"
	"docsnap/src/snapshot"
)

func TestRoundTrip_ReproducesDocumentsExceptTimestamps(t *testing.T) {
	created := time.Date(2024, 11, 5, 9, 15, 0, 0, time.UTC)
	src := docstore.NewFake()
	src.Put("users", "u1", map[string]any{
		"name":      "ada",
		"age":       int64(36),
		"score":     9.75,
		"price":     10.0,
		"ratio":     1e21,
		"active":    true,
		"roles":     []any{"admin", "dev"},
		"profile":   map[string]any{"city": "London", "zip": nil},
		"createdAt": created,
	})
	src.Put("templates", "t1", map[string]any{"title": "weekly", "steps": []any{int64(1), int64(2)}})

	dir := filepath.Join(t.TempDir(), snapshot.DirName(stamp))
	if _, err := newWriter(src.Opener(), t.TempDir()).Write(context.Background(), dir, stamp); err != nil {
		t.Fatalf("backup: %v", err)
	}

	dst := docstore.NewFake()
	r := &snapshot.Reader{Open: dst.Opener(), TargetDir: t.TempDir()}
	rep, err := r.Restore(context.Background(), dir)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if rep.DataErr != nil {
		t.Fatalf("data error: %v", rep.DataErr)
	}

	got := dst.Collections["users"]["u1"]
	// timestamps are not JSON-native and come back as their string form
	if got["createdAt"] != "2024-11-05 09:15:00+00:00" {
		t.Fatalf("createdAt: got %#v", got["createdAt"])
	}
	if _, isTime := got["createdAt"].(time.Time); isTime {
		t.Fatalf("timestamp unexpectedly round-tripped as time.Time")
	}
	delete(got, "createdAt")
	want := src.Collections["users"]["u1"]
	want = copyWithout(want, "createdAt")
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("users/u1:\n got %#v\nwant %#v", got, want)
	}
	if !reflect.DeepEqual(dst.Collections["templates"], src.Collections["templates"]) {
		t.Fatalf("templates differ: %#v", dst.Collections["templates"])
	}
}

func TestRestore_IsIdempotent(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "users.json"), `{"u1": {"n": 1}, "u2": {"n": 2}}`)
	mustWrite(t, filepath.Join(dir, snapshot.ManifestFile), `{"timestamp": "x", "created_at": "y", "backup_type": "full", "collections": ["users"]}`)

	db := docstore.NewFake()
	db.Put("users", "stale", map[string]any{"n": int64(99)})
	r := &snapshot.Reader{Open: db.Opener(), TargetDir: t.TempDir()}

	if _, err := r.Restore(context.Background(), dir); err != nil {
		t.Fatalf("first restore: %v", err)
	}
	first := snapshotOf(db.Collections["users"])
	rep, err := r.Restore(context.Background(), dir)
	if err != nil {
		t.Fatalf("second restore: %v", err)
	}
	if !reflect.DeepEqual(first, snapshotOf(db.Collections["users"])) {
		t.Fatalf("restore is not idempotent")
	}
	if _, ok := db.Collections["users"]["stale"]; ok {
		t.Fatalf("existing documents must be wiped")
	}
	if len(rep.Collections) != 1 || rep.Collections[0].Deleted != 2 || rep.Collections[0].Documents != 2 {
		t.Fatalf("unexpected result: %+v", rep.Collections)
	}
}

func TestRestore_ManifestFallbackInfersCollections(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "users.json"), `{"u1": {"name": "ada"}}`)
	mustWrite(t, filepath.Join(dir, "templates.json"), `{"t1": {"title": "weekly"}}`)

	names, fromManifest, err := snapshot.ResolveCollections(dir)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	sort.Strings(names)
	if fromManifest || !reflect.DeepEqual(names, []string{"templates", "users"}) {
		t.Fatalf("got %v fromManifest=%v", names, fromManifest)
	}

	db := docstore.NewFake()
	r := &snapshot.Reader{Open: db.Opener(), TargetDir: t.TempDir()}
	if _, err := r.Restore(context.Background(), dir); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if db.Collections["users"]["u1"]["name"] != "ada" || db.Collections["templates"]["t1"]["title"] != "weekly" {
		t.Fatalf("collections not restored: %#v", db.Collections)
	}
}

func TestRestore_MissingCollectionFileIsSkipped(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, snapshot.ManifestFile), `{"collections": ["users", "categories", "templates"]}`)
	mustWrite(t, filepath.Join(dir, "users.json"), `{"u1": {}}`)
	mustWrite(t, filepath.Join(dir, "templates.json"), `{"t1": {}}`)

	db := docstore.NewFake()
	db.Put("categories", "keep", map[string]any{})
	r := &snapshot.Reader{Open: db.Opener(), TargetDir: t.TempDir()}
	rep, err := r.Restore(context.Background(), dir)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if rep.DataErr != nil {
		t.Fatalf("missing file must not abort: %v", rep.DataErr)
	}
	if !reflect.DeepEqual(rep.Skipped, []string{"categories"}) {
		t.Fatalf("skipped: %v", rep.Skipped)
	}
	if len(rep.Collections) != 2 || rep.Collections[1].Name != "templates" {
		t.Fatalf("remaining collections not processed: %+v", rep.Collections)
	}
	if _, ok := db.Collections["categories"]["keep"]; !ok {
		t.Fatalf("skipped collection must be left untouched")
	}
}

func TestRestore_DataFailureStillRestoresCode(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "users.json"), `{"u1": {}}`)
	mustWrite(t, filepath.Join(dir, "code", "cmd", "main.go"), "package main\n")
	open := func(context.Context) (docstore.Client, error) {
		return nil, docstore.ErrCredentialsNotFound
	}

	work := t.TempDir()
	mustWrite(t, filepath.Join(work, "cmd", "main.go"), "stale")
	r := &snapshot.Reader{Open: open, TargetDir: work}
	rep, err := r.Restore(context.Background(), dir)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !errors.Is(rep.DataErr, docstore.ErrCredentialsNotFound) {
		t.Fatalf("DataErr: %v", rep.DataErr)
	}
	if got := mustRead(t, filepath.Join(work, "cmd", "main.go")); got != "package main\n" {
		t.Fatalf("code not overwritten: %q", got)
	}
	if rep.Code.Files != 1 {
		t.Fatalf("code stats: %+v", rep.Code)
	}
}

func TestRestore_MissingDirectory(t *testing.T) {
	r := &snapshot.Reader{Open: docstore.NewFake().Opener()}
	_, err := r.Restore(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, snapshot.ErrNotSnapshot) {
		t.Fatalf("got %v, want ErrNotSnapshot", err)
	}
}

func TestPlanRestore(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, snapshot.ManifestFile), `{"collections": ["users", "categories"]}`)
	mustWrite(t, filepath.Join(dir, "users.json"), `{}`)
	mustWrite(t, filepath.Join(dir, "code", "a", "b.txt"), "x")
	mustWrite(t, filepath.Join(dir, "code", "c.txt"), "y")

	p, err := snapshot.PlanRestore(dir)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !p.FromManifest || p.CodeFiles != 2 || !reflect.DeepEqual(p.Missing, []string{"categories"}) {
		t.Fatalf("unexpected plan: %+v", p)
	}
}

func copyWithout(m map[string]any, key string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k != key {
			out[k] = v
		}
	}
	return out
}

func snapshotOf(docs map[string]map[string]any) map[string]map[string]any {
	out := make(map[string]map[string]any, len(docs))
	for id, body := range docs {
		out[id] = body
	}
	return out
}

func TestRestore_InvalidCollectionNameReportedSeparately(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, snapshot.ManifestFile), `{"collections": ["users", "../escape", "orders"]}`)
	mustWrite(t, filepath.Join(dir, "users.json"), `{"u1": {}}`)

	db := docstore.NewFake()
	r := &snapshot.Reader{Open: db.Opener(), TargetDir: t.TempDir()}
	rep, err := r.Restore(context.Background(), dir)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !reflect.DeepEqual(rep.Invalid, []string{"../escape"}) {
		t.Fatalf("invalid: %v", rep.Invalid)
	}
	if !reflect.DeepEqual(rep.Skipped, []string{"orders"}) {
		t.Fatalf("skipped: %v", rep.Skipped)
	}

	plan, err := snapshot.PlanRestore(dir)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !reflect.DeepEqual(plan.Invalid, []string{"../escape"}) || !reflect.DeepEqual(plan.Missing, []string{"orders"}) {
		t.Fatalf("plan: %+v", plan)
	}
}
