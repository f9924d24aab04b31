package docstore

import (
	"context"
	"sort"
)

// FakeClient is an in-memory implementation for unit tests.
type FakeClient struct {
	Collections map[string]map[string]map[string]any

	// StreamErr, when set, is returned by Stream for the named collection.
	StreamErr map[string]error
	// Closed reports whether Close was called.
	Closed bool
}

func NewFake() *FakeClient {
	return &FakeClient{
		Collections: map[string]map[string]map[string]any{},
		StreamErr:   map[string]error{},
	}
}

// Opener returns an Opener that always yields f.
func (f *FakeClient) Opener() Opener {
	return func(context.Context) (Client, error) { return f, nil }
}

// Put seeds a document without going through Set.
func (f *FakeClient) Put(collection, id string, data map[string]any) {
	docs, ok := f.Collections[collection]
	if !ok {
		docs = map[string]map[string]any{}
		f.Collections[collection] = docs
	}
	docs[id] = data
}

// Stream yields documents ordered by id, mimicking Firestore's default order.
func (f *FakeClient) Stream(ctx context.Context, collection string, fn func(Document) error) error {
	if err := f.StreamErr[collection]; err != nil {
		return err
	}
	docs := f.Collections[collection]
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(Document{ID: id, Data: docs[id]}); err != nil {
			return err
		}
	}
	return nil
}

func (f *FakeClient) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	delete(f.Collections[collection], id)
	return nil
}

func (f *FakeClient) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.Put(collection, id, data)
	return nil
}

func (f *FakeClient) Close() error {
	f.Closed = true
	return nil
}
