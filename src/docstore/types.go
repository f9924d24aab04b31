package docstore

import (
	"context"
	"errors"
)

// Document is a single identified record read from a collection.
type Document struct {
	ID   string
	Data map[string]any
}

// Client is a narrow interface over the document database used by the
// snapshot pipelines. Keep it small so it stays mockable.
type Client interface {
	// Stream calls fn for every document in the collection, in the order the
	// database returns them. An error from fn stops the iteration and is
	// returned as-is.
	Stream(ctx context.Context, collection string, fn func(Document) error) error
	// Delete removes a single document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
	// Set creates or overwrites a single document with data.
	Set(ctx context.Context, collection, id string, data map[string]any) error
	Close() error
}

// Opener establishes a Client. Pipelines call it once per run so a missing
// credential only affects the data phase.
type Opener func(ctx context.Context) (Client, error)

// ErrCredentialsNotFound is returned when the service credential file is absent.
var ErrCredentialsNotFound = errors.New("credentials file not found")
