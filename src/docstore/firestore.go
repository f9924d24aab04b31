package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/genproto/googleapis/type/latlng"
)

// DefaultCredentialsFile is the conventional service-account key name looked
// up in the working directory.
const DefaultCredentialsFile = "firebase-private-key.json"

// emulatorHostEnv is honoured by the Firestore SDK; when set no credential
// file is needed.
const emulatorHostEnv = "FIRESTORE_EMULATOR_HOST"

// Firestore wraps the official Firestore Go client.
type Firestore struct {
	c *firestore.Client
}

// Connect authenticates with the service credential file and opens a client.
// An empty projectID lets the SDK detect it from the credential.
func Connect(ctx context.Context, credentialsFile, projectID string) (*Firestore, error) {
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	var opts []option.ClientOption
	if os.Getenv(emulatorHostEnv) == "" {
		if _, err := os.Stat(credentialsFile); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, credentialsFile)
			}
			return nil, fmt.Errorf("stat credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	c, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: connect: %w", err)
	}
	return &Firestore{c: c}, nil
}

// FirestoreOpener returns an Opener that connects lazily with the given settings.
func FirestoreOpener(credentialsFile, projectID string) Opener {
	return func(ctx context.Context) (Client, error) {
		return Connect(ctx, credentialsFile, projectID)
	}
}

func (f *Firestore) Stream(ctx context.Context, collection string, fn func(Document) error) error {
	it := f.c.Collection(collection).Documents(ctx)
	defer it.Stop()
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("firestore: stream %s: %w", collection, err)
		}
		data, _ := lowerValue(snap.Data()).(map[string]any)
		if err := fn(Document{ID: snap.Ref.ID, Data: data}); err != nil {
			return err
		}
	}
}

func (f *Firestore) Delete(ctx context.Context, collection, id string) error {
	if _, err := f.c.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore: delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *Firestore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if _, err := f.c.Collection(collection).Doc(id).Set(ctx, data); err != nil {
		return fmt.Errorf("firestore: set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *Firestore) Close() error {
	return f.c.Close()
}

// lowerValue replaces Firestore-specific value types with plain strings.
// Timestamps and byte blobs are left for the snapshot encoder.
func lowerValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = lowerValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = lowerValue(val)
		}
		return out
	case *firestore.DocumentRef:
		if t == nil {
			return nil
		}
		return t.Path
	case *latlng.LatLng:
		if t == nil {
			return nil
		}
		return fmt.Sprintf("%v,%v", t.GetLatitude(), t.GetLongitude())
	default:
		return v
	}
}
