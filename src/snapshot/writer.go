package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"docsnap/src/docstore"
	"docsnap/src/gitfiles"
)

// CollectionResult summarises one collection handled by a pipeline.
type CollectionResult struct {
	Name      string
	Documents int
	Deleted   int
}

// BackupReport describes a finished backup. DataErr is set when the data
// phase failed; the snapshot then holds code only.
type BackupReport struct {
	Dir         string
	Timestamp   string
	Collections []CollectionResult
	DataErr     error
	Code        CodeStats
}

// Writer produces a snapshot directory from the database and the tracked files.
type Writer struct {
	Open  docstore.Opener
	Files gitfiles.Lister
	// Collections is the fixed backup scope, written in order.
	Collections []string
	// SourceDir is the working tree tracked paths are relative to.
	SourceDir string
	Logger    hclog.Logger
	Now       func() time.Time
}

// Write creates dir (if absent) and fills it: collections, code tree,
// manifest, checksums. A failing data phase is recorded in the report and
// does not stop the code phase.
func (w *Writer) Write(ctx context.Context, dir string, stamp time.Time) (*BackupReport, error) {
	log := w.logger()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	rep := &BackupReport{Dir: dir, Timestamp: FormatTimestamp(stamp)}

	log.Info("backing up database")
	if err := w.backupData(ctx, dir, rep); err != nil {
		rep.DataErr = err
		log.Error("error backing up database", "error", err)
	} else {
		log.Info("database backup completed", "collections", len(rep.Collections))
	}

	log.Info("backing up code files")
	if err := w.backupCode(ctx, dir, rep); err != nil {
		return rep, fmt.Errorf("back up code: %w", err)
	}

	mf := NewManifest(stamp, w.now(), w.Collections)
	if err := WriteManifest(dir, mf); err != nil {
		return rep, fmt.Errorf("write manifest: %w", err)
	}
	if err := WriteChecksums(dir); err != nil {
		return rep, fmt.Errorf("write checksums: %w", err)
	}
	return rep, nil
}

func (w *Writer) backupData(ctx context.Context, dir string, rep *BackupReport) error {
	if w.Open == nil {
		return errors.New("no database configured")
	}
	client, err := w.Open(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	for _, name := range w.Collections {
		if !ValidCollectionName(name) {
			return fmt.Errorf("invalid collection name %q", name)
		}
		w.logger().Info("backing up collection", "collection", name)
		docs := map[string]any{}
		err := client.Stream(ctx, name, func(d docstore.Document) error {
			docs[d.ID] = Coerce(d.Data)
			return nil
		})
		if err != nil {
			return fmt.Errorf("collection %s: %w", name, err)
		}
		if err := WriteCollection(filepath.Join(dir, name+".json"), docs); err != nil {
			return fmt.Errorf("collection %s: %w", name, err)
		}
		rep.Collections = append(rep.Collections, CollectionResult{Name: name, Documents: len(docs)})
	}
	return nil
}

func (w *Writer) backupCode(ctx context.Context, dir string, rep *BackupReport) error {
	log := w.logger()
	var paths []string
	if w.Files != nil {
		paths = w.Files.TrackedFiles(ctx)
	}
	if len(paths) == 0 {
		log.Info("no tracked files found")
		return nil
	}
	codeDir := filepath.Join(dir, CodeDir)
	if err := os.MkdirAll(codeDir, 0o755); err != nil {
		return err
	}
	for _, p := range paths {
		rel, ok := relativeWithin(p)
		if !ok {
			log.Warn("skipping path outside the working tree", "path", p)
			rep.Code.Skipped++
			continue
		}
		src := filepath.Join(w.SourceDir, rel)
		info, err := os.Stat(src)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				rep.Code.Skipped++
				continue
			}
			return err
		}
		if !info.Mode().IsRegular() {
			log.Debug("skipping non-regular tracked path", "path", p)
			rep.Code.Skipped++
			continue
		}
		n, err := copyFile(src, filepath.Join(codeDir, rel), info)
		if err != nil {
			return err
		}
		rep.Code.Files++
		rep.Code.Bytes += n
	}
	log.Info("code backup completed", "files", rep.Code.Files, "skipped", rep.Code.Skipped)
	return nil
}

func (w *Writer) logger() hclog.Logger {
	if w.Logger == nil {
		return hclog.NewNullLogger()
	}
	return w.Logger
}

func (w *Writer) now() time.Time {
	if w.Now == nil {
		return time.Now()
	}
	return w.Now()
}
