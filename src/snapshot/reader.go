package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"docsnap/src/docstore"
)

// RestoreReport describes a finished restore. DataErr is set when the data
// phase failed; code files were still restored.
type RestoreReport struct {
	Dir         string
	Collections []CollectionResult
	// Skipped lists collections named by the snapshot that had no file.
	Skipped []string
	// Invalid lists collection names that cannot map to a file in the snapshot.
	Invalid []string
	DataErr error
	Code    CodeStats
}

// Plan is what a restore of a snapshot would touch.
type Plan struct {
	Collections  []string
	FromManifest bool
	Missing      []string
	Invalid      []string
	CodeFiles    int
}

// Reader replays a snapshot directory into the database and working tree.
type Reader struct {
	Open docstore.Opener
	// TargetDir receives the files under code/.
	TargetDir string
	Logger    hclog.Logger
}

// ResolveCollections returns the collections of the snapshot in dir: the
// manifest's list when present, otherwise the stems of the JSON files in dir.
func ResolveCollections(dir string) (names []string, fromManifest bool, err error) {
	mf, err := ReadManifest(dir)
	if err == nil {
		return mf.Collections, true, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, false, err
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == ManifestFile || filepath.Ext(name) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".json"))
	}
	return names, false, nil
}

// CheckDir returns ErrNotSnapshot unless dir is an existing directory.
func CheckDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s not found", ErrNotSnapshot, dir)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrNotSnapshot, dir)
	}
	return nil
}

// PlanRestore inspects dir without touching the database or working tree.
func PlanRestore(dir string) (*Plan, error) {
	if err := CheckDir(dir); err != nil {
		return nil, err
	}
	names, fromManifest, err := ResolveCollections(dir)
	if err != nil {
		return nil, err
	}
	p := &Plan{Collections: names, FromManifest: fromManifest}
	for _, name := range names {
		if !ValidCollectionName(name) {
			p.Invalid = append(p.Invalid, name)
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, name+".json")); err != nil {
			p.Missing = append(p.Missing, name)
		}
	}
	files, err := codeFiles(filepath.Join(dir, CodeDir))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	p.CodeFiles = len(files)
	return p, nil
}

// Restore wipes and rewrites every collection of the snapshot, then copies
// code/ into TargetDir. A failing data phase is recorded in the report and
// does not stop the code phase.
func (r *Reader) Restore(ctx context.Context, dir string) (*RestoreReport, error) {
	log := r.logger()
	if err := CheckDir(dir); err != nil {
		return nil, err
	}
	rep := &RestoreReport{Dir: dir}

	log.Info("restoring database")
	if err := r.restoreData(ctx, dir, rep); err != nil {
		rep.DataErr = err
		log.Error("error restoring database", "error", err)
	} else {
		log.Info("database restore completed", "collections", len(rep.Collections))
	}

	log.Info("restoring code files")
	if err := r.restoreCode(dir, rep); err != nil {
		return rep, fmt.Errorf("restore code: %w", err)
	}
	return rep, nil
}

func (r *Reader) restoreData(ctx context.Context, dir string, rep *RestoreReport) error {
	log := r.logger()
	if r.Open == nil {
		return errors.New("no database configured")
	}
	client, err := r.Open(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	names, _, err := ResolveCollections(dir)
	if err != nil {
		return err
	}
	for _, name := range names {
		if !ValidCollectionName(name) {
			log.Warn("invalid collection name, skipping", "collection", name)
			rep.Invalid = append(rep.Invalid, name)
			continue
		}
		path := filepath.Join(dir, name+".json")
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			log.Warn("collection file not found, skipping", "path", path)
			rep.Skipped = append(rep.Skipped, name)
			continue
		}
		log.Info("restoring collection", "collection", name)
		res, err := restoreCollection(ctx, client, name, path)
		if err != nil {
			return fmt.Errorf("collection %s: %w", name, err)
		}
		rep.Collections = append(rep.Collections, res)
	}
	return nil
}

// restoreCollection deletes every document of the collection, then writes
// the stored ones. The two steps are not atomic.
func restoreCollection(ctx context.Context, client docstore.Client, name, path string) (CollectionResult, error) {
	res := CollectionResult{Name: name}
	docs, err := ReadCollection(path)
	if err != nil {
		return res, err
	}

	var existing []string
	err = client.Stream(ctx, name, func(d docstore.Document) error {
		existing = append(existing, d.ID)
		return nil
	})
	if err != nil {
		return res, err
	}
	for _, id := range existing {
		if err := client.Delete(ctx, name, id); err != nil {
			return res, err
		}
		res.Deleted++
	}

	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		body, ok := docs[id].(map[string]any)
		if !ok {
			return res, fmt.Errorf("document %s is not an object", id)
		}
		if err := client.Set(ctx, name, id, body); err != nil {
			return res, err
		}
		res.Documents++
	}
	return res, nil
}

func (r *Reader) restoreCode(dir string, rep *RestoreReport) error {
	log := r.logger()
	codeDir := filepath.Join(dir, CodeDir)
	files, err := codeFiles(codeDir)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info("no code backup found")
		return nil
	}
	if err != nil {
		return err
	}
	for _, rel := range files {
		src := filepath.Join(codeDir, filepath.FromSlash(rel))
		info, err := os.Stat(src)
		if err != nil {
			return err
		}
		n, err := copyFile(src, filepath.Join(r.TargetDir, filepath.FromSlash(rel)), info)
		if err != nil {
			return err
		}
		rep.Code.Files++
		rep.Code.Bytes += n
	}
	log.Info("code restore completed", "files", rep.Code.Files)
	return nil
}

func (r *Reader) logger() hclog.Logger {
	if r.Logger == nil {
		return hclog.NewNullLogger()
	}
	return r.Logger
}
