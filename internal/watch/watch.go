// Package watch observes a vault directory and reports settled batches of
// file changes.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/vaultsite/internal/checksum"
)

// Change kinds.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

const defaultDebounce = 200 * time.Millisecond

// Change is one file event, with Path relative to the watched root.
type Change struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// Func receives every batch of changes once events have been quiet for the
// debounce interval.
type Func func(ctx context.Context, changes []Change)

// Options configures Watch.
type Options struct {
	Root string
	// Ignore lists directories whose contents never produce changes,
	// typically the build output when it lives inside the vault.
	Ignore   []string
	Debounce time.Duration
	Logger   *slog.Logger
}

type watcher struct {
	root   string
	ignore []string
	log    *slog.Logger
	fsw    *fsnotify.Watcher
	// sums holds the last seen checksum of every regular file so that
	// writes which leave the content unchanged are dropped.
	sums map[string]string
}

// Watch starts an fsnotify watcher on opts.Root and calls fn with batches of
// changes until ctx is cancelled.
//
// New directories created at runtime are added to the watch list and the
// files already inside them are reported as created.
func Watch(ctx context.Context, opts Options, fn Func) error {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	w := &watcher{root: root, log: opts.Logger, fsw: fsw, sums: make(map[string]string)}
	for _, dir := range opts.Ignore {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		w.ignore = append(w.ignore, abs)
	}

	if _, err := w.addDir(root); err != nil {
		return err
	}
	w.log.Info("watcher: started", slog.String("root", root), slog.Duration("debounce", opts.Debounce))

	var (
		pending  []Change
		debounce *time.Timer
		fire     <-chan time.Time
	)
	schedule := func(changes ...Change) {
		if len(changes) == 0 {
			return
		}
		pending = append(pending, changes...)
		if debounce == nil {
			debounce = time.NewTimer(opts.Debounce)
			fire = debounce.C
		} else {
			debounce.Reset(opts.Debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			w.log.Info("watcher: stopped")
			return nil

		case <-fire:
			batch := pending
			pending = nil
			w.log.Debug("watcher: changes settled", slog.Int("changes", len(batch)))
			fn(ctx, batch)

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			schedule(w.handle(ev)...)

		case watchErr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w *watcher) handle(ev fsnotify.Event) []Change {
	abs := ev.Name
	if w.ignored(abs) {
		return nil
	}
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return nil
	}
	rel = filepath.ToSlash(rel)

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		info, err := os.Stat(abs)
		if err != nil {
			return nil
		}
		if info.IsDir() {
			changes, err := w.addDir(abs)
			if err != nil {
				w.log.Warn("watcher: add new dir failed", slog.String("path", abs), slog.String("error", err.Error()))
			} else {
				w.log.Debug("watcher: watching new dir", slog.String("path", rel))
			}
			return changes
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		sum, err := checksum.File(abs)
		if err != nil {
			w.log.Warn("watcher: checksum failed", slog.String("path", rel), slog.String("error", err.Error()))
			return nil
		}
		prev, known := w.sums[rel]
		if known && prev == sum {
			return nil
		}
		w.sums[rel] = sum
		if known {
			return []Change{{Kind: Updated, Path: rel}}
		}
		return []Change{{Kind: Created, Path: rel}}

	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// fsnotify reports a rename on the old path only; the new path
		// arrives as a separate Create.
		var out []Change
		prefix := rel + "/"
		for p := range w.sums {
			if p == rel || strings.HasPrefix(p, prefix) {
				delete(w.sums, p)
				out = append(out, Change{Kind: Deleted, Path: p})
			}
		}
		if len(out) == 0 {
			// A directory nobody saw files in, or a file we never tracked.
			out = append(out, Change{Kind: Deleted, Path: rel})
		}
		return out
	}
	return nil
}

// addDir watches dir and every subdirectory, recording the files found as
// created.
func (w *watcher) addDir(dir string) ([]Change, error) {
	var changes []Change
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if w.ignored(p) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return w.fsw.Add(p)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(w.root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		sum, err := checksum.File(p)
		if err != nil {
			return nil
		}
		if _, known := w.sums[rel]; !known {
			changes = append(changes, Change{Kind: Created, Path: rel})
		}
		w.sums[rel] = sum
		return nil
	})
	// The initial walk of the root reports nothing: those files are the
	// baseline, not changes.
	if dir == w.root {
		return nil, err
	}
	return changes, err
}

func (w *watcher) ignored(p string) bool {
	for _, dir := range w.ignore {
		if p == dir || strings.HasPrefix(p, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
