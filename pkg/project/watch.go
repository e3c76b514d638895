package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jlrickert/cli-toolkit/mylog"
)

const (
	watchTick  = 100 * time.Millisecond
	watchQuiet = 120 * time.Millisecond
)

// Watcher reloads a project's assignments when its TSV store file is edited
// outside the process. Writes made by the store itself are recognized by
// content hash and ignored.
type Watcher struct {
	fw     *fsnotify.Watcher
	cancel context.CancelFunc
	done   chan struct{}
}

// Watch starts watching the store file of p. It requires the tsv store. The
// watcher outlives ctx's cancellation but keeps its values; stop it with
// Close.
func Watch(ctx context.Context, p *Project) (*Watcher, error) {
	store, ok := p.store.(*TSVStore)
	if !ok {
		return nil, fmt.Errorf("watch requires the %s store, got %s", StoreTSV, p.store.Name())
	}
	path, err := hostPath(store.rt, store.Path())
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch assignments: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch assignments directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w := &Watcher{fw: fw, cancel: cancel, done: make(chan struct{})}
	go w.loop(ctx, p, store, path)
	return w, nil
}

func (w *Watcher) loop(ctx context.Context, p *Project, store *TSVStore, path string) {
	defer close(w.done)
	lg := mylog.LoggerFromContext(ctx)

	process := func() {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				lg.Warn("unable to read assignments", "project", p.ID(), "path", path, "err", err)
			}
			return
		}
		if !store.Changed(raw) {
			return
		}
		if err := p.Reload(ctx); err != nil {
			lg.Warn("assignments reload failed", "project", p.ID(), "path", path, "err", err)
		}
	}

	var (
		pending     bool
		pendingFrom time.Time
	)
	ticker := time.NewTicker(watchTick)
	defer ticker.Stop()

	target := filepath.Base(path)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pending && time.Since(pendingFrom) >= watchQuiet {
				process()
				pending = false
			}
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pending = true
				pendingFrom = time.Now()
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			lg.Warn("assignments watcher error", "project", p.ID(), "err", err)
		}
	}
}

// Close stops the watcher and waits for it to exit.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.fw.Close()
	<-w.done
	return err
}
