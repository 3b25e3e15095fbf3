//
// Store Operations is pleased to support the open source community by making sop-agent-go available.
//
// Copyright (C) 2025 Store Operations.
// All rights reserved.
//
// If you have downloaded a copy of the sop-agent-go source code from Store Operations,
// please note that sop-agent-go source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

package tenant

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/storeops/sop-agent-go/log"
)

// Watcher triggers a reload when the tenant configuration source
// changes on disk. The parent directory is watched rather than the
// file itself because editors and config mounts replace files instead
// of writing them in place.
type Watcher struct {
	watcher *fsnotify.Watcher
	dir     string
	reload  func() error
}

// NewWatcher creates a watcher for the directory containing path.
// reload runs on every relevant change; its error is logged, not
// propagated, so a broken intermediate state does not stop watching.
func NewWatcher(path string, reload func() error) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher: w,
		dir:     filepath.Dir(path),
		reload:  reload,
	}, nil
}

// Start begins watching until ctx is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
					continue
				}
				if filepath.Ext(event.Name) != ".json" {
					continue
				}
				log.Infof("tenant config change detected: %s", event.Name)
				if err := w.reload(); err != nil {
					log.Errorf("tenant config reload failed: %v", err)
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Errorf("tenant config watcher error: %v", err)
			}
		}
	}()
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}
