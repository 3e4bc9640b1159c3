// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package criteria

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads a profile file when it changes on disk. Invalid updates
// are logged and skipped; the previous profile stays active.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	onLoad  func(*EvaluationCriteria)
	done    chan struct{}
}

// Watch loads path immediately, then invokes onLoad with each successfully
// reloaded profile until Close is called.
func Watch(path string, logger *zap.Logger, onLoad func(*EvaluationCriteria)) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	initial, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	onLoad(initial)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors replace files on save, which drops a
	// watch on the file itself.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	w := &Watcher{
		path:    path,
		watcher: fsw,
		logger:  logger,
		onLoad:  onLoad,
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			profile, err := LoadFile(w.path)
			if err != nil {
				w.logger.Warn("criteria profile reload failed, keeping previous",
					zap.String("path", w.path),
					zap.Error(err))
				continue
			}
			w.logger.Info("criteria profile reloaded",
				zap.String("path", w.path),
				zap.Int("criteria", len(profile.Criteria)))
			w.onLoad(profile)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("criteria watcher error", zap.Error(err))
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
