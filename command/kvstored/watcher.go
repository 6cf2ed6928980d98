// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/bitmark-inc/kvstored/background"
	"github.com/bitmark-inc/logger"
)

// configWatcher - reapplies the reloadable parts of the
// configuration file when it changes
//
// only the HTTPS allow lists can change while running, the flash
// geometry and the listeners are fixed at start
type configWatcher struct {
	log      *logger.L
	watcher  *fsnotify.Watcher
	fileName string
	apply    func(*Configuration) error
}

func newConfigWatcher(fileName string, apply func(*Configuration) error) (*configWatcher, error) {
	fileName, err := filepath.Abs(filepath.Clean(fileName))
	if nil != err {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if nil != err {
		return nil, err
	}

	// watch the directory so editors that replace the file are seen
	if err := watcher.Add(filepath.Dir(fileName)); nil != err {
		watcher.Close()
		return nil, err
	}

	return &configWatcher{
		log:      logger.New("config-watcher"),
		watcher:  watcher,
		fileName: fileName,
		apply:    apply,
	}, nil
}

// Run - background process loop
func (w *configWatcher) Run(args interface{}, shutdown <-chan struct{}) {
	defer w.watcher.Close()

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case event, ok := <-w.watcher.Events:
			if !ok {
				break loop
			}
			if filepath.Clean(event.Name) != w.fileName {
				continue loop
			}
			if !isChange(event) {
				continue loop
			}
			w.log.Infof("file event: %v", event)
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				break loop
			}
			w.log.Errorf("watcher error: %s", err)
		}
	}
	w.log.Info("stopped")
}

func (w *configWatcher) reload() {
	options, err := getConfiguration(w.fileName)
	if nil != err {
		w.log.Errorf("failed to read configuration from: %q  error: %s", w.fileName, err)
		return
	}
	if err := w.apply(options); nil != err {
		w.log.Errorf("failed to apply configuration error: %s", err)
	}
}

func isChange(event fsnotify.Event) bool {
	return event.Op&fsnotify.Write == fsnotify.Write ||
		event.Op&fsnotify.Create == fsnotify.Create
}

var _ background.Process = &configWatcher{}
