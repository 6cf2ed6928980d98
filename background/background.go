// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package background - run a set of long lived goroutines that can
// be stopped together
//
// the storage driver event loop and the callback delivery loop are
// both run as background processes
package background

import (
	"sync"
)

// Process - type signature for background process
//
// Run must return promptly after shutdown is closed
type Process interface {
	Run(args interface{}, shutdown <-chan struct{})
}

// Processes - list of processes to start
type Processes []Process

// T - handle type
type T struct {
	sync.Mutex
	shutdown chan struct{}
	finished []chan struct{}
	stopped  bool
}

// Start - start up a set of background processes
func Start(processes Processes, args interface{}) *T {

	register := &T{
		shutdown: make(chan struct{}),
		finished: make([]chan struct{}, len(processes)),
	}

	// start each background
	for i, p := range processes {
		finished := make(chan struct{})
		register.finished[i] = finished
		go func(p Process, finished chan<- struct{}) {
			defer close(finished)
			p.Run(args, register.shutdown)
		}(p, finished)
	}
	return register
}

// Stop - stop a set of background processes and wait for all of
// them to finish, safe to call more than once
func (t *T) Stop() {
	t.Lock()
	if t.stopped {
		t.Unlock()
		return
	}
	t.stopped = true
	close(t.shutdown)
	t.Unlock()

	// wait for finished
	for _, finished := range t.finished {
		<-finished
	}
}
