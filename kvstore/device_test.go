// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kvstore

import (
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/bitmark-inc/kvstored/fault"
	"github.com/bitmark-inc/kvstored/flash"
)

const (
	testPageSize  = 128
	testPageCount = 8
	testTimeout   = 5 * time.Second
)

// a device whose operations only finish when the test steps them
type steppedDevice struct {
	sync.Mutex

	chip     *flash.Chip
	client   flash.Client
	op       func()
	issued   chan struct{}
	failNext error
	count    int
}

func newSteppedDevice(t *testing.T) *steppedDevice {
	fs := afero.NewMemMapFs()
	backing, _, err := flash.OpenFileBacking(fs, "chip.img", testPageSize*testPageCount)
	if nil != err {
		t.Fatalf("backing error: %s", err)
	}
	chip, err := flash.NewChip(testPageSize, testPageCount, backing)
	if nil != err {
		t.Fatalf("chip error: %s", err)
	}
	return &steppedDevice{
		chip:   chip,
		issued: make(chan struct{}, 1),
	}
}

func (s *steppedDevice) PageSize() int {
	return s.chip.PageSize()
}

func (s *steppedDevice) PageCount() int {
	return s.chip.PageCount()
}

func (s *steppedDevice) SetClient(client flash.Client) {
	s.Lock()
	s.client = client
	s.Unlock()
}

func (s *steppedDevice) queue(op func(failed error)) error {
	s.Lock()
	defer s.Unlock()
	if nil != s.op {
		return fault.DeviceBusy
	}
	failed := s.failNext
	s.failNext = nil
	s.count += 1
	s.op = func() { op(failed) }
	s.issued <- struct{}{}
	return nil
}

func (s *steppedDevice) ReadPage(index int, page *flash.Page) error {
	return s.queue(func(failed error) {
		err := failed
		if nil == err {
			err = s.chip.Read(index, page.Bytes())
		}
		s.client.ReadComplete(page, err)
	})
}

func (s *steppedDevice) WritePage(index int, page *flash.Page) error {
	return s.queue(func(failed error) {
		err := failed
		if nil == err {
			err = s.chip.Program(index, page.Bytes())
		}
		s.client.WriteComplete(page, err)
	})
}

func (s *steppedDevice) ErasePage(index int) error {
	return s.queue(func(failed error) {
		err := failed
		if nil == err {
			err = s.chip.Erase(index)
		}
		s.client.EraseComplete(err)
	})
}

func (s *steppedDevice) fail(err error) {
	s.Lock()
	s.failNext = err
	s.Unlock()
}

func (s *steppedDevice) operations() int {
	s.Lock()
	defer s.Unlock()
	return s.count
}

// finish the outstanding operation
func (s *steppedDevice) step() {
	s.Lock()
	op := s.op
	s.op = nil
	s.Unlock()
	op()
}

// step operations until a result arrives
func (s *steppedDevice) runUntil(t *testing.T, results <-chan Result) Result {
	deadline := time.After(testTimeout)
	for {
		select {
		case r := <-results:
			return r
		case <-s.issued:
			s.step()
		case <-deadline:
			t.Fatalf("no result")
		}
	}
}

// step operations until the driver reports ready or failed
func (s *steppedDevice) initialise(t *testing.T, d *Driver) {
	deadline := time.After(testTimeout)
	for {
		select {
		case <-s.issued:
			s.step()
		case <-time.After(5 * time.Millisecond):
			if info := d.Info(); OperationNone == info.Operation {
				return
			}
		case <-deadline:
			t.Fatalf("initialise did not finish")
		}
	}
}
