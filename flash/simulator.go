// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package flash

import (
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/kvstored/fault"
)

// Simulator - an asynchronous Device built on a Chip
//
// each accepted operation is carried out on a timer goroutine after
// the configured latency and then reported to the client
type Simulator struct {
	sync.Mutex

	log     *logger.L
	chip    *Chip
	client  Client
	latency time.Duration

	busy     bool
	failNext error
}

// make sure the interface is satisfied
var _ Device = &Simulator{}

// NewSimulator - create a simulated device
func NewSimulator(chip *Chip, latency time.Duration) *Simulator {
	return &Simulator{
		log:     logger.New("flash"),
		chip:    chip,
		latency: latency,
	}
}

// PageSize - bytes per page
func (s *Simulator) PageSize() int {
	return s.chip.PageSize()
}

// PageCount - number of pages
func (s *Simulator) PageCount() int {
	return s.chip.PageCount()
}

// SetClient - register the completion receiver
func (s *Simulator) SetClient(client Client) {
	s.Lock()
	s.client = client
	s.Unlock()
}

// FailNext - the next accepted operation completes with err and does
// not touch the chip
func (s *Simulator) FailNext(err error) {
	s.Lock()
	s.failNext = err
	s.Unlock()
}

// ReadPage - start reading a page into page
func (s *Simulator) ReadPage(index int, page *Page) error {
	if err := s.begin(index, page); nil != err {
		return err
	}
	s.log.Debugf("read page: %d", index)

	s.later(func(injected error) {
		err := injected
		if nil == err {
			err = s.chip.Read(index, page.Bytes())
		}
		client := s.finish()
		client.ReadComplete(page, err)
	})
	return nil
}

// WritePage - start programming a page from page
func (s *Simulator) WritePage(index int, page *Page) error {
	if err := s.begin(index, page); nil != err {
		return err
	}
	s.log.Debugf("write page: %d", index)

	s.later(func(injected error) {
		err := injected
		if nil == err {
			err = s.chip.Program(index, page.Bytes())
		}
		client := s.finish()
		client.WriteComplete(page, err)
	})
	return nil
}

// ErasePage - start erasing a page
func (s *Simulator) ErasePage(index int) error {
	if err := s.begin(index, nil); nil != err {
		return err
	}
	s.log.Debugf("erase page: %d", index)

	s.later(func(injected error) {
		err := injected
		if nil == err {
			err = s.chip.Erase(index)
		}
		client := s.finish()
		client.EraseComplete(err)
	})
	return nil
}

// reserve the device for one operation
func (s *Simulator) begin(index int, page *Page) error {
	if index < 0 || index >= s.chip.PageCount() {
		return fault.InvalidPageIndex
	}
	if nil != page && page.Len() < s.chip.PageSize() {
		return fault.InvalidPageSize
	}

	s.Lock()
	defer s.Unlock()

	if nil == s.client {
		return fault.NotInitialised
	}
	if s.busy {
		return fault.DeviceBusy
	}
	s.busy = true
	return nil
}

// run the operation after the latency, passing any injected failure
func (s *Simulator) later(operation func(injected error)) {
	s.Lock()
	injected := s.failNext
	s.failNext = nil
	s.Unlock()

	time.AfterFunc(s.latency, func() {
		operation(injected)
	})
}

// release the device before the client is told, so that the client
// can start the next operation from inside its completion
func (s *Simulator) finish() Client {
	s.Lock()
	defer s.Unlock()
	s.busy = false
	return s.client
}
