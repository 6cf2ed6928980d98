// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kvlog_test

import (
	"github.com/bitmark-inc/kvstored/fault"
	"github.com/bitmark-inc/kvstored/kvlog"
)

// memory flash that answers every call with not ready until
// complete is called, like an interrupt driven device
type asyncController struct {
	regionSize int
	data       []byte

	pending *kvlog.NotReady
	done    *kvlog.NotReady
	result  error

	failNext error
	reads    int
	writes   int
	erases   int
}

func newAsyncController(regionSize int, regionCount int) *asyncController {
	c := &asyncController{
		regionSize: regionSize,
		data:       make([]byte, regionSize*regionCount),
	}
	for i := range c.data {
		c.data[i] = 0xff
	}
	return c
}

func (c *asyncController) claim(access kvlog.Access, index int) (bool, error) {
	if nil != c.done && access == c.done.Access && index == c.done.Index {
		c.done = nil
		return true, c.result
	}
	if nil != c.pending {
		return false, fault.DeviceBusy
	}
	c.pending = &kvlog.NotReady{Access: access, Index: index}
	return false, c.pending
}

// complete - perform the outstanding access
func (c *asyncController) complete() {
	if nil == c.pending {
		panic("nothing pending")
	}
	c.result = c.failNext
	c.failNext = nil
	c.done = c.pending
	c.pending = nil
}

func (c *asyncController) ReadRegion(region int, offset int, buf []byte) error {
	ok, err := c.claim(kvlog.AccessRead, region)
	if !ok {
		return err
	}
	c.reads += 1
	if nil == err {
		copy(buf, c.data[region*c.regionSize+offset:(region+1)*c.regionSize])
	}
	return err
}

func (c *asyncController) Write(address int, buf []byte) error {
	ok, err := c.claim(kvlog.AccessWrite, address)
	if !ok {
		return err
	}
	c.writes += 1
	if nil == err {
		for i, b := range buf {
			c.data[address+i] &= b
		}
	}
	return err
}

func (c *asyncController) EraseRegion(region int) error {
	ok, err := c.claim(kvlog.AccessErase, region)
	if !ok {
		return err
	}
	c.erases += 1
	if nil == err {
		for i := region * c.regionSize; i < (region+1)*c.regionSize; i += 1 {
			c.data[i] = 0xff
		}
	}
	return err
}

// drive an operation to its end, counting suspensions
func drive(c *asyncController, e *kvlog.Engine, r kvlog.Result, err error) (kvlog.Result, int, error) {
	n := 0
	for {
		if _, ok := kvlog.IsNotReady(err); !ok {
			return r, n, err
		}
		n += 1
		c.complete()
		r, err = e.ContinueOperation()
	}
}
