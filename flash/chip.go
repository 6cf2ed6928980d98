// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package flash

import (
	"sync"

	"github.com/bitmark-inc/kvstored/fault"
)

// Chip - synchronous NOR flash over a backing store
type Chip struct {
	pageSize  int
	pageCount int

	backing Backing

	lock sync.Mutex
}

// NewChip - create a chip of pageCount pages each pageSize bytes
func NewChip(pageSize int, pageCount int, backing Backing) (*Chip, error) {
	if pageSize <= 0 {
		return nil, fault.InvalidPageSize
	}
	if pageCount <= 0 {
		return nil, fault.InvalidPageIndex
	}
	if nil == backing {
		return nil, fault.InvalidBacking
	}

	c := &Chip{
		pageSize:  pageSize,
		pageCount: pageCount,
		backing:   backing,
	}
	return c, nil
}

// PageSize - bytes per page
func (c *Chip) PageSize() int {
	return c.pageSize
}

// PageCount - number of pages
func (c *Chip) PageCount() int {
	return c.pageCount
}

// Size - total bytes
func (c *Chip) Size() int64 {
	return int64(c.pageSize) * int64(c.pageCount)
}

// Read - copy a whole page into p
func (c *Chip) Read(index int, p []byte) error {
	if err := c.check(index, p); nil != err {
		return err
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	_, err := c.backing.ReadAt(p[:c.pageSize], c.offset(index))
	return err
}

// Program - program a whole page
//
// only 1 -> 0 transitions happen, so the stored result is the bitwise
// AND of the old contents and p
func (c *Chip) Program(index int, p []byte) error {
	if err := c.check(index, p); nil != err {
		return err
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	old := make([]byte, c.pageSize)
	if _, err := c.backing.ReadAt(old, c.offset(index)); nil != err {
		return err
	}
	for i := range old {
		old[i] &= p[i]
	}
	_, err := c.backing.WriteAt(old, c.offset(index))
	return err
}

// Erase - set every byte of a page to ErasedByte
func (c *Chip) Erase(index int) error {
	if index < 0 || index >= c.pageCount {
		return fault.InvalidPageIndex
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	_, err := writeErased(c.backing, c.offset(index), int64(c.pageSize))
	return err
}

// Format - erase every page
func (c *Chip) Format() error {
	for i := 0; i < c.pageCount; i += 1 {
		if err := c.Erase(i); nil != err {
			return err
		}
	}
	return nil
}

func (c *Chip) check(index int, p []byte) error {
	if index < 0 || index >= c.pageCount {
		return fault.InvalidPageIndex
	}
	if len(p) < c.pageSize {
		return fault.InvalidPageSize
	}
	return nil
}

func (c *Chip) offset(index int) int64 {
	return int64(index) * int64(c.pageSize)
}
