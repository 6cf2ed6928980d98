// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package grant - per client state slots
//
// A slot is allocated the first time a client is entered and lives
// until the client is removed, or until it has not been entered for
// the idle period when one is configured.
package grant

import (
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
)

// Allocator - create an empty slot
type Allocator func() interface{}

// Table - client identifier to slot map
type Table struct {
	slots    *cache.Cache
	allocate Allocator
}

// New - create a table
//
// a zero idle keeps slots until Remove
func New(allocate Allocator, idle time.Duration) *Table {
	expiration := cache.NoExpiration
	cleanup := time.Duration(0)
	if idle > 0 {
		expiration = idle
		cleanup = idle
	}
	return &Table{
		slots:    cache.New(expiration, cleanup),
		allocate: allocate,
	}
}

// OnRemoved - call f with each slot dropped by Remove or expiry
func (t *Table) OnRemoved(f func(id uint64, slot interface{})) {
	t.slots.OnEvicted(func(key string, value interface{}) {
		id, err := strconv.ParseUint(key, 16, 64)
		if nil == err {
			f(id, value)
		}
	})
}

// Enter - run fn on the client's slot, allocating it if needed
func (t *Table) Enter(id uint64, fn func(slot interface{})) {
	key := makeKey(id)
	slot, found := t.slots.Get(key)
	if !found {
		slot = t.allocate()
		if err := t.slots.Add(key, slot, cache.DefaultExpiration); nil != err {
			// lost a race with another Enter
			slot, found = t.slots.Get(key)
			if !found {
				return
			}
		}
	} else {
		// refresh the idle timer
		t.slots.Set(key, slot, cache.DefaultExpiration)
	}
	fn(slot)
}

// Get - the client's slot if it exists
func (t *Table) Get(id uint64) (interface{}, bool) {
	return t.slots.Get(makeKey(id))
}

// Remove - destroy the client's slot
func (t *Table) Remove(id uint64) {
	t.slots.Delete(makeKey(id))
}

// Count - number of live slots
func (t *Table) Count() int {
	return t.slots.ItemCount()
}

func makeKey(id uint64) string {
	return strconv.FormatUint(id, 16)
}
