// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package counter_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/kvstored/counter"
)

func TestCounter(t *testing.T) {
	var c counter.Counter

	assert.Equal(t, uint64(0), c.Uint64(), "counter is not zero at start")

	for i := 0; i < 5; i += 1 {
		c.Increment()
	}
	assert.Equal(t, uint64(5), c.Uint64(), "after increment")

	c.Decrement()
	assert.Equal(t, uint64(4), c.Uint64(), "after decrement")

	assert.Equal(t, uint64(1004), c.Add(1000), "after add")

	// check against underflow, i.e. twos complement -1
	var d counter.Counter
	d.Decrement()
	assert.Equal(t, ^uint64(0), d.Uint64(), "underflow")
}

func TestCounterConcurrent(t *testing.T) {
	var c counter.Counter
	var wg sync.WaitGroup

	for i := 0; i < 8; i += 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j += 1 {
				c.Increment()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(8000), c.Uint64(), "lost updates")
}
