// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package flash_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/kvstored/fault"
	"github.com/bitmark-inc/kvstored/flash"
	"github.com/bitmark-inc/kvstored/flash/mocks"
)

type completion struct {
	kind string
	page *flash.Page
	err  error
}

// collects completions on a channel
type channelClient chan completion

func (c channelClient) ReadComplete(page *flash.Page, err error) {
	c <- completion{kind: "read", page: page, err: err}
}

func (c channelClient) WriteComplete(page *flash.Page, err error) {
	c <- completion{kind: "write", page: page, err: err}
}

func (c channelClient) EraseComplete(err error) {
	c <- completion{kind: "erase", err: err}
}

func wait(t *testing.T, c channelClient) completion {
	select {
	case r := <-c:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for completion")
	}
	return completion{}
}

func TestSimulatorRoundTrip(t *testing.T) {
	sim := flash.NewSimulator(newMemoryChip(t), time.Millisecond)
	client := make(channelClient, 1)
	sim.SetClient(client)

	page := flash.NewPage(testPageSize)
	copy(page.Bytes(), bytes.Repeat([]byte{0xa5}, testPageSize))

	assert.Nil(t, sim.WritePage(4, page), "write accepted")
	c := wait(t, client)
	assert.Equal(t, "write", c.kind, "wrong completion")
	assert.Nil(t, c.err, "write error")
	assert.Equal(t, page, c.page, "page not handed back")

	page.Fill(0)
	assert.Nil(t, sim.ReadPage(4, page), "read accepted")
	c = wait(t, client)
	assert.Equal(t, "read", c.kind, "wrong completion")
	assert.Nil(t, c.err, "read error")
	assert.Equal(t, bytes.Repeat([]byte{0xa5}, testPageSize), c.page.Bytes(), "read back differs")

	assert.Nil(t, sim.ErasePage(4), "erase accepted")
	c = wait(t, client)
	assert.Equal(t, "erase", c.kind, "wrong completion")
	assert.Nil(t, c.err, "erase error")
}

func TestSimulatorOneOutstanding(t *testing.T) {
	sim := flash.NewSimulator(newMemoryChip(t), 20*time.Millisecond)
	client := make(channelClient, 2)
	sim.SetClient(client)

	page := flash.NewPage(testPageSize)
	assert.Nil(t, sim.ReadPage(0, page), "first read")
	assert.Equal(t, fault.DeviceBusy, sim.ErasePage(1), "second call while busy")

	wait(t, client)

	// free again once the completion has been delivered
	assert.Nil(t, sim.ErasePage(1), "call after completion")
	wait(t, client)
}

func TestSimulatorRejects(t *testing.T) {
	sim := flash.NewSimulator(newMemoryChip(t), 0)

	page := flash.NewPage(testPageSize)
	assert.Equal(t, fault.NotInitialised, sim.ReadPage(0, page), "no client")

	sim.SetClient(make(channelClient, 1))
	assert.Equal(t, fault.InvalidPageIndex, sim.ReadPage(testPageCount, page), "bad index")
	assert.Equal(t, fault.InvalidPageSize, sim.WritePage(0, flash.NewPage(1)), "short page")
}

func TestSimulatorFailNext(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	done := make(chan struct{})
	client := mocks.NewMockClient(ctl)
	client.EXPECT().EraseComplete(fault.EraseFailed).Do(func(err error) {
		close(done)
	}).Times(1)

	sim := flash.NewSimulator(newMemoryChip(t), 0)
	sim.SetClient(client)
	sim.FailNext(fault.EraseFailed)

	assert.Nil(t, sim.ErasePage(0), "erase accepted")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for erase completion")
	}
}
