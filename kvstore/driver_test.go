// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kvstore

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/kvstored/fault"
)

func newTestDriver(t *testing.T) (*steppedDevice, *Driver) {
	device := newSteppedDevice(t)
	configuration := &Configuration{
		RegionOffset: 2,
		RegionCount:  testPageCount - 2,
		HashKey:      []byte("driver test key"),
	}
	d, err := New(device, NewGrant(0), configuration)
	if nil != err {
		t.Fatalf("driver error: %s", err)
	}
	d.Start()
	return device, d
}

func readyDriver(t *testing.T) (*steppedDevice, *Driver) {
	device, d := newTestDriver(t)
	device.initialise(t, d)
	if !d.Info().Ready {
		t.Fatalf("driver not ready")
	}
	return device, d
}

// register buffers and a callback that feeds a channel
func register(d *Driver, id uint64, key []byte, value []byte) chan Result {
	results := make(chan Result, 4)
	d.AllowKey(id, key)
	d.AllowValue(id, value)
	d.Subscribe(id, func(r Result) {
		results <- r
	})
	return results
}

func noMoreResults(t *testing.T, results <-chan Result) {
	select {
	case r := <-results:
		t.Errorf("unexpected extra result: %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNewDriverInvalid(t *testing.T) {
	device := newSteppedDevice(t)
	_, err := New(nil, NewGrant(0), &Configuration{RegionCount: 1})
	assert.Equal(t, fault.MissingParameters, err, "no device")
	_, err = New(device, NewGrant(0), &Configuration{RegionOffset: 4, RegionCount: testPageCount})
	assert.Equal(t, fault.InvalidRegion, err, "region too large")
	_, err = New(device, NewGrant(0), &Configuration{RegionCount: 2, HashKey: make([]byte, 65)})
	assert.Equal(t, fault.InvalidHashKey, err, "hash key")
}

func TestBusyWhileInitialising(t *testing.T) {
	device, d := newTestDriver(t)
	defer d.Stop()

	results := register(d, 1, []byte("abcd"), make([]byte, 16))
	assert.Equal(t, StatusBusy, d.Command(1, CommandGetKey, 4, 0), "busy during initialise")
	assert.Equal(t, OperationInitialising, d.Info().Operation, "initialising")

	device.initialise(t, d)
	info := d.Info()
	assert.True(t, info.Ready, "ready")
	assert.Equal(t, PendingNone, info.Pending, "nothing pending")
	noMoreResults(t, results)
}

func TestInitialiseFailure(t *testing.T) {
	device, d := newTestDriver(t)
	defer d.Stop()

	device.fail(fault.ReadFailed)
	<-device.issued
	device.step()
	device.initialise(t, d)

	assert.False(t, d.Info().Ready, "not ready")
	register(d, 1, []byte("abcd"), make([]byte, 16))
	assert.Equal(t, StatusFail, d.Command(1, CommandGetKey, 4, 0), "store unavailable")
}

func TestScenarioGetKey(t *testing.T) {
	device, d := readyDriver(t)
	defer d.Stop()

	key := []byte("abcd")
	stored := []byte("sixteen byte val")
	value := make([]byte, 16)
	copy(value, stored)

	results := register(d, 7, key, value)
	assert.Equal(t, StatusSuccess, d.Command(7, CommandSetKey, 4, 16), "set accepted")
	r := device.runUntil(t, results)
	assert.Equal(t, Result{Command: CommandSetKey, Status: StatusSuccess, Length: 16}, r, "set result")

	// clear the buffer so the get has to fill it
	for i := range value {
		value[i] = 0
	}

	before := device.operations()
	assert.Equal(t, StatusSuccess, d.Command(7, CommandGetKey, 4, 0), "get accepted")
	r = device.runUntil(t, results)
	assert.Equal(t, StatusSuccess, r.Status, "get status")
	assert.Equal(t, CommandGetKey, r.Command, "get command")
	assert.Equal(t, 16, r.Length, "get length")
	assert.Equal(t, stored, value, "value buffer filled")
	assert.True(t, device.operations() > before, "flash was read")

	noMoreResults(t, results)
	assert.Equal(t, OperationNone, d.Info().Operation, "idle")
}

func TestSecondClientBusy(t *testing.T) {
	device, d := readyDriver(t)
	defer d.Stop()

	resultsA := register(d, 1, []byte("keyA"), make([]byte, 16))
	resultsB := register(d, 2, []byte("keyB"), make([]byte, 16))

	assert.Equal(t, StatusSuccess, d.Command(1, CommandGetKey, 4, 0), "A accepted")
	assert.Equal(t, StatusBusy, d.Command(2, CommandGetKey, 4, 0), "B busy")
	assert.Equal(t, StatusBusy, d.Command(1, CommandGetKey, 4, 0), "A again busy")
	assert.Equal(t, OperationGettingKey, d.Info().Operation, "getting")

	r := device.runUntil(t, resultsA)
	assert.Equal(t, StatusFail, r.Status, "A key is absent")
	assert.Equal(t, fault.KeyNotFound, r.Err, "not found")

	assert.Equal(t, StatusSuccess, d.Command(2, CommandGetKey, 4, 0), "B accepted after A")
	r = device.runUntil(t, resultsB)
	assert.Equal(t, CommandGetKey, r.Command, "B result")

	noMoreResults(t, resultsA)
	noMoreResults(t, resultsB)

	info := d.Info()
	assert.Equal(t, uint64(2), info.Busy, "busy count")
	assert.Equal(t, uint64(2), info.Accepted, "accepted count")
	assert.Equal(t, uint64(2), info.Failed, "both missing")
}

func TestUnknownCommand(t *testing.T) {
	device, d := readyDriver(t)
	defer d.Stop()

	results := register(d, 3, []byte("abcd"), make([]byte, 16))
	assert.Equal(t, StatusNoSupport, d.Command(3, Command(9), 0, 0), "unsupported when idle")
	assert.Equal(t, OperationNone, d.Info().Operation, "still idle")

	assert.Equal(t, StatusSuccess, d.Command(3, CommandGetKey, 4, 0), "accepted")
	assert.Equal(t, StatusNoSupport, d.Command(3, Command(-1), 0, 0), "unsupported while busy")
	assert.Equal(t, OperationGettingKey, d.Info().Operation, "operation unchanged")

	device.runUntil(t, results)
	assert.Equal(t, uint64(2), d.Info().Unsupported, "counted")
}

func TestRequestValidation(t *testing.T) {
	_, d := readyDriver(t)
	defer d.Stop()

	assert.Equal(t, StatusFail, d.Command(4, CommandGetKey, 4, 0), "no buffers")

	d.AllowKey(4, []byte("abcd"))
	assert.Equal(t, StatusFail, d.Command(4, CommandGetKey, 4, 0), "no value buffer")
	assert.Equal(t, StatusFail, d.Command(4, CommandSetKey, 4, 1), "set without value buffer")

	d.AllowValue(4, make([]byte, 16))
	assert.Equal(t, StatusInvalid, d.Command(4, CommandGetKey, 5, 0), "key length past buffer")
	assert.Equal(t, StatusInvalid, d.Command(4, CommandGetKey, 0, 0), "empty key")
	assert.Equal(t, StatusInvalid, d.Command(4, CommandSetKey, 4, 17), "value length past buffer")
	assert.Equal(t, StatusInvalid, d.Command(4, CommandInvalidateKey, 8, 0), "invalidate key length")
	assert.Equal(t, OperationNone, d.Info().Operation, "nothing started")
}

func TestSetInvalidateCollect(t *testing.T) {
	device, d := readyDriver(t)
	defer d.Stop()

	key := []byte("temporary")
	value := bytes.Repeat([]byte{0x42}, 40)
	results := register(d, 5, key, value)

	for i := 0; i < 3; i += 1 {
		assert.Equal(t, StatusSuccess, d.Command(5, CommandSetKey, len(key), len(value)), "set: %d", i)
		r := device.runUntil(t, results)
		assert.Equal(t, StatusSuccess, r.Status, "set: %d", i)
	}

	assert.Equal(t, StatusSuccess, d.Command(5, CommandInvalidateKey, len(key), 0), "invalidate")
	r := device.runUntil(t, results)
	assert.Equal(t, Result{Command: CommandInvalidateKey, Status: StatusSuccess}, r, "invalidated")

	assert.Equal(t, StatusSuccess, d.Command(5, CommandGetKey, len(key), 0), "get")
	r = device.runUntil(t, results)
	assert.Equal(t, StatusFail, r.Status, "gone")

	assert.Equal(t, StatusSuccess, d.Command(5, CommandGarbageCollect, 0, 0), "collect")
	r = device.runUntil(t, results)
	assert.Equal(t, CommandGarbageCollect, r.Command, "collect result")
	assert.Equal(t, StatusSuccess, r.Status, "collected")
	assert.True(t, r.Length >= 0, "reclaimed")
	assert.Equal(t, uint64(r.Length), d.Info().Reclaimed, "reclaimed statistic")
}

func TestFlashFailureReported(t *testing.T) {
	device, d := readyDriver(t)
	defer d.Stop()

	results := register(d, 6, []byte("abcd"), make([]byte, 16))
	device.fail(fault.ReadFailed)
	assert.Equal(t, StatusSuccess, d.Command(6, CommandGetKey, 4, 0), "accepted")

	r := device.runUntil(t, results)
	assert.Equal(t, StatusFail, r.Status, "failed")
	assert.Equal(t, fault.ReadFailed, r.Err, "cause")

	assert.Equal(t, StatusSuccess, d.Command(6, CommandGetKey, 4, 0), "usable again")
	device.runUntil(t, results)
}

func TestReleaseDuringOperation(t *testing.T) {
	device, d := readyDriver(t)
	defer d.Stop()

	results := register(d, 8, []byte("abcd"), make([]byte, 16))
	assert.Equal(t, 1, d.Info().Clients, "one client")

	assert.Equal(t, StatusSuccess, d.Command(8, CommandGetKey, 4, 0), "accepted")
	assert.Equal(t, StatusSuccess, d.Release(8), "released")
	assert.Equal(t, 0, d.Info().Clients, "slot gone")

	// finish the operation, no callback can be delivered
	deadline := time.After(testTimeout)
	for OperationNone != d.Info().Operation {
		select {
		case <-device.issued:
			device.step()
		case <-time.After(5 * time.Millisecond):
		case <-deadline:
			t.Fatalf("operation did not finish")
		}
	}
	noMoreResults(t, results)
}

func TestBufferReplacedInFlight(t *testing.T) {
	device, d := readyDriver(t)
	defer d.Stop()

	results := register(d, 9, []byte("abcd"), make([]byte, 16))
	assert.Equal(t, StatusSuccess, d.Command(9, CommandGetKey, 4, 0), "accepted")

	replacement := []byte("wxyz")
	d.AllowKey(9, replacement)
	device.runUntil(t, results)

	slot, ok := d.grant.Get(9)
	assert.True(t, ok, "slot")
	c := slot.(*client)
	assert.Equal(t, replacement, c.key, "replacement kept")
	assert.Equal(t, 16, len(c.value), "value restored")
	assert.False(t, c.inFlight, "not in flight")
}

func TestUnexpectedCompletionWhileIdle(t *testing.T) {
	device, d := readyDriver(t)
	defer d.Stop()

	d.EraseComplete(nil)
	deadline := time.After(testTimeout)
	for 0 == d.Info().Unexpected {
		select {
		case <-time.After(5 * time.Millisecond):
		case <-deadline:
			t.Fatalf("completion not seen")
		}
	}
	assert.Equal(t, uint64(1), d.Info().Unexpected, "counted")
	assert.Equal(t, OperationNone, d.Info().Operation, "still idle")

	results := register(d, 10, []byte("abcd"), make([]byte, 16))
	assert.Equal(t, StatusSuccess, d.Command(10, CommandGetKey, 4, 0), "still works")
	device.runUntil(t, results)
}

func TestCallbackMayCallDriver(t *testing.T) {
	device, d := readyDriver(t)
	defer d.Stop()

	statuses := make(chan Status, 1)
	results := make(chan Result, 4)
	d.AllowKey(11, []byte("abcd"))
	d.AllowValue(11, make([]byte, 16))
	d.Subscribe(11, func(r Result) {
		if CommandGetKey == r.Command {
			statuses <- d.Command(11, CommandGarbageCollect, 0, 0)
		}
		results <- r
	})

	assert.Equal(t, StatusSuccess, d.Command(11, CommandGetKey, 4, 0), "accepted")
	device.runUntil(t, results)
	assert.Equal(t, StatusSuccess, <-statuses, "request from callback accepted")
	r := device.runUntil(t, results)
	assert.Equal(t, CommandGarbageCollect, r.Command, "collect finished")
}

func TestStoppedDriver(t *testing.T) {
	_, d := newTestDriver(t)
	d.Stop()
	d.Stop()

	assert.Equal(t, StatusFail, d.AllowKey(1, []byte("k")), "stopped")
	assert.Equal(t, StatusFail, d.Command(1, CommandGetKey, 1, 0), "stopped")
}

func TestNotStarted(t *testing.T) {
	device := newSteppedDevice(t)
	configuration := &Configuration{
		RegionCount: testPageCount,
		HashKey:     []byte("driver test key"),
	}
	d, err := New(device, NewGrant(0), configuration)
	assert.Nil(t, err, "driver")

	assert.Equal(t, StatusFail, d.AllowKey(1, []byte("k")), "not started")
	assert.Equal(t, StatusFail, d.Command(1, CommandGetKey, 1, 0), "not started")
	assert.False(t, d.Info().Ready, "not ready")
}

func TestCompletionForWrongAccess(t *testing.T) {
	device, d := readyDriver(t)
	defer d.Stop()

	buffer := make([]byte, 16)
	results := register(d, 12, []byte("abcd"), buffer)
	assert.Equal(t, StatusSuccess, d.Command(12, CommandGetKey, 4, 0), "accepted")

	// a read is at the device, an erase completion arrives instead
	select {
	case <-device.issued:
	case <-time.After(testTimeout):
		t.Fatalf("read not issued")
	}
	d.EraseComplete(nil)

	select {
	case r := <-results:
		assert.Equal(t, StatusFail, r.Status, "failed")
		assert.Equal(t, fault.UnexpectedCompletion, r.Err, "cause")
	case <-time.After(testTimeout):
		t.Fatalf("no result")
	}
	assert.Equal(t, uint64(1), d.Info().Unexpected, "counted")

	// the device still holds the read
	assert.Equal(t, StatusBusy, d.Command(12, CommandGetKey, 4, 0), "device busy")

	device.step()
	deadline := time.After(testTimeout)
	for d.Info().Pending.Active {
		select {
		case <-time.After(5 * time.Millisecond):
		case <-deadline:
			t.Fatalf("read not completed")
		}
	}
	assert.Equal(t, uint64(1), d.Info().Unexpected, "late read is not unexpected")

	value := []byte("0123456789abcdef")
	copy(buffer, value)
	assert.Equal(t, StatusSuccess, d.Command(12, CommandSetKey, 4, len(value)), "set accepted")
	r := device.runUntil(t, results)
	assert.Equal(t, StatusSuccess, r.Status, "set after recovery")

	assert.Equal(t, StatusSuccess, d.Command(12, CommandGetKey, 4, 0), "get accepted")
	r = device.runUntil(t, results)
	assert.Equal(t, StatusSuccess, r.Status, "get after recovery")
	assert.Equal(t, len(value), r.Length, "length")
	assert.Equal(t, value, buffer, "value")
}
