// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kvstore

import (
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/kvstored/background"
	"github.com/bitmark-inc/kvstored/counter"
	"github.com/bitmark-inc/kvstored/fault"
	"github.com/bitmark-inc/kvstored/flash"
	"github.com/bitmark-inc/kvstored/kvlog"
)

const (
	requestQueueSize    = 16
	completionQueueSize = 4
	defaultUpcallQueue  = 64
)

// Configuration - driver parameters
type Configuration struct {
	RegionOffset int    // first page of the store
	RegionCount  int    // pages in the store
	HashKey      []byte // secret for the keyed hash
	UpcallQueue  int    // callbacks waiting for delivery
}

// Info - driver state and counters
type Info struct {
	Operation   Operation
	Pending     Pending
	Ready       bool
	Clients     int
	Accepted    uint64
	Busy        uint64
	Completed   uint64
	Failed      uint64
	Unsupported uint64
	Unexpected  uint64
	Reclaimed   uint64 // bytes freed by garbage collection
}

type statistics struct {
	accepted    counter.Counter
	busy        counter.Counter
	completed   counter.Counter
	failed      counter.Counter
	unsupported counter.Counter
	unexpected  counter.Counter
	reclaimed   counter.Counter
}

type completion struct {
	access kvlog.Access
	page   *flash.Page
	err    error
}

type upcall struct {
	callback Callback
	result   Result
}

// Driver - the storage driver
type Driver struct {
	log        *logger.L
	device     flash.Device
	controller *Controller
	engine     *kvlog.Engine
	grant      Grant

	requests    chan request
	completions chan completion
	upcalls     chan upcall
	started     chan struct{}
	stopped     chan struct{}
	shutdown    <-chan struct{}
	processes   *background.T

	// owned by the event loop
	operation Operation
	current   *active
	ready     bool
	failure   error
	stats     statistics
}

// make sure the interfaces are satisfied
var _ flash.Client = &Driver{}
var _ background.Process = &Driver{}

// New - create a driver over a device
//
// the driver does nothing until Start; client calls made before
// then return StatusFail and an empty Info
func New(device flash.Device, grant Grant, configuration *Configuration) (*Driver, error) {
	if nil == device || nil == grant || nil == configuration {
		return nil, fault.MissingParameters
	}

	controller, err := NewController(device, configuration.RegionOffset, configuration.RegionCount)
	if nil != err {
		return nil, err
	}

	hasher, err := kvlog.NewKeyedHasher(configuration.HashKey)
	if nil != err {
		return nil, err
	}

	engine, err := kvlog.New(controller, hasher, controller.RegionSize(), controller.RegionCount())
	if nil != err {
		return nil, err
	}

	upcalls := configuration.UpcallQueue
	if upcalls <= 0 {
		upcalls = defaultUpcallQueue
	}

	d := &Driver{
		log:         logger.New("kvstore"),
		device:      device,
		controller:  controller,
		engine:      engine,
		grant:       grant,
		requests:    make(chan request, requestQueueSize),
		completions: make(chan completion, completionQueueSize),
		upcalls:     make(chan upcall, upcalls),
		started:     make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	return d, nil
}

// Start - attach to the device and run the event loop
//
// store initialisation begins at once; requests made before it
// finishes are answered with StatusBusy
func (d *Driver) Start() {
	if nil != d.processes {
		return
	}
	d.device.SetClient(d)

	processes := background.Processes{
		d,
		&upcaller{
			log:   d.log,
			queue: d.upcalls,
		},
	}
	d.processes = background.Start(processes, nil)
	close(d.started)
}

// Stop - end the event loop; any operation in flight is abandoned
func (d *Driver) Stop() {
	if nil != d.processes {
		d.processes.Stop()
	}
}

// Run - the event loop
func (d *Driver) Run(args interface{}, shutdown <-chan struct{}) {
	log := d.log
	log.Info("starting…")
	defer close(d.stopped)
	d.shutdown = shutdown

	d.operation = OperationInitialising
	d.settle(d.engine.Initialise())

loop:
	for {
		log.Debug("waiting…")
		select {
		case <-shutdown:
			break loop
		case r := <-d.requests:
			r.reply <- d.process(r)
		case c := <-d.completions:
			d.complete(c)
		}
	}

	if OperationNone != d.operation {
		log.Warnf("stopped during: %s  pending: %s", d.operation, d.controller.Pending())
	}
	log.Info("stopped")
}

// ReadComplete - device completion of a page read
func (d *Driver) ReadComplete(page *flash.Page, err error) {
	d.completed(completion{access: kvlog.AccessRead, page: page, err: err})
}

// WriteComplete - device completion of a page write
func (d *Driver) WriteComplete(page *flash.Page, err error) {
	d.completed(completion{access: kvlog.AccessWrite, page: page, err: err})
}

// EraseComplete - device completion of a page erase
func (d *Driver) EraseComplete(err error) {
	d.completed(completion{access: kvlog.AccessErase, err: err})
}

func (d *Driver) completed(c completion) {
	select {
	case d.completions <- c:
	case <-d.stopped:
		d.log.Warnf("%s completion after stop", c.access)
	}
}

// a device completion, resume the engine
func (d *Driver) complete(c completion) {
	if nil != c.err {
		d.log.Errorf("%s completion error: %s", c.access, c.err)
	}

	if OperationNone == d.operation {
		err := d.controller.complete(c.access, c.page, c.err)
		d.controller.reset()
		if nil != err {
			d.stats.unexpected.Increment()
			d.log.Warnf("%s completion while idle: %s", c.access, err)
			return
		}
		d.log.Infof("%s late completion, device free", c.access)
		return
	}

	if err := d.controller.complete(c.access, c.page, c.err); nil != err {
		d.stats.unexpected.Increment()
		d.log.Errorf("%s completion during: %s  pending: %s", c.access, d.operation, d.controller.Pending())
		d.finish(kvlog.Result{}, err)
		return
	}

	d.settle(d.engine.ContinueOperation())
}

// act on what the engine returned
func (d *Driver) settle(result kvlog.Result, err error) {
	if nr, ok := kvlog.IsNotReady(err); ok {
		d.log.Debugf("%s waiting for: %s", d.operation, nr)
		return
	}
	d.finish(result, err)
}

// end the current operation and report it
func (d *Driver) finish(result kvlog.Result, err error) {
	operation := d.operation
	d.operation = OperationNone
	d.controller.reset()
	if nil != err {
		d.engine.Abort()
	}

	if OperationInitialising == operation {
		if nil != err {
			d.failure = err
			d.log.Criticalf("initialise failed: %s", err)
			return
		}
		d.ready = true
		d.log.Info("store ready")
		return
	}

	a := d.current
	d.current = nil
	if nil == a {
		fault.Panicf("kvstore: %s finished without a client", operation)
	}

	r := Result{
		Command: a.command,
		Status:  StatusSuccess,
		Length:  result.Length,
	}
	if nil != err {
		r.Status = StatusFail
		r.Err = err
		r.Length = 0
		d.stats.failed.Increment()
		d.log.Infof("client: %x  %s failed: %s", a.id, a.command, err)
	} else {
		d.stats.completed.Increment()
		if CommandGarbageCollect == a.command {
			d.stats.reclaimed.Add(uint64(result.Length))
		}
		d.log.Debugf("client: %x  %s length: %d", a.id, a.command, result.Length)
	}

	d.restore(a, r)
}

// give the buffers back and queue the callback
func (d *Driver) restore(a *active, r Result) {
	slot, ok := d.grant.Get(a.id)
	if !ok {
		d.log.Debugf("client: %x  released before result", a.id)
		return
	}

	c := slot.(*client)
	c.inFlight = false

	// a buffer registered meanwhile replaces the one in use
	if nil == c.key {
		c.key = a.key
	}
	if nil == c.value {
		c.value = a.value
	}

	if nil == c.callback {
		return
	}
	select {
	case d.upcalls <- upcall{callback: c.callback, result: r}:
	case <-d.shutdown:
		d.log.Warnf("client: %x  callback dropped at shutdown", a.id)
	}
}

// delivers callbacks outside the event loop so that a callback may
// make new requests
type upcaller struct {
	log   *logger.L
	queue <-chan upcall
}

func (u *upcaller) Run(args interface{}, shutdown <-chan struct{}) {
	for {
		select {
		case <-shutdown:
			if n := len(u.queue); n > 0 {
				u.log.Warnf("dropped: %d callbacks", n)
			}
			return
		case c := <-u.queue:
			c.callback(c.result)
		}
	}
}
