// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kvstore

type requestKind int

const (
	requestAllowKey   requestKind = iota
	requestAllowValue requestKind = iota
	requestSubscribe  requestKind = iota
	requestCommand    requestKind = iota
	requestRelease    requestKind = iota
	requestInfo       requestKind = iota
)

type request struct {
	kind     requestKind
	id       uint64
	buffer   []byte
	callback Callback
	command  Command
	arg1     int
	arg2     int
	reply    chan reply
}

type reply struct {
	status Status
	info   Info
}

// AllowKey - register the client's key buffer
func (d *Driver) AllowKey(id uint64, buffer []byte) Status {
	return d.send(request{kind: requestAllowKey, id: id, buffer: buffer}).status
}

// AllowValue - register the client's value buffer
func (d *Driver) AllowValue(id uint64, buffer []byte) Status {
	return d.send(request{kind: requestAllowValue, id: id, buffer: buffer}).status
}

// Subscribe - register the client's result callback
func (d *Driver) Subscribe(id uint64, callback Callback) Status {
	return d.send(request{kind: requestSubscribe, id: id, callback: callback}).status
}

// Command - start a store operation
//
//   CommandSetKey         arg1: key length  arg2: value length
//   CommandGetKey         arg1: key length
//   CommandInvalidateKey  arg1: key length
//   CommandGarbageCollect
//
// StatusSuccess means accepted: the result follows through the callback
func (d *Driver) Command(id uint64, command Command, arg1 int, arg2 int) Status {
	return d.send(request{kind: requestCommand, id: id, command: command, arg1: arg1, arg2: arg2}).status
}

// Release - destroy the client's slot
func (d *Driver) Release(id uint64) Status {
	return d.send(request{kind: requestRelease, id: id}).status
}

// Info - snapshot of driver state and counters
func (d *Driver) Info() Info {
	return d.send(request{kind: requestInfo}).info
}

// pass a request to the event loop and wait for its answer
func (d *Driver) send(r request) reply {
	select {
	case <-d.started:
	default:
		return reply{status: StatusFail}
	}
	r.reply = make(chan reply, 1)
	select {
	case d.requests <- r:
	case <-d.stopped:
		return reply{status: StatusFail}
	}
	select {
	case rep := <-r.reply:
		return rep
	case <-d.stopped:
		return reply{status: StatusFail}
	}
}

// event loop side of every request
func (d *Driver) process(r request) reply {
	switch r.kind {
	case requestAllowKey:
		d.grant.Enter(r.id, func(slot interface{}) {
			slot.(*client).key = r.buffer
		})

	case requestAllowValue:
		d.grant.Enter(r.id, func(slot interface{}) {
			slot.(*client).value = r.buffer
		})

	case requestSubscribe:
		d.grant.Enter(r.id, func(slot interface{}) {
			slot.(*client).callback = r.callback
		})

	case requestRelease:
		d.grant.Remove(r.id)

	case requestCommand:
		return reply{status: d.command(r)}

	case requestInfo:
		return reply{info: d.info()}

	default:
		return reply{status: StatusNoSupport}
	}
	return reply{status: StatusSuccess}
}

func (d *Driver) command(r request) Status {
	operation, ok := r.command.operation()
	if !ok {
		d.stats.unsupported.Increment()
		return StatusNoSupport
	}
	if nil != d.failure {
		return StatusFail
	}
	// an access from an abandoned operation is still at the device
	if OperationNone != d.operation || d.controller.Pending().Active {
		d.stats.busy.Increment()
		return StatusBusy
	}

	status := StatusSuccess
	var a *active
	d.grant.Enter(r.id, func(slot interface{}) {
		c := slot.(*client)
		if c.inFlight {
			status = StatusBusy
			return
		}
		status = admit(c, r)
		if StatusSuccess != status {
			return
		}

		a = &active{
			id:       r.id,
			command:  r.command,
			key:      c.key,
			value:    c.value,
			keyLen:   r.arg1,
			valueLen: r.arg2,
		}
		c.key = nil
		c.value = nil
		c.keyLen = r.arg1
		c.valueLen = r.arg2
		c.inFlight = true
	})
	if StatusSuccess != status {
		if StatusBusy == status {
			d.stats.busy.Increment()
		}
		d.log.Debugf("client: %x  %s rejected: %s", r.id, r.command, status)
		return status
	}

	d.stats.accepted.Increment()
	d.current = a
	d.operation = operation
	d.log.Debugf("client: %x  start: %s", r.id, operation)

	switch operation {
	case OperationGettingKey:
		d.settle(d.engine.GetKey(a.key[:a.keyLen], a.value))
	case OperationSettingKey:
		d.settle(d.engine.SetKey(a.key[:a.keyLen], a.value[:a.valueLen]))
	case OperationInvalidating:
		d.settle(d.engine.InvalidateKey(a.key[:a.keyLen]))
	case OperationCollectingGarbage:
		d.settle(d.engine.GarbageCollect())
	}
	return StatusSuccess
}

// check the client has what the command needs
func admit(c *client, r request) Status {
	needKey := CommandGarbageCollect != r.command
	needValue := CommandGetKey == r.command || CommandSetKey == r.command

	if needKey && nil == c.key {
		return StatusFail
	}
	if needValue && nil == c.value {
		return StatusFail
	}
	if needKey && (r.arg1 <= 0 || r.arg1 > len(c.key)) {
		return StatusInvalid
	}
	if CommandSetKey == r.command && (r.arg2 < 0 || r.arg2 > len(c.value)) {
		return StatusInvalid
	}
	return StatusSuccess
}

func (d *Driver) info() Info {
	return Info{
		Operation:   d.operation,
		Pending:     d.controller.Pending(),
		Ready:       d.ready,
		Clients:     d.grant.Count(),
		Accepted:    d.stats.accepted.Uint64(),
		Busy:        d.stats.busy.Uint64(),
		Completed:   d.stats.completed.Uint64(),
		Failed:      d.stats.failed.Uint64(),
		Unsupported: d.stats.unsupported.Uint64(),
		Unexpected:  d.stats.unexpected.Uint64(),
		Reclaimed:   d.stats.reclaimed.Uint64(),
	}
}
