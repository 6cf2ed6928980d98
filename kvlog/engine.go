// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kvlog

import (
	"encoding/binary"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/kvstored/fault"
)

// FlashController - flash access as seen by the store
//
// any call may return a *NotReady error; the same call repeated after
// the access completed returns its real outcome
type FlashController interface {
	ReadRegion(region int, offset int, buf []byte) error
	Write(address int, buf []byte) error
	EraseRegion(region int) error
}

// Kind - the public operation being run
type Kind int

// operation kinds
const (
	KindNone       Kind = iota
	KindInitialise Kind = iota
	KindGet        Kind = iota
	KindSet        Kind = iota
	KindInvalidate Kind = iota
	KindCollect    Kind = iota
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInitialise:
		return "initialise"
	case KindGet:
		return "get"
	case KindSet:
		return "set"
	case KindInvalidate:
		return "invalidate"
	case KindCollect:
		return "collect"
	default:
		return "unknown"
	}
}

// Result - outcome of a finished operation
//
// Length is the value length for get and set and the bytes reclaimed
// for garbage collection
type Result struct {
	Kind   Kind
	Length int
}

// record written by Initialise to mark a formatted store
var markerKey = []byte("kvstored:marker")

type step int

const (
	stepProbe step = iota
	stepSpace
	stepFormat
	stepAppend
	stepInvalidate
	stepCollect
	stepCollectErase
)

// resumable state of the current operation
type operation struct {
	kind Kind
	step step

	hash  uint64
	start int // first region probed
	probe int // regions already probed

	value  []byte // get destination
	record []byte // set staging

	found      bool
	address    int // of the matching record
	flags      uint16
	spaceAt    int // region receiving the record, -1 while unknown
	spaceStart int // offset within that region

	region int // format and collect
	freed  int
	used   int
	length int
}

// Engine - the key-value store
type Engine struct {
	log         *logger.L
	controller  FlashController
	hasher      *KeyedHasher
	regionSize  int
	regionCount int
	buf         []byte

	initialised bool
	op          *operation
}

// New - create a store over regionCount regions of regionSize bytes
func New(controller FlashController, hasher *KeyedHasher, regionSize int, regionCount int) (*Engine, error) {
	if nil == controller || nil == hasher {
		return nil, fault.MissingParameters
	}
	if regionSize < overhead || regionSize > MaximumRecordSize+1 {
		return nil, fault.InvalidPageSize
	}
	if regionCount <= 0 {
		return nil, fault.WrongNumberOfRegions
	}

	return &Engine{
		log:         logger.New("kvlog"),
		controller:  controller,
		hasher:      hasher,
		regionSize:  regionSize,
		regionCount: regionCount,
		buf:         make([]byte, regionSize),
	}, nil
}

// Busy - true while an operation is suspended
func (e *Engine) Busy() bool {
	return nil != e.op
}

// Initialise - find the store marker, formatting the regions if absent
func (e *Engine) Initialise() (Result, error) {
	if e.initialised {
		return Result{}, fault.AlreadyInitialised
	}
	if nil != e.op {
		return Result{}, fault.OperationInProgress
	}
	record, err := makeRecord(e.hasher.Sum64(markerKey), nil)
	if nil != err {
		return Result{}, err
	}
	e.begin(KindInitialise, markerKey)
	e.op.record = record
	return e.run()
}

// GetKey - copy the value stored for key into value
func (e *Engine) GetKey(key []byte, value []byte) (Result, error) {
	if err := e.check(); nil != err {
		return Result{}, err
	}
	e.begin(KindGet, key)
	e.op.value = value
	return e.run()
}

// SetKey - store value under key, replacing any previous value
func (e *Engine) SetKey(key []byte, value []byte) (Result, error) {
	if err := e.check(); nil != err {
		return Result{}, err
	}
	hash := e.hasher.Sum64(key)
	record, err := makeRecord(hash, value)
	if nil != err {
		return Result{}, err
	}
	if len(record) > e.regionSize {
		return Result{}, fault.ObjectTooLarge
	}
	e.begin(KindSet, key)
	e.op.record = record
	e.op.length = len(value)
	return e.run()
}

// InvalidateKey - remove key from the store
func (e *Engine) InvalidateKey(key []byte) (Result, error) {
	if err := e.check(); nil != err {
		return Result{}, err
	}
	e.begin(KindInvalidate, key)
	return e.run()
}

// GarbageCollect - erase every region that holds only invalid records
func (e *Engine) GarbageCollect() (Result, error) {
	if err := e.check(); nil != err {
		return Result{}, err
	}
	e.op = &operation{
		kind:    KindCollect,
		step:    stepCollect,
		spaceAt: -1,
	}
	return e.run()
}

// ContinueOperation - resume the suspended operation
func (e *Engine) ContinueOperation() (Result, error) {
	if nil == e.op {
		return Result{}, fault.OperationNotInProgress
	}
	return e.run()
}

// Abort - drop the suspended operation, if any
//
// the flash is left as the operation left it; a partly written
// record fails its checksum and is skipped by later scans
func (e *Engine) Abort() {
	if nil != e.op {
		e.log.Warnf("abort: %s", e.op.kind)
		e.op = nil
	}
}

func (e *Engine) check() error {
	if !e.initialised {
		return fault.NotInitialised
	}
	if nil != e.op {
		return fault.OperationInProgress
	}
	return nil
}

func (e *Engine) begin(kind Kind, key []byte) {
	hash := e.hasher.Sum64(key)
	e.op = &operation{
		kind:    kind,
		step:    stepProbe,
		hash:    hash,
		start:   int(hash % uint64(e.regionCount)),
		spaceAt: -1,
	}
}

// run steps until the operation finishes or has to wait
func (e *Engine) run() (Result, error) {
	op := e.op
	for {
		done, err := e.step(op)
		if nil != err {
			if _, ok := IsNotReady(err); ok {
				return Result{}, err
			}
			e.log.Debugf("%s failed: %s", op.kind, err)
			e.op = nil
			return Result{}, err
		}
		if done {
			e.op = nil
			if KindInitialise == op.kind {
				e.initialised = true
			}
			return Result{Kind: op.kind, Length: op.length}, nil
		}
	}
}

func (e *Engine) step(op *operation) (bool, error) {
	switch op.step {
	case stepProbe:
		return e.probeStep(op)
	case stepSpace:
		return e.spaceStep(op)
	case stepFormat:
		return e.formatStep(op)
	case stepAppend:
		return e.appendStep(op)
	case stepInvalidate:
		return e.invalidateStep(op)
	case stepCollect:
		return e.collectStep(op)
	case stepCollectErase:
		return e.collectEraseStep(op)
	default:
		fault.Panicf("kvlog: invalid step: %d", op.step)
	}
	return false, nil
}

func (e *Engine) probeRegion(op *operation) int {
	return (op.start + op.probe) % e.regionCount
}

// read one region looking for the key
func (e *Engine) probeStep(op *operation) (bool, error) {
	if op.probe >= e.regionCount {
		return e.notFound(op)
	}

	region := e.probeRegion(op)
	if err := e.controller.ReadRegion(region, 0, e.buf); nil != err {
		return false, err
	}
	s := scanRegion(e.buf, op.hash)
	if s.corrupt {
		e.log.Warnf("region: %d corrupt after offset: %d", region, s.used)
	}
	e.noteSpace(op, region, &s)

	if s.match < 0 {
		op.probe += 1
		return false, nil
	}

	op.found = true
	op.address = region*e.regionSize + s.match
	op.flags = s.matchFlags

	switch op.kind {
	case KindInitialise:
		e.log.Debugf("marker found in region: %d", region)
		return true, nil

	case KindGet:
		r := e.buf[s.match : s.match+s.matchLength]
		if !verifyRecord(r) {
			return false, fault.ChecksumMismatch
		}
		n := s.matchLength - overhead
		if len(op.value) < n {
			return false, fault.BufferTooSmall
		}
		copy(op.value, r[headerSize:headerSize+n])
		op.length = n
		return true, nil

	case KindSet:
		if op.spaceAt >= 0 {
			op.step = stepAppend
		} else {
			op.probe += 1
			op.step = stepSpace
		}
		return false, nil

	case KindInvalidate:
		op.step = stepInvalidate
		return false, nil
	}
	fault.Panicf("kvlog: probe for: %s", op.kind)
	return false, nil
}

// remember the first region in probe order able to take the record
func (e *Engine) noteSpace(op *operation, region int, s *regionScan) {
	if nil == op.record || op.spaceAt >= 0 {
		return
	}
	if s.space(e.regionSize) >= len(op.record) {
		op.spaceAt = region
		op.spaceStart = s.free
	}
}

func (e *Engine) notFound(op *operation) (bool, error) {
	switch op.kind {
	case KindInitialise:
		e.log.Info("no marker: formatting")
		op.step = stepFormat
		op.region = 0
		return false, nil

	case KindSet:
		if op.spaceAt < 0 {
			return false, fault.FlashFull
		}
		op.step = stepAppend
		return false, nil
	}
	return false, fault.KeyNotFound
}

// key already found, continue probing for free space only
func (e *Engine) spaceStep(op *operation) (bool, error) {
	if op.probe >= e.regionCount {
		return false, fault.FlashFull
	}

	region := e.probeRegion(op)
	if err := e.controller.ReadRegion(region, 0, e.buf); nil != err {
		return false, err
	}
	s := scanRegion(e.buf, op.hash)
	e.noteSpace(op, region, &s)
	if op.spaceAt >= 0 {
		op.step = stepAppend
	} else {
		op.probe += 1
	}
	return false, nil
}

func (e *Engine) formatStep(op *operation) (bool, error) {
	if err := e.controller.EraseRegion(op.region); nil != err {
		return false, err
	}
	op.region += 1
	if op.region < e.regionCount {
		return false, nil
	}

	op.spaceAt = op.start
	op.spaceStart = 0
	op.step = stepAppend
	return false, nil
}

func (e *Engine) appendStep(op *operation) (bool, error) {
	address := op.spaceAt*e.regionSize + op.spaceStart
	if err := e.controller.Write(address, op.record); nil != err {
		return false, err
	}
	if KindSet == op.kind && op.found {
		op.step = stepInvalidate
		return false, nil
	}
	return true, nil
}

// clear the valid bit of the record found earlier
func (e *Engine) invalidateStep(op *operation) (bool, error) {
	var flags [2]byte
	binary.BigEndian.PutUint16(flags[:], op.flags&^validFlag)
	if err := e.controller.Write(op.address+1, flags[:]); nil != err {
		return false, err
	}
	return true, nil
}

func (e *Engine) collectStep(op *operation) (bool, error) {
	if op.region >= e.regionCount {
		op.length = op.freed
		e.log.Debugf("collected: %d bytes", op.freed)
		return true, nil
	}

	if err := e.controller.ReadRegion(op.region, 0, e.buf); nil != err {
		return false, err
	}
	s := scanRegion(e.buf, 0)
	if s.used > 0 && 0 == s.valid && !s.corrupt {
		op.used = s.used
		op.step = stepCollectErase
		return false, nil
	}
	op.region += 1
	return false, nil
}

func (e *Engine) collectEraseStep(op *operation) (bool, error) {
	if err := e.controller.EraseRegion(op.region); nil != err {
		return false, err
	}
	op.freed += op.used
	op.region += 1
	op.step = stepCollect
	return false, nil
}
