// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/kvstored/fault"
	"github.com/bitmark-inc/kvstored/kvstore"
	"github.com/bitmark-inc/kvstored/rpc/ratelimit"
	"github.com/bitmark-inc/logger"
)

const (
	// MaximumKeyLength - key buffer registered for each connection
	MaximumKeyLength = 256

	resultQueue     = 4
	setCostUnit     = 256
	maximumSetCount = 64
)

// Driver - the store operations used by a connection
type Driver interface {
	AllowKey(id uint64, buffer []byte) kvstore.Status
	AllowValue(id uint64, buffer []byte) kvstore.Status
	Subscribe(id uint64, callback kvstore.Callback) kvstore.Status
	Command(id uint64, command kvstore.Command, arg1 int, arg2 int) kvstore.Status
	Release(id uint64) kvstore.Status
	Info() kvstore.Info
}

// Store - the RPC service for one connection
type Store struct {
	sync.Mutex

	Log     *logger.L
	Limiter *rate.Limiter

	driver     Driver
	id         uint64
	timeout    time.Duration
	key        []byte
	value      []byte
	registered bool

	// callbacks still owed for requests that timed out
	outstanding int
	results     chan kvstore.Result
}

// New - a service for the client id
func New(log *logger.L, limiter *rate.Limiter, driver Driver, id uint64, valueSize int, timeout time.Duration) *Store {
	return &Store{
		Log:     log,
		Limiter: limiter,
		driver:  driver,
		id:      id,
		timeout: timeout,
		key:     make([]byte, MaximumKeyLength),
		value:   make([]byte, valueSize),
		results: make(chan kvstore.Result, resultQueue),
	}
}

// GetArguments - key to look up
type GetArguments struct {
	Key []byte `json:"key"`
}

// GetReply - stored value
type GetReply struct {
	Value []byte `json:"value"`
}

// Get - fetch the value for a key
func (s *Store) Get(arguments *GetArguments, reply *GetReply) error {
	if err := ratelimit.Limit(s.Limiter, s.timeout); nil != err {
		return err
	}

	s.Lock()
	defer s.Unlock()

	if err := s.ready(); nil != err {
		return err
	}
	if err := s.setKey(arguments.Key); nil != err {
		return err
	}

	r, err := s.call(kvstore.CommandGetKey, len(arguments.Key), 0)
	if nil != err {
		return err
	}
	if r.Length > len(s.value) {
		return fault.BufferTooSmall
	}

	reply.Value = make([]byte, r.Length)
	copy(reply.Value, s.value)
	return nil
}

// SetArguments - key and value to store
type SetArguments struct {
	Key   []byte `json:"key"`
	Value []byte `json:"value"`
}

// SetReply - bytes stored
type SetReply struct {
	Length int `json:"length"`
}

// Set - store a value, replacing any previous one
func (s *Store) Set(arguments *SetArguments, reply *SetReply) error {
	if err := ratelimit.LimitValue(s.Limiter, len(arguments.Value), setCostUnit, maximumSetCount, s.timeout); nil != err {
		return err
	}

	s.Lock()
	defer s.Unlock()

	if err := s.ready(); nil != err {
		return err
	}
	if err := s.setKey(arguments.Key); nil != err {
		return err
	}
	if 0 == len(arguments.Value) || len(arguments.Value) > len(s.value) {
		return fault.InvalidValueLength
	}
	copy(s.value, arguments.Value)

	_, err := s.call(kvstore.CommandSetKey, len(arguments.Key), len(arguments.Value))
	if nil != err {
		return err
	}

	reply.Length = len(arguments.Value)
	return nil
}

// InvalidateArguments - key to remove
type InvalidateArguments struct {
	Key []byte `json:"key"`
}

// InvalidateReply - empty
type InvalidateReply struct {
}

// Invalidate - remove a key
func (s *Store) Invalidate(arguments *InvalidateArguments, reply *InvalidateReply) error {
	if err := ratelimit.Limit(s.Limiter, s.timeout); nil != err {
		return err
	}

	s.Lock()
	defer s.Unlock()

	if err := s.ready(); nil != err {
		return err
	}
	if err := s.setKey(arguments.Key); nil != err {
		return err
	}

	_, err := s.call(kvstore.CommandInvalidateKey, len(arguments.Key), 0)
	return err
}

// CollectArguments - empty
type CollectArguments struct {
}

// CollectReply - space recovered
type CollectReply struct {
	Reclaimed int `json:"reclaimed"`
}

// Collect - run garbage collection
func (s *Store) Collect(arguments *CollectArguments, reply *CollectReply) error {
	if err := ratelimit.Limit(s.Limiter, s.timeout); nil != err {
		return err
	}

	s.Lock()
	defer s.Unlock()

	if err := s.ready(); nil != err {
		return err
	}

	r, err := s.call(kvstore.CommandGarbageCollect, 0, 0)
	if nil != err {
		return err
	}

	reply.Reclaimed = r.Length
	return nil
}

// Close - release the client slot
func (s *Store) Close() {
	s.Lock()
	defer s.Unlock()

	if s.registered {
		s.driver.Release(s.id)
		s.registered = false
	}
}

func (s *Store) setKey(key []byte) error {
	if 0 == len(key) || len(key) > len(s.key) {
		return fault.InvalidKeyLength
	}
	copy(s.key, key)
	return nil
}

// callback runs on the driver's upcall goroutine
func (s *Store) callback(result kvstore.Result) {
	select {
	case s.results <- result:
	default:
		s.Log.Warnf("client: %d  dropped result: %s %s", s.id, result.Command, result.Status)
	}
}

func (s *Store) register() {
	if s.registered {
		return
	}
	s.driver.AllowKey(s.id, s.key)
	s.driver.AllowValue(s.id, s.value)
	s.driver.Subscribe(s.id, s.callback)
	s.registered = true
}

// discard results of requests that have already timed out, the
// buffers are not touched until every one has arrived
func (s *Store) ready() error {
	for s.outstanding > 0 {
		select {
		case r := <-s.results:
			s.Log.Debugf("client: %d  late result: %s %s", s.id, r.Command, r.Status)
			s.outstanding -= 1
		default:
			return fault.StoreBusy
		}
	}
	return nil
}

// issue a command and wait for its callback
func (s *Store) call(command kvstore.Command, keyLength int, valueLength int) (kvstore.Result, error) {
	s.register()

	status := s.driver.Command(s.id, command, keyLength, valueLength)
	s.Log.Debugf("client: %d  command: %s  status: %s", s.id, command, status)

	switch status {
	case kvstore.StatusSuccess:
	case kvstore.StatusBusy:
		return kvstore.Result{}, fault.StoreBusy
	case kvstore.StatusInvalid:
		if valueLength > len(s.value) {
			return kvstore.Result{}, fault.InvalidValueLength
		}
		return kvstore.Result{}, fault.InvalidKeyLength
	case kvstore.StatusNoSupport:
		return kvstore.Result{}, fault.UnsupportedOperation
	default:
		return kvstore.Result{}, fault.StoreUnavailable
	}

	select {
	case r := <-s.results:
		if kvstore.StatusSuccess != r.Status {
			if nil != r.Err {
				return r, r.Err
			}
			return r, fault.StoreUnavailable
		}
		return r, nil

	case <-time.After(s.timeout):
		s.Log.Warnf("client: %d  command: %s  timed out", s.id, command)
		s.outstanding += 1
		return kvstore.Result{}, fault.RequestTimeout
	}
}
