// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kvstore

import (
	"time"

	"github.com/bitmark-inc/kvstored/grant"
)

// Grant - per client slot storage
type Grant interface {
	Enter(id uint64, fn func(slot interface{}))
	Get(id uint64) (interface{}, bool)
	Remove(id uint64)
	Count() int
}

// make sure the default satisfies the interface
var _ Grant = &grant.Table{}

// state kept for one client
type client struct {
	key      []byte
	value    []byte
	keyLen   int
	valueLen int
	callback Callback
	inFlight bool
}

func newClient() interface{} {
	return &client{}
}

// NewGrant - default client slot storage
//
// slots not touched for idle are dropped, zero keeps them until Release
func NewGrant(idle time.Duration) *grant.Table {
	return grant.New(newClient, idle)
}

// buffers taken out of a client slot for the operation in flight
type active struct {
	id       uint64
	command  Command
	key      []byte
	value    []byte
	keyLen   int
	valueLen int
}
