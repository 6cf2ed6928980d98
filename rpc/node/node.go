// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/kvstored/counter"
	"github.com/bitmark-inc/kvstored/fault"
	"github.com/bitmark-inc/kvstored/kvstore"
	"github.com/bitmark-inc/kvstored/rpc/ratelimit"
	"github.com/bitmark-inc/logger"
)

const (
	rateLimitNode = 200
	rateBurstNode = 100

	maximumWait = 5 * time.Second
)

// Informer - source of store state
type Informer interface {
	Info() kvstore.Info
}

// Node - type for RPC calls
type Node struct {
	Log     *logger.L
	Limiter *rate.Limiter
	Start   time.Time
	Version string
	store   Informer
	counter *counter.Counter
}

// New - node service shared by all connections
func New(log *logger.L, start time.Time, version string, counter *counter.Counter, store Informer) *Node {
	return &Node{
		Log:     log,
		Limiter: rate.NewLimiter(rateLimitNode, rateBurstNode),
		Start:   start,
		Version: version,
		store:   store,
		counter: counter,
	}
}

// InfoArguments - empty arguments for info request
type InfoArguments struct{}

// InfoReply - results from info request
type InfoReply struct {
	Version string    `json:"version"`
	Uptime  string    `json:"uptime"`
	RPCs    uint64    `json:"rpcs"`
	Store   StoreInfo `json:"store"`
}

// StoreInfo - driver state and counters
type StoreInfo struct {
	Ready       bool   `json:"ready"`
	Operation   string `json:"operation"`
	Pending     string `json:"pending"`
	Clients     int    `json:"clients"`
	Accepted    uint64 `json:"accepted"`
	Busy        uint64 `json:"busy"`
	Completed   uint64 `json:"completed"`
	Failed      uint64 `json:"failed"`
	Unsupported uint64 `json:"unsupported"`
	Unexpected  uint64 `json:"unexpected"`
	Reclaimed   uint64 `json:"reclaimed"`
}

// Info - return the state of this node
func (node *Node) Info(_ *InfoArguments, reply *InfoReply) error {

	if err := ratelimit.Limit(node.Limiter, maximumWait); nil != err {
		return err
	}

	if nil == node.store {
		return fault.StoreUnavailable
	}

	info := node.store.Info()

	reply.Version = node.Version
	reply.Uptime = time.Since(node.Start).String()
	reply.RPCs = node.counter.Uint64()
	reply.Store = StoreInfo{
		Ready:       info.Ready,
		Operation:   info.Operation.String(),
		Pending:     info.Pending.String(),
		Clients:     info.Clients,
		Accepted:    info.Accepted,
		Busy:        info.Busy,
		Completed:   info.Completed,
		Failed:      info.Failed,
		Unsupported: info.Unsupported,
		Unexpected:  info.Unexpected,
		Reclaimed:   info.Reclaimed,
	}

	return nil
}
