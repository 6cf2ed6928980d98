// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server

import (
	"net/rpc"
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/kvstored/counter"
	"github.com/bitmark-inc/kvstored/rpc/node"
	"github.com/bitmark-inc/kvstored/rpc/store"
	"github.com/bitmark-inc/logger"
)

const (
	rateLimitStore = 500
	rateBurstStore = 200
)

// Server - builds the services for each connection
type Server struct {
	log       *logger.L
	ids       counter.Counter
	driver    store.Driver
	node      *node.Node
	limiter   *rate.Limiter
	valueSize int
	timeout   time.Duration
}

// New - shared state for all connections
func New(log *logger.L, version string, rpcCount *counter.Counter, driver store.Driver, valueSize int, timeout time.Duration) *Server {
	return &Server{
		log:       log,
		driver:    driver,
		node:      node.New(log, time.Now().UTC(), version, rpcCount, driver),
		limiter:   rate.NewLimiter(rateLimitStore, rateBurstStore),
		valueSize: valueSize,
		timeout:   timeout,
	}
}

// Create - an rpc server for a new client and the function that
// releases the client when its connection ends
func (s *Server) Create() (uint64, *rpc.Server, func()) {

	id := s.ids.Increment()
	kv := store.New(s.log, s.limiter, s.driver, id, s.valueSize, s.timeout)

	server := rpc.NewServer()

	_ = server.Register(kv)
	_ = server.Register(s.node)

	return id, server, kv.Close
}

// Info - node information outside a connection
func (s *Server) Info(reply *node.InfoReply) error {
	return s.node.Info(&node.InfoArguments{}, reply)
}
