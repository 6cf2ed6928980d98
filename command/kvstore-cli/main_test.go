// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"net/rpc"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/kvstored/counter"
	"github.com/bitmark-inc/kvstored/fault"
	"github.com/bitmark-inc/kvstored/rpc/certificate"
	"github.com/bitmark-inc/kvstored/rpc/fixtures"
	"github.com/bitmark-inc/kvstored/rpc/listeners"
	"github.com/bitmark-inc/kvstored/rpc/node"
	"github.com/bitmark-inc/kvstored/rpc/store"
	"github.com/bitmark-inc/logger"
)

// in-memory stand-in for the store service
type Store struct {
	sync.Mutex
	values map[string][]byte
}

func (s *Store) Get(arguments *store.GetArguments, reply *store.GetReply) error {
	s.Lock()
	defer s.Unlock()
	v, ok := s.values[string(arguments.Key)]
	if !ok {
		return fault.KeyNotFound
	}
	reply.Value = v
	return nil
}

func (s *Store) Set(arguments *store.SetArguments, reply *store.SetReply) error {
	s.Lock()
	defer s.Unlock()
	s.values[string(arguments.Key)] = arguments.Value
	reply.Length = len(arguments.Value)
	return nil
}

func (s *Store) Invalidate(arguments *store.InvalidateArguments, reply *store.InvalidateReply) error {
	s.Lock()
	defer s.Unlock()
	delete(s.values, string(arguments.Key))
	return nil
}

func (s *Store) Collect(arguments *store.CollectArguments, reply *store.CollectReply) error {
	reply.Reclaimed = 128
	return nil
}

type Node struct{}

func (n *Node) Info(arguments *node.InfoArguments, reply *node.InfoReply) error {
	reply.Version = "test"
	reply.Store.Ready = true
	return nil
}

type factory struct {
	ids   counter.Counter
	store *Store
}

func (f *factory) Create() (uint64, *rpc.Server, func()) {
	server := rpc.NewServer()
	_ = server.Register(f.store)
	_ = server.Register(&Node{})
	return f.ids.Increment(), server, func() {}
}

func startServer(t *testing.T) (listeners.Listener, string) {
	log := logger.New(fixtures.LogCategory)
	cer, key := fixtures.CertificatePair()
	tlsConfig, fingerprint, err := certificate.Get(log, "test", cer, key)
	assert.Nil(t, err, "certificate")

	var count counter.Counter
	l, err := listeners.NewRPC(&listeners.RPCConfiguration{
		MaximumConnections: 5,
		Listen:             []string{"127.0.0.1:0"},
	}, log, &count, &factory{store: &Store{values: make(map[string][]byte)}}, tlsConfig, fingerprint)
	assert.Nil(t, err, "listener")
	assert.Nil(t, l.Serve(), "serve")

	return l, l.Addresses()[0].String()
}

func run(address string, arguments ...string) (string, string, error) {
	var w, e bytes.Buffer
	app := newApp(&w, &e)
	err := app.Run(append([]string{"kvstore-cli", "--connect", address}, arguments...))
	return w.String(), e.String(), err
}

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func TestCommands(t *testing.T) {
	l, address := startServer(t)
	defer l.Close()

	out, _, err := run(address, "set", "colour", "blue")
	assert.Nil(t, err, "set")
	assert.Contains(t, out, `"length": 4`, "wrong set output")

	out, _, err = run(address, "get", "colour")
	assert.Nil(t, err, "get")
	assert.Equal(t, "blue\n", out, "wrong value")

	out, _, err = run(address, "--hex", "get", "636f6c6f7572")
	assert.Nil(t, err, "hex get")
	assert.Equal(t, "626c7565\n", out, "wrong hex value")

	_, _, err = run(address, "rm", "colour")
	assert.Nil(t, err, "invalidate")

	_, _, err = run(address, "get", "colour")
	assert.NotNil(t, err, "removed key found")
	assert.True(t, strings.Contains(err.Error(), fault.KeyNotFound.Error()), "wrong error: %s", err)

	out, _, err = run(address, "gc")
	assert.Nil(t, err, "gc")
	assert.Contains(t, out, `"reclaimed": 128`, "wrong gc output")

	out, _, err = run(address, "info")
	assert.Nil(t, err, "info")
	assert.Contains(t, out, `"_connection": "`+address+`"`, "connection missing")
	assert.Contains(t, out, `"version": "test"`, "version missing")
}

func TestArguments(t *testing.T) {
	_, _, err := run(defaultConnect, "get")
	assert.NotNil(t, err, "missing key accepted")

	_, _, err = run(defaultConnect, "--hex", "set", "zz", "00")
	assert.NotNil(t, err, "bad hex accepted")

	out, _, err := run(defaultConnect, "version")
	assert.Nil(t, err, "version")
	assert.Equal(t, version+"\n", out, "wrong version")
}
