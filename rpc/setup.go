// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"crypto/tls"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bitmark-inc/kvstored/counter"
	"github.com/bitmark-inc/kvstored/fault"
	"github.com/bitmark-inc/kvstored/rpc/certificate"
	"github.com/bitmark-inc/kvstored/rpc/listeners"
	"github.com/bitmark-inc/kvstored/rpc/server"
	"github.com/bitmark-inc/kvstored/rpc/store"
	"github.com/bitmark-inc/logger"
)

const (
	tlsName = "client_rpc"

	defaultValueSize      = 1024
	defaultRequestTimeout = 10 // seconds
)

// HTTPSConfiguration - configuration file data for HTTPS setup
type HTTPSConfiguration struct {
	MaximumConnections uint64              `gluamapper:"maximum_connections" json:"maximum_connections"`
	Listen             []string            `gluamapper:"listen" json:"listen"`
	Certificate        string              `gluamapper:"certificate" json:"certificate"`
	PrivateKey         string              `gluamapper:"private_key" json:"private_key"`
	Allow              map[string][]string `gluamapper:"allow" json:"allow"`
}

// globals
type rpcData struct {
	sync.RWMutex // to allow locking

	log *logger.L // logger

	listener listeners.Listener
	servers  []*http.Server
	handler  *httpHandler

	// set once during initialise
	initialised bool
}

// global data
var globalData rpcData

// connection counters
var connectionCountRPC counter.Counter
var connectionCountHTTPS counter.Counter

// Initialise - start the RPC listeners for the store
func Initialise(rpcConfiguration *listeners.RPCConfiguration, httpsConfiguration *HTTPSConfiguration, driver store.Driver, version string) error {

	globalData.Lock()
	defer globalData.Unlock()

	// no need to Start if already started
	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	log := logger.New("rpc")
	globalData.log = log
	log.Info("starting…")

	if rpcConfiguration.ValueSize <= 0 {
		rpcConfiguration.ValueSize = defaultValueSize
	}
	if rpcConfiguration.RequestTimeout <= 0 {
		rpcConfiguration.RequestTimeout = defaultRequestTimeout
	}
	timeout := time.Duration(rpcConfiguration.RequestTimeout) * time.Second

	tlsConfig, certificateFingerprint, err := certificate.Load(log, tlsName, rpcConfiguration.Certificate, rpcConfiguration.PrivateKey)
	if nil != err {
		return err
	}

	factory := server.New(log, version, &connectionCountRPC, driver, rpcConfiguration.ValueSize, timeout)

	rpcListener, err := listeners.NewRPC(
		rpcConfiguration,
		log,
		&connectionCountRPC,
		factory,
		tlsConfig,
		certificateFingerprint,
	)
	if nil != err {
		return err
	}
	err = rpcListener.Serve()
	if nil != err {
		return err
	}
	globalData.listener = rpcListener

	err = initialiseHTTPS(httpsConfiguration, factory)
	if nil != err {
		rpcListener.Close()
		return err
	}

	// all data initialised
	globalData.initialised = true

	return nil
}

// Finalise - stop all listeners
func Finalise() error {

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	globalData.listener.Close()
	for _, s := range globalData.servers {
		_ = s.Close()
	}
	globalData.servers = nil
	globalData.handler = nil

	// finally...
	globalData.initialised = false

	globalData.log.Info("finished")
	globalData.log.Flush()

	return nil
}

func initialiseHTTPS(configuration *HTTPSConfiguration, factory *server.Server) error {

	name := "http_rpc"
	log := globalData.log

	if nil == configuration || 0 == len(configuration.Listen) {
		log.Infof("disable: %s", name)
		return nil
	}

	if configuration.MaximumConnections < 1 {
		log.Errorf("invalid %s maximum connection limit: %d", name, configuration.MaximumConnections)
		return fault.MissingParameters
	}

	tlsConfiguration, fingerprint, err := certificate.Load(log, name, configuration.Certificate, configuration.PrivateKey)
	if nil != err {
		return err
	}

	log.Infof("%s: SHA3-256 fingerprint: %x", name, fingerprint)

	local, err := parseAllow(configuration.Allow)
	if nil != err {
		return err
	}

	handler := &httpHandler{
		log:                log,
		factory:            factory,
		count:              &connectionCountHTTPS,
		allow:              local,
		maximumConnections: configuration.MaximumConnections,
	}

	globalData.handler = handler

	mux := http.NewServeMux()
	mux.HandleFunc("/kvstored/rpc", handler.rpc)
	mux.HandleFunc("/kvstored/details", handler.details)
	mux.HandleFunc("/", handler.root)

	for _, listen := range configuration.Listen {
		log.Infof("starting server: %s on: %q", name, listen)
		if '*' == listen[0] {
			// "*:PORT" listens on tcp4 and tcp6
			listen = "[::]" + ":" + strings.Split(listen, ":")[1]
		}
		s, ln, err := listenTLS(listen, mux, tlsConfiguration)
		if nil != err {
			return err
		}
		globalData.servers = append(globalData.servers, s)
		go func() {
			err := s.Serve(ln)
			log.Infof("server: %s stopped: %s", name, err)
		}()
	}

	return nil
}

// UpdateAllow - replace the HTTPS access control lists
func UpdateAllow(allow map[string][]string) error {

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}
	if nil == globalData.handler {
		return nil // HTTPS disabled
	}

	local, err := parseAllow(allow)
	if nil != err {
		return err
	}
	globalData.handler.setAllow(local)
	globalData.log.Infof("https allow lists updated: %d paths", len(local))
	return nil
}

// access control by path, formatted to match http.Request.RemoteAddr
func parseAllow(allow map[string][]string) (map[string][]*net.IPNet, error) {
	local := make(map[string][]*net.IPNet)
	for path, addresses := range allow {
		set := make([]*net.IPNet, len(addresses))
		local[path] = set
		for i, ip := range addresses {
			_, cidr, err := net.ParseCIDR(strings.Trim(ip, " "))
			if nil != err {
				return nil, err
			}
			set[i] = cidr
		}
	}
	return local, nil
}

type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (c net.Conn, err error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return
	}
	_ = tc.SetKeepAlive(true)
	_ = tc.SetKeepAlivePeriod(3 * time.Minute)
	return tc, nil
}

// HTTPS server using an in-memory TLS key pair
func listenTLS(addr string, handler http.Handler, cfg *tls.Config) (*http.Server, net.Listener, error) {
	s := &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	cfg.NextProtos = []string{"http/1.1"}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	return s, tls.NewListener(tcpKeepAliveListener{ln.(*net.TCPListener)}, cfg), nil
}
