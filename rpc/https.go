// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/rpc/jsonrpc"
	"sync"

	"github.com/bitmark-inc/kvstored/counter"
	"github.com/bitmark-inc/kvstored/rpc/node"
	"github.com/bitmark-inc/kvstored/rpc/server"
	"github.com/bitmark-inc/logger"
)

const maximumRequestBody = 1 << 20

type httpHandler struct {
	sync.RWMutex
	log                *logger.L
	factory            *server.Server
	count              *counter.Counter
	allow              map[string][]*net.IPNet
	maximumConnections uint64
}

// one JSON-RPC request per HTTP request
type bodyCodec struct {
	io.Reader
	io.Writer
}

func (bodyCodec) Close() error {
	return nil
}

func (h *httpHandler) root(w http.ResponseWriter, r *http.Request) {
	http.NotFound(w, r)
}

// POST /kvstored/rpc
func (h *httpHandler) rpc(w http.ResponseWriter, r *http.Request) {
	if !h.isAllowed("rpc", r) {
		h.sendError(w, http.StatusForbidden)
		return
	}
	if http.MethodPost != r.Method {
		h.sendError(w, http.StatusMethodNotAllowed)
		return
	}

	if h.count.Increment() > h.maximumConnections {
		h.count.Decrement()
		h.sendError(w, http.StatusServiceUnavailable)
		return
	}
	defer h.count.Decrement()

	id, s, release := h.factory.Create()
	defer release()

	h.log.Debugf("client: %d  http request from: %s", id, r.RemoteAddr)

	w.Header().Set("Content-Type", "application/json")
	codec := jsonrpc.NewServerCodec(bodyCodec{
		Reader: io.LimitReader(r.Body, maximumRequestBody),
		Writer: w,
	})
	if err := s.ServeRequest(codec); nil != err {
		h.log.Warnf("client: %d  http request error: %s", id, err)
	}
}

// GET /kvstored/details
func (h *httpHandler) details(w http.ResponseWriter, r *http.Request) {
	if !h.isAllowed("details", r) {
		h.sendError(w, http.StatusForbidden)
		return
	}
	if http.MethodGet != r.Method {
		h.sendError(w, http.StatusMethodNotAllowed)
		return
	}

	var reply node.InfoReply
	if err := h.factory.Info(&reply); nil != err {
		h.log.Errorf("details error: %s", err)
		h.sendError(w, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reply); nil != err {
		h.log.Errorf("details encode error: %s", err)
	}
}

// replace the access control table
func (h *httpHandler) setAllow(allow map[string][]*net.IPNet) {
	h.Lock()
	h.allow = allow
	h.Unlock()
}

// paths missing from the allow table are open to all
func (h *httpHandler) isAllowed(path string, r *http.Request) bool {
	h.RLock()
	set, ok := h.allow[path]
	h.RUnlock()
	if !ok {
		return true
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if nil != err {
		return false
	}
	ip := net.ParseIP(host)
	if nil == ip {
		return false
	}
	for _, cidr := range set {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

func (h *httpHandler) sendError(w http.ResponseWriter, status int) {
	http.Error(w, http.StatusText(status), status)
}
