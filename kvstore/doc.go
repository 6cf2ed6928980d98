// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package kvstore - asynchronous key-value storage driver
//
// The driver owns a kvlog.Engine running over a flash.Device through a
// Controller.  All driver state belongs to a single event loop: client
// requests and device completions arrive as messages and each is
// handled to completion before the next.  Only one store operation is
// in flight at any time; a request made while one is active is
// rejected with StatusBusy, never queued.
//
// Every request returns a status at once.  An accepted request is
// finished later by a Result delivered to the client's callback.
package kvstore
