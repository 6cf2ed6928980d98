// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rpc - JSON RPC over TLS access to the store
//
// Each accepted connection is one store client: it gets its own key
// and value buffers and its own result callback, and its client slot
// is released when the connection closes.
//
// Services:
//
//   Store.Get         {"key": base64}                  -> {"value": base64}
//   Store.Set         {"key": base64, "value": base64} -> {"length": n}
//   Store.Invalidate  {"key": base64}                  -> {}
//   Store.Collect     {}                               -> {"reclaimed": n}
//   Node.Info         {}                               -> driver state and counters
package rpc
