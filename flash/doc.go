// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package flash - page addressed flash devices
//
// A Device accepts one page operation at a time.  Each call returns
// immediately and completes later through exactly one call on the
// registered Client.  While an operation is outstanding the device
// owns the Page that was passed to it; the page is handed back in
// the completion.
//
//   ReadPage(index, page)  --> Client.ReadComplete(page, err)
//   WritePage(index, page) --> Client.WriteComplete(page, err)
//   ErasePage(index)       --> Client.EraseComplete(err)
//
// If a call returns an error the operation was never started, no
// completion follows and the caller keeps the page.
//
// Chip is a synchronous NOR flash model (erase sets every byte to
// 0xff, programming can only clear bits) over a Backing, and
// Simulator wraps a Chip to provide the asynchronous Device.
package flash
