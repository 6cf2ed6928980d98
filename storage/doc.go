// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - persistent page store for a simulated flash chip
//
// The pages of the chip are kept in a LevelDB database so a chip image
// survives restarts without a single large image file.  Pages that were
// never written read back as erased flash.
//
// Notes:
// 1. ++           = concatenation of byte data
// 2. page index   = big endian uint64 (8 bytes)
//
// Records:
//
//   0x00 ++ VERSION            - database version
//                                data: big endian uint32
//   G                          - geometry
//                                data: page size (uint32) ++ page count (uint32)
//   P ++ page index            - page contents
//                                data: exactly page size bytes
package storage
