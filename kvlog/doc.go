// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package kvlog - log structured key-value store over flash regions
//
// The store is written against a FlashController whose calls may
// answer "not ready" instead of completing.  Every public operation
// therefore either finishes or returns a *NotReady error naming the
// flash access that has to complete first; the caller waits for it and
// then calls ContinueOperation, which re-enters the operation at the
// step it was suspended in.
//
// Each region is an append-only log of records:
//
//   offset  size  field
//   0       1     version (0xff marks free space)
//   1       2     flags: bit 15 valid, bits 0-11 total record length
//   3       8     keyed hash of the key
//   11      n     value
//   11+n    4     CRC-32 (IEEE) of the record with the valid bit set
//
// Keys are never stored, only their keyed hash.  Invalidation clears
// the valid bit in place, which only turns bits off and so needs no
// erase.  Garbage collection erases regions holding no valid records.
package kvlog
