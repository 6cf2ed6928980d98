// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kvlog

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/bitmark-inc/kvstored/fault"
)

const hashSize = 8

// KeyedHasher - 64 bit keyed hash of store keys
type KeyedHasher struct {
	key []byte
}

// NewKeyedHasher - create a hasher from a secret of at most 64 bytes
func NewKeyedHasher(key []byte) (*KeyedHasher, error) {
	if len(key) > blake2b.Size {
		return nil, fault.InvalidHashKey
	}
	// check the key is accepted before any use
	if _, err := blake2b.New(hashSize, key); nil != err {
		return nil, fault.InvalidHashKey
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &KeyedHasher{key: k}, nil
}

// Sum64 - hash of a key
func (h *KeyedHasher) Sum64(data []byte) uint64 {
	d, err := blake2b.New(hashSize, h.key)
	fault.PanicIfError("kvlog: blake2b", err)
	d.Write(data)
	return binary.BigEndian.Uint64(d.Sum(nil))
}
