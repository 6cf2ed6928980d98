// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/bitmark-inc/kvstored/fault"
)

const erasedByte = 0xff

// prepend the prefix onto the page index
func pageKey(index int64) []byte {
	key := make([]byte, 9)
	key[0] = pagePrefix
	binary.BigEndian.PutUint64(key[1:], uint64(index))
	return key
}

// Size - total bytes held
func (s *PageStore) Size() int64 {
	return int64(s.pageSize) * int64(s.pageCount)
}

// ReadAt - read bytes at a chip offset, unwritten pages read as erased
func (s *PageStore) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > s.Size() {
		return 0, fault.InvalidAddress
	}

	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return 0, fault.NotInitialised
	}

	n := 0
	for n < len(p) {
		index, start := s.split(off + int64(n))
		page, err := s.getPage(index)
		if nil != err {
			return n, err
		}
		n += copy(p[n:], page[start:])
	}
	return n, nil
}

// WriteAt - write bytes at a chip offset
//
// every page touched is rewritten in a single batch
func (s *PageStore) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > s.Size() {
		return 0, fault.InvalidAddress
	}

	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return 0, fault.NotInitialised
	}
	if s.readOnly {
		return 0, fault.StoreUnavailable
	}

	batch := new(leveldb.Batch)
	n := 0
	for n < len(p) {
		index, start := s.split(off + int64(n))
		page, err := s.getPage(index)
		if nil != err {
			return 0, err
		}
		n += copy(page[start:], p[n:])
		batch.Put(pageKey(index), page)
	}

	if err := s.db.Write(batch, nil); nil != err {
		return 0, err
	}
	return n, nil
}

// page index and offset within it
func (s *PageStore) split(off int64) (int64, int) {
	size := int64(s.pageSize)
	return off / size, int(off % size)
}

// fetch a copy of a page
func (s *PageStore) getPage(index int64) ([]byte, error) {
	value, err := s.db.Get(pageKey(index), nil)
	if leveldb.ErrNotFound == err {
		page := make([]byte, s.pageSize)
		for i := range page {
			page[i] = erasedByte
		}
		return page, nil
	} else if nil != err {
		return nil, err
	}
	if len(value) != s.pageSize {
		s.log.Errorf("page: %d  length: %d  expected: %d", index, len(value), s.pageSize)
		return nil, fault.InvalidPageSize
	}
	return value, nil
}
