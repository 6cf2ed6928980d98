// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/kvstored/fault"
)

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

// chip geometry
var geometryKey = []byte{'G'}

const (
	currentDBVersion = 0x100
	pagePrefix       = 'P'
)

// pool access modes
const (
	ReadOnly  = true
	ReadWrite = false
)

// PageStore - LevelDB backed page storage usable as a flash.Backing
type PageStore struct {
	sync.RWMutex

	log       *logger.L
	db        *leveldb.DB
	pageSize  int
	pageCount int
	readOnly  bool
}

// Open - open or create a page store
//
// an existing database must have been created with the same geometry
func Open(name string, pageSize int, pageCount int, readOnly bool) (*PageStore, error) {
	if pageSize <= 0 || pageCount <= 0 {
		return nil, fault.InvalidPageSize
	}

	log := logger.New("storage")

	db, version, err := getDB(name, readOnly)
	if nil != err {
		return nil, err
	}

	ok := false
	defer func() {
		if !ok {
			db.Close()
		}
	}()

	if version > currentDBVersion {
		log.Criticalf("database version: %d > current version: %d", version, currentDBVersion)
		return nil, fault.WrongDatabaseVersion
	}

	geometry := make([]byte, 8)
	binary.BigEndian.PutUint32(geometry[0:4], uint32(pageSize))
	binary.BigEndian.PutUint32(geometry[4:8], uint32(pageCount))

	if 0 == version {
		if readOnly {
			return nil, fault.NotInitialised
		}

		// database was empty so tag as current version
		log.Infof("new page store: %q  page size: %d  pages: %d", name, pageSize, pageCount)
		batch := new(leveldb.Batch)
		batch.Put(geometryKey, geometry)
		batch.Put(versionKey, versionBytes(currentDBVersion))
		if err := db.Write(batch, nil); nil != err {
			return nil, err
		}
	} else {
		stored, err := db.Get(geometryKey, nil)
		if nil != err {
			return nil, err
		}
		if 8 != len(stored) ||
			binary.BigEndian.Uint32(stored[0:4]) != uint32(pageSize) ||
			binary.BigEndian.Uint32(stored[4:8]) != uint32(pageCount) {
			log.Errorf("geometry mismatch: stored: %x  expected: %x", stored, geometry)
			return nil, fault.InvalidPageSize
		}
	}

	ok = true
	return &PageStore{
		log:       log,
		db:        db,
		pageSize:  pageSize,
		pageCount: pageCount,
		readOnly:  readOnly,
	}, nil
}

// Close - close the database
func (s *PageStore) Close() error {
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// return:
//   database handle
//   version number
func getDB(name string, readOnly bool) (*leveldb.DB, int, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: readOnly,
		ReadOnly:       readOnly,
	}

	db, err := leveldb.OpenFile(name, opt)
	if nil != err {
		return nil, 0, err
	}

	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return db, 0, nil
	} else if nil != err {
		db.Close()
		return nil, 0, err
	}

	if 4 != len(versionValue) {
		db.Close()
		return nil, 0, fmt.Errorf("incompatible database version length: expected: %d  actual: %d", 4, len(versionValue))
	}

	version := int(binary.BigEndian.Uint32(versionValue))
	return db, version, nil
}

func versionBytes(version int) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(version))
	return b
}
