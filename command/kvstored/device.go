// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"time"

	"github.com/spf13/afero"

	"github.com/bitmark-inc/kvstored/fault"
	"github.com/bitmark-inc/kvstored/flash"
	"github.com/bitmark-inc/kvstored/storage"
	"github.com/bitmark-inc/logger"
)

// an opened chip and the function that releases its backing
type chipImage struct {
	chip  *flash.Chip
	close func() error
}

func openChip(log *logger.L, fs afero.Fs, f *FlashType) (*chipImage, error) {

	size := int64(f.PageSize) * int64(f.PageCount)

	switch f.Backing {
	case backingFile, backingMemory:
		if backingMemory == f.Backing {
			fs = afero.NewMemMapFs()
		}
		backing, created, err := flash.OpenFileBacking(fs, f.Name, size)
		if nil != err {
			return nil, err
		}
		chip, err := flash.NewChip(f.PageSize, f.PageCount, backing)
		if nil != err {
			backing.Close()
			return nil, err
		}
		log.Infof("flash image: %q  created: %t", f.Name, created)
		return &chipImage{chip: chip, close: backing.Close}, nil

	case backingLevelDB:
		store, err := storage.Open(f.Name, f.PageSize, f.PageCount, storage.ReadWrite)
		if nil != err {
			return nil, err
		}
		chip, err := flash.NewChip(f.PageSize, f.PageCount, store)
		if nil != err {
			store.Close()
			return nil, err
		}
		log.Infof("flash database: %q", f.Name)
		return &chipImage{chip: chip, close: store.Close}, nil

	default:
		return nil, fault.InvalidBacking
	}
}

func newDevice(image *chipImage, f *FlashType) *flash.Simulator {
	return flash.NewSimulator(image.chip, time.Duration(f.Latency)*time.Microsecond)
}
