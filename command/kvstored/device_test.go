// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/kvstored/fault"
	"github.com/bitmark-inc/kvstored/flash"
	"github.com/bitmark-inc/kvstored/kvstore"
	"github.com/bitmark-inc/kvstored/rpc/fixtures"
	"github.com/bitmark-inc/kvstored/rpc/store"
	"github.com/bitmark-inc/logger"
)

func TestOpenChipFile(t *testing.T) {
	log := logger.New(fixtures.LogCategory)
	fs := afero.NewMemMapFs()

	f := &FlashType{Backing: backingFile, Name: "/flash.image", PageSize: 64, PageCount: 4}
	image, err := openChip(log, fs, f)
	assert.Nil(t, err, "open")
	defer image.close()

	info, err := fs.Stat("/flash.image")
	assert.Nil(t, err, "image not created")
	assert.Equal(t, int64(256), info.Size(), "wrong image size")

	page := make([]byte, 64)
	assert.Nil(t, image.chip.Read(3, page), "read")
	assert.Equal(t, byte(flash.ErasedByte), page[63], "image not erased")
}

func TestOpenChipLevelDB(t *testing.T) {
	dir, err := ioutil.TempDir("", "kvstored-device")
	assert.Nil(t, err, "temporary directory")
	defer os.RemoveAll(dir)

	log := logger.New(fixtures.LogCategory)
	f := &FlashType{Backing: backingLevelDB, Name: filepath.Join(dir, "flash.leveldb"), PageSize: 64, PageCount: 4}

	image, err := openChip(log, afero.NewOsFs(), f)
	assert.Nil(t, err, "open")

	page := make([]byte, 64)
	page[0] = 0x5a
	assert.Nil(t, image.chip.Program(1, page), "program")
	assert.Nil(t, image.close(), "close")

	image, err = openChip(log, afero.NewOsFs(), f)
	assert.Nil(t, err, "reopen")
	defer image.close()

	assert.Nil(t, image.chip.Read(1, page), "read")
	assert.Equal(t, byte(0x5a), page[0], "page not persisted")
}

func TestOpenChipInvalid(t *testing.T) {
	log := logger.New(fixtures.LogCategory)
	_, err := openChip(log, afero.NewMemMapFs(), &FlashType{Backing: "tape", PageSize: 64, PageCount: 4})
	assert.Equal(t, fault.InvalidBacking, err, "wrong error")
}

// the daemon's path from a connection's service down to the chip
func TestStoreOverSimulator(t *testing.T) {
	log := logger.New(fixtures.LogCategory)

	f := &FlashType{Backing: backingMemory, Name: "/flash.image", PageSize: 128, PageCount: 8, Latency: 100}
	image, err := openChip(log, afero.NewOsFs(), f)
	assert.Nil(t, err, "open")
	defer image.close()

	driver, err := kvstore.New(newDevice(image, f), kvstore.NewGrant(0), &kvstore.Configuration{
		RegionOffset: 2,
		RegionCount:  6,
		HashKey:      []byte("secret"),
	})
	assert.Nil(t, err, "driver")
	driver.Start()
	defer driver.Stop()

	limiter := rate.NewLimiter(1000, 100)
	s := store.New(log, limiter, driver, 1, 64, 5*time.Second)
	defer s.Close()

	// initialisation formats the blank chip, requests are busy until then
	deadline := time.Now().Add(5 * time.Second)
	for !driver.Info().Ready {
		if time.Now().After(deadline) {
			t.Fatal("store did not initialise")
		}
		time.Sleep(time.Millisecond)
	}

	var setReply store.SetReply
	err = s.Set(&store.SetArguments{Key: []byte("name"), Value: []byte("kvstored")}, &setReply)
	assert.Nil(t, err, "set")

	var getReply store.GetReply
	err = s.Get(&store.GetArguments{Key: []byte("name")}, &getReply)
	assert.Nil(t, err, "get")
	assert.Equal(t, []byte("kvstored"), getReply.Value, "wrong value")

	err = s.Invalidate(&store.InvalidateArguments{Key: []byte("name")}, &store.InvalidateReply{})
	assert.Nil(t, err, "invalidate")

	err = s.Get(&store.GetArguments{Key: []byte("name")}, &getReply)
	assert.Equal(t, fault.KeyNotFound, err, "invalidated key found")

	var collectReply store.CollectReply
	err = s.Collect(&store.CollectArguments{}, &collectReply)
	assert.Nil(t, err, "collect")
}
