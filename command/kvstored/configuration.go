// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitmark-inc/kvstored/configuration"
	"github.com/bitmark-inc/kvstored/rpc"
	"github.com/bitmark-inc/kvstored/rpc/listeners"
	"github.com/bitmark-inc/logger"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultKeyFile         = "rpc.key"
	defaultCertificateFile = "rpc.crt"

	defaultFlashDirectory = "data"
	defaultFlashFile      = "flash.image"
	defaultFlashDatabase  = "flash.leveldb"
	defaultPageSize       = 512
	defaultPageCount      = 64

	defaultLogDirectory = "log"
	defaultLogFile      = "kvstored.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultRPCClients     = 10
	defaultValueSize      = 1024
	defaultRequestTimeout = 10
)

// flash backing types
const (
	backingFile    = "file"
	backingLevelDB = "leveldb"
	backingMemory  = "memory"
)

// LoglevelMap - to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "critical",
	}
)

// FlashType - the simulated chip
type FlashType struct {
	Backing   string `gluamapper:"backing" json:"backing"`
	Directory string `gluamapper:"directory" json:"directory"`
	Name      string `gluamapper:"name" json:"name"`
	PageSize  int    `gluamapper:"page_size" json:"page_size"`
	PageCount int    `gluamapper:"page_count" json:"page_count"`
	Latency   int    `gluamapper:"latency" json:"latency"` // microseconds per operation
}

// StoreType - the part of the chip used by the store
type StoreType struct {
	RegionOffset int    `gluamapper:"region_offset" json:"region_offset"`
	RegionCount  int    `gluamapper:"region_count" json:"region_count"`
	HashKey      string `gluamapper:"hash_key" json:"hash_key"` // hex
	UpcallQueue  int    `gluamapper:"upcall_queue" json:"upcall_queue"`
	ClientIdle   int    `gluamapper:"client_idle" json:"client_idle"` // seconds, zero to keep
}

// Configuration - the whole configuration file
type Configuration struct {
	DataDirectory string `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string `gluamapper:"pidfile" json:"pidfile"`

	Flash FlashType `gluamapper:"flash" json:"flash"`
	Store StoreType `gluamapper:"store" json:"store"`

	ClientRPC listeners.RPCConfiguration `gluamapper:"client_rpc" json:"client_rpc"`
	HttpsRPC  rpc.HTTPSConfiguration     `gluamapper:"https_rpc" json:"https_rpc"`
	Logging   logger.Configuration       `gluamapper:"logging" json:"logging"`

	hashKey []byte
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default

		Flash: FlashType{
			Backing:   backingFile,
			Directory: defaultFlashDirectory,
			PageSize:  defaultPageSize,
			PageCount: defaultPageCount,
		},

		Store: StoreType{
			RegionOffset: 0,
			RegionCount:  defaultPageCount,
		},

		ClientRPC: listeners.RPCConfiguration{
			MaximumConnections: defaultRPCClients,
			Certificate:        defaultCertificateFile,
			PrivateKey:         defaultKeyFile,
			ValueSize:          defaultValueSize,
			RequestTimeout:     defaultRequestTimeout,
		},

		// default: share config with normal RPC
		HttpsRPC: rpc.HTTPSConfiguration{
			MaximumConnections: defaultRPCClients,
			Certificate:        defaultCertificateFile,
			PrivateKey:         defaultKeyFile,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	variables := map[string]string{
		"config_directory": dataDirectory,
	}
	if err := configuration.ParseConfigurationFile(configurationFileName, options, variables); err != nil {
		return nil, err
	}

	options.Flash.Backing = strings.ToLower(options.Flash.Backing)
	switch options.Flash.Backing {
	case backingFile:
		if "" == options.Flash.Name {
			options.Flash.Name = defaultFlashFile
		}
	case backingLevelDB:
		if "" == options.Flash.Name {
			options.Flash.Name = defaultFlashDatabase
		}
	case backingMemory:
	default:
		return nil, fmt.Errorf("Flash: backing %q is not one of: %s, %s, %s", options.Flash.Backing, backingFile, backingLevelDB, backingMemory)
	}

	if options.Flash.PageSize <= 0 || options.Flash.PageCount <= 0 {
		return nil, fmt.Errorf("Flash: invalid geometry: %d pages of %d bytes", options.Flash.PageCount, options.Flash.PageSize)
	}
	if options.Store.RegionOffset < 0 || options.Store.RegionCount <= 0 ||
		options.Store.RegionOffset+options.Store.RegionCount > options.Flash.PageCount {
		return nil, fmt.Errorf("Store: regions %d..%d outside the %d flash pages", options.Store.RegionOffset, options.Store.RegionOffset+options.Store.RegionCount-1, options.Flash.PageCount)
	}

	options.hashKey, err = hex.DecodeString(options.Store.HashKey)
	if nil != err {
		return nil, fmt.Errorf("Store: hash_key is not hex: %s", err)
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("Path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = filepath.Clean(options.DataDirectory)
	}

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("Path: %q is not a directory", options.DataDirectory)
	}

	// force all relevant items to be absolute paths
	// if not, assign them to the data directory
	mustBeAbsolute := []*string{
		&options.Flash.Directory,
		&options.ClientRPC.Certificate,
		&options.ClientRPC.PrivateKey,
		&options.HttpsRPC.Certificate,
		&options.HttpsRPC.PrivateKey,
		&options.Logging.Directory,
	}
	for _, f := range mustBeAbsolute {
		*f = configuration.EnsureAbsolute(options.DataDirectory, *f)
	}

	// optional absolute paths i.e. blank or an absolute path
	if "" != options.PidFile {
		options.PidFile = configuration.EnsureAbsolute(options.DataDirectory, options.PidFile)
	}

	// plain file names only, placed in their directory
	mustNotBePaths := [][2]*string{
		{&options.Flash.Name, &options.Flash.Directory},
		{&options.Logging.File, nil},
	}
	for _, f := range mustNotBePaths {
		switch filepath.Dir(*f[0]) {
		case "", ".":
			if nil != f[1] {
				*f[0] = configuration.EnsureAbsolute(*f[1], *f[0])
			}
		default:
			return nil, fmt.Errorf("Files: %q is not plain name", *f[0])
		}
	}

	// create directories if they do not already exist
	for _, d := range []string{
		options.Flash.Directory,
		options.Logging.Directory,
	} {
		if err := os.MkdirAll(d, 0700); nil != err {
			return nil, err
		}
	}

	// done
	return options, nil
}
