// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fixtures - shared setup for rpc tests
package fixtures

import (
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/bitmark-inc/certgen"
	"github.com/bitmark-inc/logger"
)

// LogCategory - logger channel used by the tests
const LogCategory = "test"

var logDirectory string

// SetupTestLogger - send log output to a temporary directory
func SetupTestLogger() {
	dir, err := ioutil.TempDir("", "rpc-test")
	if nil != err {
		panic(fmt.Sprintf("temporary directory failed: %s", err))
	}
	logDirectory = dir

	logConfig := logger.Configuration{
		Directory: dir,
		File:      "rpc.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}
	if err := logger.Initialise(logConfig); nil != err {
		panic(fmt.Sprintf("logger initialization failed: %s", err))
	}
}

// TeardownTestLogger - stop logging and remove the directory
func TeardownTestLogger() {
	logger.Finalise()
	_ = os.RemoveAll(logDirectory)
}

// CertificatePair - a fresh self signed certificate and key in PEM
func CertificatePair() (string, string) {
	certificate, key, err := certgen.NewTLSCertPair("kvstored test", time.Now().Add(24*time.Hour), false, []string{"127.0.0.1", "localhost"})
	if nil != err {
		panic(fmt.Sprintf("certificate generation failed: %s", err))
	}
	return string(certificate), string(key)
}
