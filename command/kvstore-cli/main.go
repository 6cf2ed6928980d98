// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"
)

type metadata struct {
	connect string
	hex     bool
	verbose bool
	e       io.Writer
	w       io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

const defaultConnect = "127.0.0.1:2150"

func main() {
	app := newApp(os.Stdout, os.Stderr)

	err := app.Run(os.Args)
	if nil != err {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

func newApp(w io.Writer, e io.Writer) *cli.App {

	app := cli.NewApp()
	app.Name = "kvstore-cli"
	app.Usage = "access a kvstored key-value store"
	app.Version = version
	app.HideVersion = true

	app.Writer = w
	app.ErrWriter = e

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " verbose result",
		},
		cli.StringFlag{
			Name:   "connect, c",
			Value:  defaultConnect,
			Usage:  " kvstored host/IP and port, `HOST:PORT`",
			EnvVar: "KVSTORE_CONNECT",
		},
		cli.BoolFlag{
			Name:  "hex, x",
			Usage: " keys and values are hexadecimal",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "get",
			Usage:     "fetch the value stored for a key",
			ArgsUsage: "KEY",
			Action:    runGet,
		},
		{
			Name:      "set",
			Usage:     "store a value for a key, replacing any previous value",
			ArgsUsage: "KEY VALUE",
			Action:    runSet,
		},
		{
			Name:      "invalidate",
			Aliases:   []string{"rm"},
			Usage:     "remove a key",
			ArgsUsage: "KEY",
			Action:    runInvalidate,
		},
		{
			Name:   "gc",
			Usage:  "reclaim flash regions holding only removed values",
			Action: runCollect,
		},
		{
			Name:   "info",
			Usage:  "display kvstored status",
			Action: runInfo,
		},
		{
			Name:   "version",
			Usage:  "display kvstore-cli version",
			Action: runVersion,
		},
	}

	app.Before = func(c *cli.Context) error {
		c.App.Metadata["config"] = &metadata{
			connect: c.GlobalString("connect"),
			hex:     c.GlobalBool("hex"),
			verbose: c.GlobalBool("verbose"),
			e:       c.App.ErrWriter,
			w:       c.App.Writer,
		}
		return nil
	}

	return app
}
