// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/kvstored/command/kvstore-cli/rpccalls"
)

func runGet(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	key, err := argument(c, m, 0, "key")
	if nil != err {
		return err
	}

	client, err := rpccalls.NewClient(m.connect, m.verbose, m.e)
	if nil != err {
		return err
	}
	defer client.Close()

	value, err := client.Get(key)
	if nil != err {
		return err
	}

	if m.hex {
		fmt.Fprintf(m.w, "%x\n", value)
	} else {
		fmt.Fprintf(m.w, "%s\n", value)
	}
	return nil
}

func runSet(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	key, err := argument(c, m, 0, "key")
	if nil != err {
		return err
	}
	value, err := argument(c, m, 1, "value")
	if nil != err {
		return err
	}

	client, err := rpccalls.NewClient(m.connect, m.verbose, m.e)
	if nil != err {
		return err
	}
	defer client.Close()

	n, err := client.Set(key, value)
	if nil != err {
		return err
	}

	return printJson(m.w, map[string]int{"length": n})
}

func runInvalidate(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	key, err := argument(c, m, 0, "key")
	if nil != err {
		return err
	}

	client, err := rpccalls.NewClient(m.connect, m.verbose, m.e)
	if nil != err {
		return err
	}
	defer client.Close()

	return client.Invalidate(key)
}

func runCollect(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	client, err := rpccalls.NewClient(m.connect, m.verbose, m.e)
	if nil != err {
		return err
	}
	defer client.Close()

	n, err := client.Collect()
	if nil != err {
		return err
	}

	return printJson(m.w, map[string]int{"reclaimed": n})
}

func runInfo(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	client, err := rpccalls.NewClient(m.connect, m.verbose, m.e)
	if nil != err {
		return err
	}
	defer client.Close()

	response, err := client.GetInfoCompat()
	if nil != err {
		return err
	}
	response["_connection"] = m.connect

	return printJson(m.w, response)
}

func runVersion(c *cli.Context) error {
	fmt.Fprintf(c.App.Writer, "%s\n", version)
	return nil
}

// positional argument n, decoded from hex if requested
func argument(c *cli.Context, m *metadata, n int, name string) ([]byte, error) {
	s := c.Args().Get(n)
	if "" == s {
		return nil, fmt.Errorf("missing %s", name)
	}
	if !m.hex {
		return []byte(s), nil
	}
	b, err := hex.DecodeString(s)
	if nil != err {
		return nil, fmt.Errorf("%s is not hex: %s", name, err)
	}
	return b, nil
}
