// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpccalls

import (
	"github.com/bitmark-inc/kvstored/rpc/store"
)

// Get - fetch the value of a key
func (client *Client) Get(key []byte) ([]byte, error) {
	arguments := store.GetArguments{
		Key: key,
	}
	client.printJson("Get Request", arguments)

	var reply store.GetReply
	if err := client.client.Call("Store.Get", arguments, &reply); err != nil {
		return nil, err
	}

	client.printJson("Get Reply", reply)
	return reply.Value, nil
}

// Set - store a value
func (client *Client) Set(key []byte, value []byte) (int, error) {
	arguments := store.SetArguments{
		Key:   key,
		Value: value,
	}
	client.printJson("Set Request", arguments)

	var reply store.SetReply
	if err := client.client.Call("Store.Set", arguments, &reply); err != nil {
		return 0, err
	}

	client.printJson("Set Reply", reply)
	return reply.Length, nil
}

// Invalidate - remove a key
func (client *Client) Invalidate(key []byte) error {
	arguments := store.InvalidateArguments{
		Key: key,
	}
	client.printJson("Invalidate Request", arguments)

	var reply store.InvalidateReply
	return client.client.Call("Store.Invalidate", arguments, &reply)
}

// Collect - run garbage collection
func (client *Client) Collect() (int, error) {
	var reply store.CollectReply
	if err := client.client.Call("Store.Collect", store.CollectArguments{}, &reply); err != nil {
		return 0, err
	}

	client.printJson("Collect Reply", reply)
	return reply.Reclaimed, nil
}
