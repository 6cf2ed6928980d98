// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kvlog

import (
	"fmt"
)

// Access - kind of flash access an operation is waiting on
type Access int

// flash accesses
const (
	AccessRead  Access = iota
	AccessWrite Access = iota
	AccessErase Access = iota
)

func (a Access) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessErase:
		return "erase"
	default:
		return "unknown"
	}
}

// NotReady - the flash access was issued and has not completed
//
// Index is the region for read and erase and the byte address for
// write.  This is a control signal, not a failure.
type NotReady struct {
	Access Access
	Index  int
}

func (e *NotReady) Error() string {
	return fmt.Sprintf("%s not ready: %d", e.Access, e.Index)
}

// IsNotReady - detect the not ready signal
func IsNotReady(err error) (*NotReady, bool) {
	nr, ok := err.(*NotReady)
	return nr, ok
}

// ReadNotReady - signal for an outstanding region read
func ReadNotReady(region int) error {
	return &NotReady{Access: AccessRead, Index: region}
}

// WriteNotReady - signal for an outstanding write
func WriteNotReady(address int) error {
	return &NotReady{Access: AccessWrite, Index: address}
}

// EraseNotReady - signal for an outstanding region erase
func EraseNotReady(region int) error {
	return &NotReady{Access: AccessErase, Index: region}
}
