// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kvstore

import (
	"fmt"

	"github.com/bitmark-inc/kvstored/kvlog"
)

// Operation - the logical store operation in progress
type Operation int

// operations
const (
	OperationNone              Operation = iota
	OperationInitialising      Operation = iota
	OperationGettingKey        Operation = iota
	OperationSettingKey        Operation = iota
	OperationInvalidating      Operation = iota
	OperationCollectingGarbage Operation = iota
)

func (o Operation) String() string {
	switch o {
	case OperationNone:
		return "None"
	case OperationInitialising:
		return "Initialising"
	case OperationGettingKey:
		return "GettingKey"
	case OperationSettingKey:
		return "SettingKey"
	case OperationInvalidating:
		return "Invalidating"
	case OperationCollectingGarbage:
		return "CollectingGarbage"
	default:
		return "*Unknown*"
	}
}

// Pending - the flash access outstanding at the device
type Pending struct {
	Access kvlog.Access
	Index  int
	Active bool
}

// PendingNone - no outstanding access
var PendingNone = Pending{}

func (p Pending) String() string {
	if !p.Active {
		return "None"
	}
	return fmt.Sprintf("%s(%d)", p.Access, p.Index)
}

// Command - client request codes
type Command int

// request codes
const (
	CommandSetKey         Command = 0
	CommandGetKey         Command = 1
	CommandInvalidateKey  Command = 2
	CommandGarbageCollect Command = 3
)

func (c Command) String() string {
	switch c {
	case CommandSetKey:
		return "SetKey"
	case CommandGetKey:
		return "GetKey"
	case CommandInvalidateKey:
		return "InvalidateKey"
	case CommandGarbageCollect:
		return "GarbageCollect"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

// the operation a command starts
func (c Command) operation() (Operation, bool) {
	switch c {
	case CommandSetKey:
		return OperationSettingKey, true
	case CommandGetKey:
		return OperationGettingKey, true
	case CommandInvalidateKey:
		return OperationInvalidating, true
	case CommandGarbageCollect:
		return OperationCollectingGarbage, true
	default:
		return OperationNone, false
	}
}

// Status - immediate answer to a request, also carried by Result
type Status int

// statuses
const (
	StatusSuccess   Status = iota
	StatusBusy      Status = iota
	StatusNoSupport Status = iota
	StatusFail      Status = iota
	StatusInvalid   Status = iota
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusBusy:
		return "Busy"
	case StatusNoSupport:
		return "NoSupport"
	case StatusFail:
		return "Fail"
	case StatusInvalid:
		return "Invalid"
	default:
		return "*Unknown*"
	}
}

// Result - final outcome of an accepted command
//
// Length is the stored value length for get and set and the bytes
// reclaimed for garbage collection.  Err holds the cause of a failure.
type Result struct {
	Command Command
	Status  Status
	Length  int
	Err     error
}

// Callback - receives the result of each accepted command
type Callback func(result Result)
