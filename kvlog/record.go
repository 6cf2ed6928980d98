// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kvlog

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/bitmark-inc/kvstored/fault"
)

const (
	recordVersion = 1
	erasedByte    = 0xff

	headerSize   = 1 + 2 + hashSize
	checksumSize = 4
	overhead     = headerSize + checksumSize

	validFlag    = 0x8000
	reservedBits = 0x7000
	lengthMask   = 0x0fff

	// MaximumRecordSize - largest record the flags field can describe
	MaximumRecordSize = lengthMask
)

// build a complete record ready to be appended
func makeRecord(hash uint64, value []byte) ([]byte, error) {
	length := overhead + len(value)
	if length > MaximumRecordSize {
		return nil, fault.ObjectTooLarge
	}

	r := make([]byte, length)
	r[0] = recordVersion
	binary.BigEndian.PutUint16(r[1:3], validFlag|reservedBits|uint16(length))
	binary.BigEndian.PutUint64(r[3:headerSize], hash)
	copy(r[headerSize:], value)
	binary.BigEndian.PutUint32(r[length-checksumSize:], crc32.ChecksumIEEE(r[:length-checksumSize]))
	return r, nil
}

// check the CRC of a record, which may have been invalidated
func verifyRecord(r []byte) bool {
	n := len(r) - checksumSize
	if n < headerSize {
		return false
	}

	flags := binary.BigEndian.Uint16(r[1:3]) | validFlag
	var f [2]byte
	binary.BigEndian.PutUint16(f[:], flags)

	c := crc32.NewIEEE()
	c.Write(r[:1])
	c.Write(f[:])
	c.Write(r[3:n])
	return c.Sum32() == binary.BigEndian.Uint32(r[n:])
}

// result of walking the records of one region
type regionScan struct {
	free    int // offset of free space, -1 if nothing more can be appended
	used    int // bytes occupied by records
	valid   int // count of valid records
	corrupt bool

	match       int // offset of the first valid record with the hash, or -1
	matchLength int
	matchFlags  uint16
}

// space - bytes that can still be appended
func (s *regionScan) space(regionSize int) int {
	if s.free < 0 {
		return 0
	}
	return regionSize - s.free
}

func scanRegion(buf []byte, hash uint64) regionScan {
	s := regionScan{
		free:  -1,
		match: -1,
	}

	size := len(buf)
	offset := 0
	for offset < size {
		if erasedByte == buf[offset] {
			s.free = offset
			break
		}
		if size-offset < overhead || recordVersion != buf[offset] {
			s.corrupt = true
			break
		}

		flags := binary.BigEndian.Uint16(buf[offset+1 : offset+3])
		length := int(flags & lengthMask)
		if length < overhead || offset+length > size {
			s.corrupt = true
			break
		}

		if 0 != flags&validFlag {
			s.valid += 1
			if s.match < 0 && hash == binary.BigEndian.Uint64(buf[offset+3:offset+headerSize]) {
				s.match = offset
				s.matchLength = length
				s.matchFlags = flags
			}
		}
		offset += length
	}
	s.used = offset
	return s
}
