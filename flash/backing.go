// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package flash

import (
	"io"
	"os"

	"github.com/spf13/afero"
)

// Backing - where a chip keeps its bytes
type Backing interface {
	io.ReaderAt
	io.WriterAt
}

// FileBacking - a chip image held in a single file
type FileBacking struct {
	afero.File
}

var erasedBuf = makeErased(65536)

func makeErased(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = ErasedByte
	}
	return b
}

// OpenFileBacking - open or create a chip image of exactly size bytes
//
// any part of the file that did not exist before is filled with the
// erased value, so a new image reads as blank flash.  created is true
// when the file had to be extended.
func OpenFileBacking(fs afero.Fs, name string, size int64) (*FileBacking, bool, error) {
	f, err := fs.OpenFile(name, os.O_RDWR|os.O_CREATE, 0600)
	if nil != err {
		return nil, false, err
	}

	info, err := f.Stat()
	if nil != err {
		f.Close()
		return nil, false, err
	}

	created := false
	if current := info.Size(); current < size {
		if _, err := writeErased(f, current, size-current); nil != err {
			f.Close()
			return nil, false, err
		}
		created = true
	}

	return &FileBacking{File: f}, created, nil
}

// fill length bytes at off with the erased value
func writeErased(w io.WriterAt, off, length int64) (int64, error) {
	n := int64(0)
	for length > 0 {
		writeLen := len(erasedBuf)
		if int64(writeLen) > length {
			writeLen = int(length)
		}

		written, err := w.WriteAt(erasedBuf[:writeLen], off+n)
		n += int64(written)
		length -= int64(written)
		if err != nil {
			return n, err
		}
	}

	return n, nil
}
