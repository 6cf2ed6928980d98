// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package flash

//go:generate mockgen -destination=mocks/flash.go -package=mocks github.com/bitmark-inc/kvstored/flash Client,Device

// ErasedByte - value of every byte of a freshly erased page
const ErasedByte = 0xff

// Client - receives the completion of device operations
type Client interface {
	ReadComplete(page *Page, err error)
	WriteComplete(page *Page, err error)
	EraseComplete(err error)
}

// Device - an asynchronous page addressed flash device
type Device interface {
	PageSize() int
	PageCount() int
	SetClient(client Client)
	ReadPage(index int, page *Page) error
	WritePage(index int, page *Page) error
	ErasePage(index int) error
}

// Page - a single page sized data buffer
type Page struct {
	data []byte
}

// NewPage - allocate a page buffer of the given size
func NewPage(size int) *Page {
	return &Page{
		data: make([]byte, size),
	}
}

// Bytes - the page contents
func (p *Page) Bytes() []byte {
	return p.data
}

// Len - size of the page in bytes
func (p *Page) Len() int {
	return len(p.data)
}

// Fill - set every byte of the page to b
func (p *Page) Fill(b byte) {
	for i := range p.data {
		p.data[i] = b
	}
}
