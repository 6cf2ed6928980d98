// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kvstore

import (
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/kvstored/fault"
	"github.com/bitmark-inc/kvstored/flash"
	"github.com/bitmark-inc/kvstored/kvlog"
)

// the single data buffer; held here or by the device, never both
type pageCell struct {
	page *flash.Page
}

func (c *pageCell) take() *flash.Page {
	if nil == c.page {
		fault.Panicf("kvstore: take: %s", fault.DataBufferNotOwned)
	}
	p := c.page
	c.page = nil
	return p
}

func (c *pageCell) replace(p *flash.Page) {
	if nil != c.page {
		fault.Panicf("kvstore: replace: %s", fault.DataBufferAlreadyOwned)
	}
	if nil == p {
		fault.Panicf("kvstore: replace: nil page")
	}
	c.page = p
}

func (c *pageCell) held() bool {
	return nil != c.page
}

// Controller - flash access for the engine over an asynchronous device
//
// a call either completes from an access already finished by the
// device or starts one and returns *kvlog.NotReady.  Mutations always
// start an access on the first call.
type Controller struct {
	log    *logger.L
	device flash.Device
	cell   pageCell

	regionOffset int // page index of region 0
	regionCount  int
	pageSize     int
	baseAddress  int

	pending Pending // started, not completed
	done    Pending // completed, not yet claimed
	result  error
}

// make sure the interface is satisfied
var _ kvlog.FlashController = &Controller{}

// NewController - regions are pages regionOffset to regionOffset+regionCount-1
func NewController(device flash.Device, regionOffset int, regionCount int) (*Controller, error) {
	if nil == device {
		return nil, fault.MissingParameters
	}
	if regionOffset < 0 || regionCount <= 0 || regionOffset+regionCount > device.PageCount() {
		return nil, fault.InvalidRegion
	}

	pageSize := device.PageSize()
	c := &Controller{
		log:          logger.New("controller"),
		device:       device,
		regionOffset: regionOffset,
		regionCount:  regionCount,
		pageSize:     pageSize,
		baseAddress:  regionOffset * pageSize,
	}
	c.cell.replace(flash.NewPage(pageSize))
	return c, nil
}

// RegionSize - bytes per region
func (c *Controller) RegionSize() int {
	return c.pageSize
}

// RegionCount - number of regions
func (c *Controller) RegionCount() int {
	return c.regionCount
}

// Pending - the access currently at the device
func (c *Controller) Pending() Pending {
	return c.pending
}

// ReadRegion - copy a region into buf
func (c *Controller) ReadRegion(region int, offset int, buf []byte) error {
	if region < 0 || region >= c.regionCount || offset < 0 || offset >= c.pageSize {
		return fault.InvalidRegion
	}

	if c.claim(kvlog.AccessRead, region) {
		if nil != c.result {
			return fault.ReadFailed
		}
		copy(buf, c.cell.page.Bytes()[offset:])
		return nil
	}
	if c.pending.Active {
		return fault.DeviceBusy
	}

	page := c.cell.take()
	if err := c.device.ReadPage(c.regionOffset+region, page); nil != err {
		c.cell.replace(page)
		c.log.Errorf("read page: %d  error: %s", c.regionOffset+region, err)
		return fault.ReadFailed
	}
	c.start(kvlog.AccessRead, region)
	return kvlog.ReadNotReady(region)
}

// Write - program bytes at an address relative to region 0
func (c *Controller) Write(address int, buf []byte) error {
	absolute := c.baseAddress + address
	index := absolute / c.pageSize
	offset := absolute % c.pageSize
	if address < 0 || index >= c.regionOffset+c.regionCount {
		return fault.InvalidAddress
	}
	if offset+len(buf) > c.pageSize {
		return fault.WriteCrossesPageBoundary
	}

	if c.claim(kvlog.AccessWrite, address) {
		if nil != c.result {
			return fault.WriteFailed
		}
		return nil
	}
	if c.pending.Active {
		return fault.DeviceBusy
	}

	// erased bytes leave the rest of the page unchanged
	page := c.cell.take()
	page.Fill(flash.ErasedByte)
	copy(page.Bytes()[offset:], buf)

	if err := c.device.WritePage(index, page); nil != err {
		c.cell.replace(page)
		c.log.Errorf("write page: %d  error: %s", index, err)
		return fault.WriteFailed
	}
	c.start(kvlog.AccessWrite, address)
	return kvlog.WriteNotReady(address)
}

// EraseRegion - erase one region
func (c *Controller) EraseRegion(region int) error {
	if region < 0 || region >= c.regionCount {
		return fault.InvalidRegion
	}

	if c.claim(kvlog.AccessErase, region) {
		if nil != c.result {
			return fault.EraseFailed
		}
		return nil
	}
	if c.pending.Active {
		return fault.DeviceBusy
	}

	if err := c.device.ErasePage(c.regionOffset + region); nil != err {
		c.log.Errorf("erase page: %d  error: %s", c.regionOffset+region, err)
		return fault.EraseFailed
	}
	c.start(kvlog.AccessErase, region)
	return kvlog.EraseNotReady(region)
}

// consume a finished access if it is the one asked for
//
// any other finished access is stale and is dropped
func (c *Controller) claim(access kvlog.Access, index int) bool {
	if !c.done.Active {
		return false
	}
	if access == c.done.Access && index == c.done.Index {
		c.done = PendingNone
		return true
	}
	c.log.Debugf("drop stale completion: %s", c.done)
	c.done = PendingNone
	c.result = nil
	return false
}

func (c *Controller) start(access kvlog.Access, index int) {
	c.pending = Pending{
		Access: access,
		Index:  index,
		Active: true,
	}
}

// complete - record a device completion
//
// page is the data buffer coming back from a read or write, nil for
// an erase
func (c *Controller) complete(access kvlog.Access, page *flash.Page, err error) error {
	if !c.pending.Active || access != c.pending.Access {
		if nil != page && !c.cell.held() {
			c.cell.replace(page)
		}
		return fault.UnexpectedCompletion
	}
	if nil != page {
		c.cell.replace(page)
	}
	c.done = c.pending
	c.result = err
	c.pending = PendingNone
	return nil
}

// reset - forget any finished access once an operation has ended
func (c *Controller) reset() {
	c.done = PendingNone
	c.result = nil
}
