// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type LengthError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type RecordError GenericError

// common errors - keep in alphabetic order
var (
	AlreadyInitialised       = ExistsError("already initialised")
	BufferTooSmall           = LengthError("buffer too small")
	CertificateFileExists    = ExistsError("certificate file already exists")
	ChecksumMismatch         = RecordError("record checksum mismatch")
	ClientNotRegistered      = NotFoundError("client not registered")
	ConfigurationInvalid     = InvalidError("configuration is invalid")
	DataBufferAlreadyOwned   = ProcessError("data buffer already owned")
	DataBufferNotOwned       = ProcessError("data buffer not owned")
	DeviceBusy               = ProcessError("flash device busy")
	EraseFailed              = ProcessError("flash erase failed")
	FlashFull                = ProcessError("flash is full")
	InvalidAddress           = InvalidError("invalid flash address")
	InvalidBacking           = InvalidError("invalid flash backing")
	InvalidHashKey           = InvalidError("invalid hash key")
	InvalidIpAddress         = InvalidError("invalid IP address")
	InvalidKeyLength         = LengthError("invalid key length")
	InvalidPageIndex         = InvalidError("invalid page index")
	InvalidPageSize          = LengthError("invalid page size")
	InvalidRegion            = InvalidError("invalid region")
	InvalidValueLength       = LengthError("invalid value length")
	KeyFileExists            = ExistsError("key file already exists")
	KeyNotFound              = NotFoundError("key not found")
	MissingParameters        = InvalidError("missing parameters")
	NotInitialised           = NotFoundError("not initialised")
	ObjectTooLarge           = LengthError("object too large for region")
	OperationInProgress      = ProcessError("operation in progress")
	OperationNotInProgress   = ProcessError("no operation in progress")
	RateLimiting             = InvalidError("rate limiting")
	ReadFailed               = ProcessError("flash read failed")
	RequestTimeout           = ProcessError("request timed out")
	StoreBusy                = ProcessError("store busy")
	StoreUnavailable         = ProcessError("store unavailable")
	UnexpectedCompletion     = ProcessError("unexpected flash completion")
	UnsupportedOperation     = InvalidError("unsupported operation")
	WriteCrossesPageBoundary = InvalidError("write crosses page boundary")
	WriteFailed              = ProcessError("flash write failed")
	WrongDatabaseVersion     = RecordError("wrong database version")
	WrongNumberOfRegions     = InvalidError("wrong number of regions")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e LengthError) Error() string   { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }
func (e RecordError) Error() string   { return string(e) }

// determine the class of an error
func IsErrExists(e error) bool   { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool  { _, ok := e.(InvalidError); return ok }
func IsErrLength(e error) bool   { _, ok := e.(LengthError); return ok }
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool  { _, ok := e.(ProcessError); return ok }
func IsErrRecord(e error) bool   { _, ok := e.(RecordError); return ok }
