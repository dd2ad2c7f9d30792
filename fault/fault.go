// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError

// decode errors - rejecting a malformed or non-canonical encoding
// keep in alphabetic order
var (
	ErrCountMismatch      = InvalidError("vector count does not match remaining bytes")
	ErrLengthMismatch     = InvalidError("declared length exceeds remaining bytes")
	ErrOffsetNotMonotonic = InvalidError("offset table is not monotonic")
	ErrSizeMismatch       = InvalidError("fixed size item is truncated")
	ErrTotalSizeMismatch  = InvalidError("total size header does not match byte length")
	ErrTrailingBytes      = InvalidError("unconsumed bytes after value")
	ErrTruncatedBody      = InvalidError("value body is truncated")
	ErrUnknownFlag        = InvalidError("otx flag is not recognised")
	ErrUnknownVariant     = InvalidError("union tag is not recognised")
)

// protocol/merge errors - rejecting a contribution, merge state unchanged
// keep in alphabetic order
var (
	ErrCheckpointMismatch     = ProcessError("contribution checkpoint does not match running totals")
	ErrConflictingSeal        = ExistsError("different seals for one script hash")
	ErrDuplicateSeal          = ExistsError("seal already present for script hash")
	ErrMissingScriptInfo      = NotFoundError("no script info for referenced script info hash")
	ErrPayloadLengthMismatch  = ProcessError("declared dynamic counts do not match payload")
	ErrSegmentCountRegression = ProcessError("running totals would decrease")
)

// state and lifecycle errors
var (
	ErrAlreadyInitialised    = ExistsError("already initialised")
	ErrInvalidLoggerChannel  = InvalidError("invalid logger channel")
	ErrInvalidState          = ProcessError("operation not valid in current merge state")
	ErrNotInitialised        = InvalidError("not initialised")
	ErrOutputIndexOutOfRange = InvalidError("change output does not index a payload output")
	ErrResolvedInputsLength  = InvalidError("resolved inputs do not pair with payload inputs")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }

// determine the class of an error
func IsErrExists(e error) bool   { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool  { _, ok := e.(InvalidError); return ok }
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool  { _, ok := e.(ProcessError); return ok }
