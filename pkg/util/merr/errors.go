// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	CanceledCode int32 = 10000
	TimeoutCode  int32 = 10001
)

type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// IO 相关错误。
	ErrInputNotFound = newModelError("input file not found", 100, false, WithErrorType(InputError))
	ErrIoFailed      = newModelError("IO failed", 101, false)

	// 载体（PNG）相关错误。
	ErrCarrierInvalid = newModelError("invalid carrier image", 200, false, WithErrorType(InputError))
	ErrChunkNotFound  = newModelError("model chunk not found", 201, false, WithErrorType(InputError))

	// 帧（像素法）相关错误。
	ErrFrameHeaderInvalid = newModelError("invalid frame header", 300, false, WithErrorType(InputError))
	ErrSizeMismatch       = newModelError("decoded size mismatch", 301, false, WithErrorType(InputError))

	// 编解码原语相关错误。
	ErrTextMalformed  = newModelError("malformed radix-64 text", 400, false, WithErrorType(InputError))
	ErrDataCorrupted  = newModelError("corrupt compressed data", 401, false, WithErrorType(InputError))
	ErrCompressFailed = newModelError("compress failed", 402, false)

	// 参数相关错误。
	ErrParameterInvalid = newModelError("invalid parameter", 1100, false, WithErrorType(InputError))
	ErrParameterMissing = newModelError("missing parameter", 1101, false, WithErrorType(InputError))

	// General
	ErrOperationNotSupported = newModelError("unsupported operation", 3000, false)

	errUnexpected = newModelError("unexpected error", 3001, false)
)

type errorOption func(*modelError)

func WithDetail(detail string) errorOption {
	return func(err *modelError) {
		err.detail = detail
	}
}

func WithErrorType(etype ErrorType) errorOption {
	return func(err *modelError) {
		err.errType = etype
	}
}

type modelError struct {
	msg       string
	detail    string
	retriable bool
	errCode   int32
	errType   ErrorType
}

func newModelError(msg string, code int32, retriable bool, options ...errorOption) modelError {
	err := modelError{
		msg:       msg,
		detail:    msg,
		retriable: retriable,
		errCode:   code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e modelError) code() int32 {
	return e.errCode
}

func (e modelError) Error() string {
	return e.msg
}

func (e modelError) Detail() string {
	return e.detail
}

func (e modelError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(modelError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// To make merr work for multi errors,
	// we need cause of multi errors, which defined as the last error
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
