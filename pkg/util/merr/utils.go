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
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Code 返回给定错误对应的错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	cause := errors.Cause(err)
	switch specificErr := cause.(type) {
	case modelError:
		return specificErr.code()

	default:
		if errors.Is(specificErr, context.Canceled) {
			return CanceledCode
		} else if errors.Is(specificErr, context.DeadlineExceeded) {
			return TimeoutCode
		} else {
			return errUnexpected.code()
		}
	}
}

func IsRetryableErr(err error) bool {
	if err, ok := err.(modelError); ok {
		return err.retriable
	}

	return false
}

func IsCanceledOrTimeout(err error) bool {
	return errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
}

// GetErrorType 返回错误的类别（系统错误 / 输入错误）。
func GetErrorType(err error) ErrorType {
	cause := errors.Cause(err)
	if e, ok := cause.(modelError); ok {
		return e.errType
	}
	return SystemError
}

type errorField struct {
	name  string
	value any
}

func value(name string, v any) errorField {
	return errorField{name: name, value: v}
}

// wrapFields 将字段列表拼接到叶子错误的消息中。
// 输出形如：input file not found[path=a.bin]。
func wrapFields(err modelError, fields ...errorField) error {
	sb := &strings.Builder{}
	sb.WriteString(err.msg)
	if len(fields) > 0 {
		sb.WriteString("[")
		for i, field := range fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s=%v", field.name, field.value))
		}
		sb.WriteString("]")
	}
	return errors.Wrap(err, sb.String())
}

func appendMsg(err error, msg []string) error {
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// IO 相关。

func WrapErrInputNotFound(path string, msg ...string) error {
	return appendMsg(wrapFields(ErrInputNotFound, value("path", path)), msg)
}

func WrapErrIoFailed(path string, err error, msg ...string) error {
	if err == nil {
		return appendMsg(wrapFields(ErrIoFailed, value("path", path)), msg)
	}
	return appendMsg(errors.Wrapf(errors.Mark(err, ErrIoFailed), "path=%s", path), msg)
}

// 载体相关。

func WrapErrCarrierInvalid(reason string, msg ...string) error {
	return appendMsg(wrapFields(ErrCarrierInvalid, value("reason", reason)), msg)
}

func WrapErrChunkNotFound(key string, msg ...string) error {
	return appendMsg(wrapFields(ErrChunkNotFound, value("key", key)), msg)
}

// 帧相关。

func WrapErrFrameHeaderInvalid(reason string, msg ...string) error {
	return appendMsg(wrapFields(ErrFrameHeaderInvalid, value("reason", reason)), msg)
}

func WrapErrSizeMismatch(expected, actual int, msg ...string) error {
	return appendMsg(wrapFields(ErrSizeMismatch,
		value("expected", expected),
		value("actual", actual)), msg)
}

// 编解码原语相关。

func WrapErrTextMalformed(err error, msg ...string) error {
	if err == nil {
		return appendMsg(wrapFields(ErrTextMalformed), msg)
	}
	return appendMsg(errors.Mark(err, ErrTextMalformed), msg)
}

func WrapErrDataCorrupted(err error, msg ...string) error {
	if err == nil {
		return appendMsg(wrapFields(ErrDataCorrupted), msg)
	}
	return appendMsg(errors.Mark(err, ErrDataCorrupted), msg)
}

func WrapErrCompressFailed(err error, msg ...string) error {
	if err == nil {
		return appendMsg(wrapFields(ErrCompressFailed), msg)
	}
	return appendMsg(errors.Mark(err, ErrCompressFailed), msg)
}

// 参数相关。

func WrapErrParameterInvalid[T any](expected, actual T, msg ...string) error {
	return appendMsg(wrapFields(ErrParameterInvalid,
		value("expected", expected),
		value("actual", actual)), msg)
}

func WrapErrParameterInvalidMsg(format string, args ...any) error {
	return errors.Wrapf(ErrParameterInvalid, format, args...)
}

func WrapErrParameterMissing(param string, msg ...string) error {
	return appendMsg(wrapFields(ErrParameterMissing, value("param", param)), msg)
}

func WrapErrOperationNotSupported(op string, msg ...string) error {
	return appendMsg(wrapFields(ErrOperationNotSupported, value("operation", op)), msg)
}
