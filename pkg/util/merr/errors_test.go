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
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrChunkNotFound("mOdL")
	errors.Wrap(err, "failed to decode carrier")
	s.ErrorIs(err, ErrChunkNotFound)
	s.Equal(Code(ErrChunkNotFound), Code(err))
	s.Equal(TimeoutCode, Code(context.DeadlineExceeded))
	s.Equal(CanceledCode, Code(context.Canceled))
	s.Equal(errUnexpected.errCode, Code(errUnexpected))

	sameCodeErr := newModelError("new error", ErrChunkNotFound.errCode, false)
	s.True(sameCodeErr.Is(ErrChunkNotFound))
}

func (s *ErrSuite) TestErrorType() {
	s.Equal(InputError, GetErrorType(WrapErrInputNotFound("model.bin")))
	s.Equal(InputError, GetErrorType(WrapErrSizeMismatch(10, 7)))
	s.Equal(SystemError, GetErrorType(WrapErrIoFailed("out.png", nil)))
	s.Equal(SystemError, GetErrorType(errors.New("unrelated")))
}

func (s *ErrSuite) TestWrap() {
	// IO 相关错误。
	s.ErrorIs(WrapErrInputNotFound("model.bin", "encode"), ErrInputNotFound)
	s.ErrorIs(WrapErrIoFailed("out.png", errors.New("disk full")), ErrIoFailed)

	// 载体相关错误。
	s.ErrorIs(WrapErrCarrierInvalid("bad signature"), ErrCarrierInvalid)
	s.ErrorIs(WrapErrChunkNotFound("mOdL", "decode"), ErrChunkNotFound)

	// 帧相关错误。
	s.ErrorIs(WrapErrFrameHeaderInvalid("tag mismatch"), ErrFrameHeaderInvalid)
	s.ErrorIs(WrapErrSizeMismatch(1024, 512), ErrSizeMismatch)

	// 编解码原语相关错误。
	s.ErrorIs(WrapErrTextMalformed(errors.New("illegal byte")), ErrTextMalformed)
	s.ErrorIs(WrapErrDataCorrupted(errors.New("bad checksum")), ErrDataCorrupted)
	s.ErrorIs(WrapErrCompressFailed(errors.New("mock")), ErrCompressFailed)

	// 参数相关错误。
	s.ErrorIs(WrapErrParameterInvalid("chunk", "pixelated"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidMsg("name %s contains ':'", "a:b"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterMissing("chunk-key"), ErrParameterMissing)
	s.ErrorIs(WrapErrOperationNotSupported("transcode"), ErrOperationNotSupported)
}

func (s *ErrSuite) TestCombine() {
	var (
		errFirst  = errors.New("first")
		errSecond = errors.New("second")
		errThird  = errors.New("third")
	)

	err := Combine(errFirst, errSecond)
	s.True(errors.Is(err, errFirst))
	s.True(errors.Is(err, errSecond))
	s.False(errors.Is(err, errThird))

	s.Equal("first: second", err.Error())
}

func (s *ErrSuite) TestCombineWithNil() {
	err := errors.New("non-nil")

	s.Error(Combine(nil, err))
	s.Error(Combine(err, nil))
	s.NoError(Combine(nil, nil))
}

func (s *ErrSuite) TestIsRetryable() {
	s.False(IsRetryableErr(ErrChunkNotFound))
	s.False(IsRetryableErr(errors.New("not a model error")))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
