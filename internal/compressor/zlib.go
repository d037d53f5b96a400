package compressor

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/lk2023060901/modelpng-go/pkg/util/merr"
)

// ZlibCompressor 基于 github.com/klauspost/compress/zlib 的压缩实现。
//
// 默认使用最高压缩等级（BestCompression）：
//   - 载体 PNG 的体积直接取决于压缩后大小，时间成本是一次性的；
//   - 与参考实现（zlib level=9）的格式兼容，双方可互相解码。
type ZlibCompressor struct {
	level int
}

// 编译期断言：确保 ZlibCompressor 实现了 Compressor 接口。
var _ Compressor = (*ZlibCompressor)(nil)

// NewZlibCompressor 创建一个最高压缩等级的 ZlibCompressor。
func NewZlibCompressor() *ZlibCompressor {
	return &ZlibCompressor{
		level: zlib.BestCompression,
	}
}

// NewZlibCompressorWithLevel 创建指定压缩等级的 ZlibCompressor。
// level 超出合法区间时由底层实现返回错误。
func NewZlibCompressorWithLevel(level int) *ZlibCompressor {
	return &ZlibCompressor{
		level: level,
	}
}

// Compress 实现 Compressor 接口。
func (c *ZlibCompressor) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer

	w, err := zlib.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, merr.WrapErrCompressFailed(err)
	}
	if _, err := w.Write(src); err != nil {
		w.Close()
		return nil, merr.WrapErrCompressFailed(err)
	}
	if err := w.Close(); err != nil {
		return nil, merr.WrapErrCompressFailed(err)
	}

	return buf.Bytes(), nil
}

// Decompress 实现 Compressor 接口。
func (c *ZlibCompressor) Decompress(src []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, merr.WrapErrDataCorrupted(err)
	}
	defer r.Close()

	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, merr.WrapErrDataCorrupted(err)
	}
	return plain, nil
}

func (c *ZlibCompressor) Name() string { return "zlib" }
