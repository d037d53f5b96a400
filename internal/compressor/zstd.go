package compressor

import (
	"github.com/klauspost/compress/zstd"

	"github.com/lk2023060901/modelpng-go/pkg/util/hardware"
	"github.com/lk2023060901/modelpng-go/pkg/util/merr"
)

// ZstdCompressor 基于 github.com/klauspost/compress/zstd 的压缩实现。
//
// 它持有独立的 encoder/decoder 实例：
//   - 不使用全局单例，避免不同调用方之间的隐式耦合。
//   - 由调用方自行决定实例的生命周期与复用策略。
//
// 注意：zstd 与参考实现的 zlib 格式不兼容，
// 编码端与解码端必须通过配置约定同一算法（同 chunk key 的约定方式）。
type ZstdCompressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// 编译期断言：确保 ZstdCompressor 实现了 Compressor 接口。
var _ Compressor = (*ZstdCompressor)(nil)

// NewZstdCompressor 创建一个 ZstdCompressor，默认并发度为主机 CPU 核心数。
func NewZstdCompressor() (*ZstdCompressor, error) {
	return NewZstdCompressorWithConcurrency(0)
}

// NewZstdCompressorWithConcurrency 创建一个 ZstdCompressor，并允许显式指定 zstd 的并发数。
//
// 参数说明：
//   - concurrency <= 0：使用主机 CPU 核心数（hardware.GetCPUNum()）。
//   - concurrency > 0 ：使用指定并发度。
func NewZstdCompressorWithConcurrency(concurrency int) (*ZstdCompressor, error) {
	if concurrency <= 0 {
		concurrency = hardware.GetCPUNum()
	}

	opts := []zstd.EOption{
		zstd.WithZeroFrames(true),
		zstd.WithEncoderLevel(zstd.SpeedBestCompression),
		zstd.WithEncoderConcurrency(concurrency),
	}

	enc, err := zstd.NewWriter(nil, opts...)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &ZstdCompressor{
		enc: enc,
		dec: dec,
	}, nil
}

// Compress 实现 Compressor 接口。
func (c *ZstdCompressor) Compress(src []byte) ([]byte, error) {
	if c == nil || c.enc == nil {
		return nil, merr.WrapErrCompressFailed(zstd.ErrEncoderClosed)
	}

	return c.enc.EncodeAll(src, nil), nil
}

// Decompress 实现 Compressor 接口。
func (c *ZstdCompressor) Decompress(src []byte) ([]byte, error) {
	if c == nil || c.dec == nil {
		return nil, merr.WrapErrDataCorrupted(zstd.ErrDecoderClosed)
	}
	plain, err := c.dec.DecodeAll(src, nil)
	if err != nil {
		return nil, merr.WrapErrDataCorrupted(err)
	}
	return plain, nil
}

func (c *ZstdCompressor) Name() string { return "zstd" }

// Close 释放内部 encoder/decoder 持有的资源。
//
// 调用方可在不再需要该压缩器时显式关闭；再次使用已关闭实例将返回错误。
func (c *ZstdCompressor) Close() {
	if c == nil {
		return
	}
	if c.enc != nil {
		_ = c.enc.Close()
		c.enc = nil
	}
	if c.dec != nil {
		c.dec.Close()
		c.dec = nil
	}
}
