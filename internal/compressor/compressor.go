package compressor

import (
	"github.com/lk2023060901/modelpng-go/pkg/util/merr"
)

// Compressor 抽象了“单次压缩/解压”能力。
//
// 设计目标：
//   - 面向整块载荷压缩（模型文件一次性读入内存），而不是流式场景。
//   - 不做全局单例，调用方按需创建具体实现的实例。
//   - 无损约定：Decompress(Compress(src)) == src 必须逐字节成立。
type Compressor interface {
	// Compress 压缩 src 并返回压缩后的完整数据。
	Compress(src []byte) ([]byte, error)

	// Decompress 解压 src 并返回原始数据。
	//
	// 行为约定与 Compress 对称：src 必须是 Compress 的输出，
	// 否则返回 merr.ErrDataCorrupted。
	Decompress(src []byte) ([]byte, error)

	// Name 返回压缩算法名，编码端与解码端必须一致。
	Name() string
}

// NopCompressor 是一个空实现：不做任何压缩/解压，直接返回输入内容。
//
// 适用于：
//   - 已压缩的模型格式（如 gguf 量化文件），避免重复压缩的开销。
//   - 便于在调用侧通过接口注入，在不改业务逻辑的前提下关闭压缩。
type NopCompressor struct{}

func (NopCompressor) Compress(src []byte) ([]byte, error) {
	return src, nil
}

func (NopCompressor) Decompress(src []byte) ([]byte, error) {
	return src, nil
}

func (NopCompressor) Name() string { return "none" }

// 编译期断言：确保 NopCompressor 实现了 Compressor 接口。
var _ Compressor = NopCompressor{}

// New 根据算法名创建 Compressor。
// 空字符串视为默认算法 zlib。
func New(name string) (Compressor, error) {
	switch name {
	case "", "zlib":
		return NewZlibCompressor(), nil
	case "zstd":
		return NewZstdCompressor()
	case "none", "nop":
		return NopCompressor{}, nil
	default:
		return nil, merr.WrapErrParameterInvalid("zlib|zstd|none", name, "unknown compressor")
	}
}
