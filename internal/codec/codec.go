// Package codec 实现“模型文件 <-> PNG 载体”的两种互换编码策略。
//
// 两种策略共享同一契约（Encode：载荷 -> 图片；Decode：图片 -> 载荷），
// 但载体机制不同：
//   - chunk：载荷压缩转写后存入 1x1 载体图的 tEXt 文本块；
//   - pixel：载荷连同文本头直接作为像素字节写入网格图。
//
// 两者都是无状态的纯变换，同一次 Encode/Decode 内保证逐字节还原。
package codec

import (
	"io"

	"github.com/lk2023060901/modelpng-go/internal/compressor"
	"github.com/lk2023060901/modelpng-go/internal/transcoder"
	"github.com/lk2023060901/modelpng-go/pkg/util/merr"
)

// Method 表示编码方法。
type Method string

const (
	MethodChunk Method = "chunk"
	MethodPixel Method = "pixel"
)

// ParseMethod 解析方法名，空字符串视为默认方法 chunk。
func ParseMethod(s string) (Method, error) {
	switch s {
	case "", string(MethodChunk):
		return MethodChunk, nil
	case string(MethodPixel):
		return MethodPixel, nil
	default:
		return "", merr.WrapErrParameterInvalid("chunk|pixel", s, "unknown method")
	}
}

// Payload 表示一次编码调用的输入（或一次解码调用的输出）。
//
// Name 仅作为展示标签随载体保存，不参与数据还原；
// Data 为原始文件字节，编码期间不会被修改。
type Payload struct {
	Name string
	Data []byte
}

// Report 描述一次编码/解码的可观测结果，仅用于展示，
// 不属于持久化格式的一部分。
type Report struct {
	Method         Method  `json:"method"`
	Name           string  `json:"name,omitempty"`
	OriginalSize   int     `json:"original_size"`
	CompressedSize int     `json:"compressed_size"`
	Ratio          float64 `json:"ratio,omitempty"`

	// 像素法专用：载体网格尺寸。
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// Codec 抽象了“载荷到 PNG 载体、以及 PNG 载体回到载荷”的完整编解码流程。
//
// Pipeline（写出 Encode）：
//
//	payload --> compressor --> transcoder --> 框架（tEXt 元数据 / 像素帧） --> PNG
//
// Pipeline（读入 Decode）：
//
//	PNG --> 提取框架区域 --> transcoder 还原 --> compressor 解压 --> payload
type Codec interface {
	// Method 返回编码方法名。
	Method() Method

	// Encode 将载荷编码为 PNG 载体并写入 w。
	Encode(w io.Writer, payload Payload) (*Report, error)

	// Decode 从 r 中读取 PNG 载体并还原出载荷。
	Decode(r io.Reader) (Payload, *Report, error)
}

// DefaultChunkKey 为 chunk 法数据块的默认键名。
//
// 键名是编码端与解码端的配置约定，双方必须一致才能互通，
// 不是只能取固定值的常量。
const DefaultChunkKey = "mOdL"

// Options 用于构造 Codec 的依赖注入参数。
type Options struct {
	Compressor compressor.Compressor // 允许为 nil（内部会用 zlib）
	Transcoder transcoder.Transcoder // 允许为 nil（内部会用 base64）

	// ChunkKey 为 chunk 法的数据块键名，空字符串时使用 DefaultChunkKey。
	// 像素法忽略该字段。
	ChunkKey string
}

func (opts *Options) withDefaults() Options {
	out := *opts
	if out.Compressor == nil {
		out.Compressor = compressor.NewZlibCompressor()
	}
	if out.Transcoder == nil {
		out.Transcoder = transcoder.NewBase64Transcoder()
	}
	if out.ChunkKey == "" {
		out.ChunkKey = DefaultChunkKey
	}
	return out
}

// New 创建指定方法的 Codec。
func New(method Method, opts Options) (Codec, error) {
	switch method {
	case MethodChunk:
		return NewChunkCodec(opts)
	case MethodPixel:
		return NewPixelCodec(opts)
	default:
		return nil, merr.WrapErrParameterInvalid("chunk|pixel", string(method), "unknown method")
	}
}
