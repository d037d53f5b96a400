package codec

import (
	"image"
	"image/color"
	"io"
	"strconv"

	"github.com/lk2023060901/modelpng-go/internal/carrier"
	"github.com/lk2023060901/modelpng-go/internal/compressor"
	"github.com/lk2023060901/modelpng-go/internal/transcoder"
	"github.com/lk2023060901/modelpng-go/pkg/util/merr"
)

// chunk 法元数据键的派生后缀。
// 数据键保存转写后的压缩数据，其余三个为展示用信息键。
const (
	suffixName           = "_name"
	suffixSize           = "_size"
	suffixCompressedSize = "_compressed_size"
)

// ChunkCodec 将载荷作为 tEXt 文本块元数据附着在 1x1 载体图上。
//
// 载体像素内容无意义（固定白色），读取端接受任意有效 RGB 图片；
// 数据完全由文本块承载，体积上限只受 PNG 块长度约束。
type ChunkCodec struct {
	compressor compressor.Compressor
	transcoder transcoder.Transcoder
	chunkKey   string
}

// 编译期断言：确保 ChunkCodec 实现了 Codec 接口。
var _ Codec = (*ChunkCodec)(nil)

// NewChunkCodec 创建一个 chunk 法 Codec。
func NewChunkCodec(opts Options) (*ChunkCodec, error) {
	o := opts.withDefaults()

	// 最长派生键为 chunkKey + "_compressed_size"，整体不得超出 tEXt 键长上限。
	if len(o.ChunkKey)+len(suffixCompressedSize) > 79 {
		return nil, merr.WrapErrParameterInvalidMsg("chunk key %q too long", o.ChunkKey)
	}

	return &ChunkCodec{
		compressor: o.Compressor,
		transcoder: o.Transcoder,
		chunkKey:   o.ChunkKey,
	}, nil
}

// Method 实现 Codec 接口。
func (c *ChunkCodec) Method() Method { return MethodChunk }

// Encode 实现 Codec 接口。
//
// 流程：压缩 -> 转写 -> 构造 1x1 白色载体 -> 附着数据键与三个信息键。
// 压缩结果为空视为非法输入，在计算压缩比之前直接拒绝。
func (c *ChunkCodec) Encode(w io.Writer, payload Payload) (*Report, error) {
	compressed, err := c.compressor.Compress(payload.Data)
	if err != nil {
		return nil, err
	}
	if len(compressed) == 0 {
		return nil, merr.WrapErrParameterInvalidMsg("zero-length compressed data")
	}

	text := c.transcoder.Encode(compressed)

	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.White)

	entries := []carrier.TextEntry{
		{Key: c.chunkKey, Value: string(text)},
		{Key: c.chunkKey + suffixName, Value: payload.Name},
		{Key: c.chunkKey + suffixSize, Value: strconv.Itoa(len(payload.Data))},
		{Key: c.chunkKey + suffixCompressedSize, Value: strconv.Itoa(len(compressed))},
	}

	if err := carrier.EncodePNG(w, img, entries); err != nil {
		return nil, err
	}

	return &Report{
		Method:         MethodChunk,
		Name:           payload.Name,
		OriginalSize:   len(payload.Data),
		CompressedSize: len(compressed),
		Ratio:          float64(len(payload.Data)) / float64(len(compressed)),
	}, nil
}

// Decode 实现 Codec 接口。
//
// 数据键缺失返回 merr.ErrChunkNotFound。
// 三个信息键仅在存在时透出到 Report，不参与数据校验，缺失不算错误。
func (c *ChunkCodec) Decode(r io.Reader) (Payload, *Report, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Payload{}, nil, merr.WrapErrIoFailed("carrier", err)
	}

	_, text, err := carrier.DecodePNG(data)
	if err != nil {
		return Payload{}, nil, err
	}

	encoded, ok := text[c.chunkKey]
	if !ok {
		return Payload{}, nil, merr.WrapErrChunkNotFound(c.chunkKey)
	}

	compressed, err := c.transcoder.Decode([]byte(encoded))
	if err != nil {
		return Payload{}, nil, err
	}
	raw, err := c.compressor.Decompress(compressed)
	if err != nil {
		return Payload{}, nil, err
	}

	report := &Report{
		Method:         MethodChunk,
		OriginalSize:   len(raw),
		CompressedSize: len(compressed),
	}
	if name, ok := text[c.chunkKey+suffixName]; ok {
		report.Name = name
	}
	if len(compressed) > 0 {
		report.Ratio = float64(len(raw)) / float64(len(compressed))
	}

	return Payload{Name: report.Name, Data: raw}, report, nil
}
