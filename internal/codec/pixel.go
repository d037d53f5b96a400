package codec

import (
	"bytes"
	"io"

	"github.com/lk2023060901/modelpng-go/internal/carrier"
	"github.com/lk2023060901/modelpng-go/internal/compressor"
	"github.com/lk2023060901/modelpng-go/internal/transcoder"
	"github.com/lk2023060901/modelpng-go/pkg/util/merr"
)

// PixelCodec 将帧（文本头 + 转写数据 + 填充）直接写入像素字节。
//
// 与 chunk 法相比对容器处理更鲁棒（任何保留像素的转存都不破坏数据），
// 代价是载体体积更大；产出的图片不以可视为目的。
type PixelCodec struct {
	compressor compressor.Compressor
	transcoder transcoder.Transcoder
}

// 编译期断言：确保 PixelCodec 实现了 Codec 接口。
var _ Codec = (*PixelCodec)(nil)

// NewPixelCodec 创建一个像素法 Codec。
func NewPixelCodec(opts Options) (*PixelCodec, error) {
	o := opts.withDefaults()
	return &PixelCodec{
		compressor: o.Compressor,
		transcoder: o.Transcoder,
	}, nil
}

// Method 实现 Codec 接口。
func (c *PixelCodec) Method() Method { return MethodPixel }

// Encode 实现 Codec 接口。
//
// 流程：压缩 -> 转写 -> 拼接帧头 -> 计算最小近方形网格 ->
// NUL 补齐到网格容量 -> 按行主序打包为 RGB 像素。
//
// 空载荷也合法：帧头非空，网格恒不为零。
func (c *PixelCodec) Encode(w io.Writer, payload Payload) (*Report, error) {
	if err := validateFrameName(payload.Name); err != nil {
		return nil, err
	}

	compressed, err := c.compressor.Compress(payload.Data)
	if err != nil {
		return nil, err
	}
	text := c.transcoder.Encode(compressed)

	header := buildFrameHeader(payload.Name, len(payload.Data), len(compressed))
	full := make([]byte, 0, len(header)+len(text))
	full = append(full, header...)
	full = append(full, text...)

	width, height := gridSize(len(full))

	frame := make([]byte, width*height*BytesPerPixel)
	copy(frame, full)

	img, err := carrier.ImageFromRGB(frame, width, height)
	if err != nil {
		return nil, err
	}
	if err := carrier.EncodePNG(w, img, nil); err != nil {
		return nil, err
	}

	report := &Report{
		Method:         MethodPixel,
		Name:           payload.Name,
		OriginalSize:   len(payload.Data),
		CompressedSize: len(compressed),
		Width:          width,
		Height:         height,
	}
	if len(compressed) > 0 {
		report.Ratio = float64(len(payload.Data)) / float64(len(compressed))
	}
	return report, nil
}

// Decode 实现 Codec 接口。
//
// 流程：展平像素 -> 单次扫描切出帧头 -> 按帧头声明的压缩大小
// 取出转写文本区 -> 剥离尾部 NUL 填充 -> 还原并解压。
//
// 解码端的完整性校验只有长度：
//   - 剥离填充后的文本长度必须恰好等于声明大小的转写长度，
//     否则返回 merr.ErrTextMalformed（帧头声明与实际内容不符）；
//   - 解压结果长度必须等于帧头声明的原始大小，
//     否则返回 merr.ErrSizeMismatch。
func (c *PixelCodec) Decode(r io.Reader) (Payload, *Report, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Payload{}, nil, merr.WrapErrIoFailed("carrier", err)
	}

	img, _, err := carrier.DecodePNG(data)
	if err != nil {
		return Payload{}, nil, err
	}
	flat := carrier.FlattenRGB(img)

	header, dataOffset, err := parseFrameHeader(flat)
	if err != nil {
		return Payload{}, nil, err
	}

	textLen := c.transcoder.EncodedLen(header.compressedSize)
	end := dataOffset + textLen
	if end > len(flat) {
		end = len(flat)
	}
	text := bytes.TrimRight(flat[dataOffset:end], "\x00")
	if len(text) != textLen {
		return Payload{}, nil, merr.WrapErrTextMalformed(nil,
			"transcoded data length disagrees with frame header")
	}

	compressed, err := c.transcoder.Decode(text)
	if err != nil {
		return Payload{}, nil, err
	}
	raw, err := c.compressor.Decompress(compressed)
	if err != nil {
		return Payload{}, nil, err
	}
	if len(raw) != header.originalSize {
		return Payload{}, nil, merr.WrapErrSizeMismatch(header.originalSize, len(raw))
	}

	bounds := img.Bounds()
	report := &Report{
		Method:         MethodPixel,
		Name:           header.name,
		OriginalSize:   header.originalSize,
		CompressedSize: header.compressedSize,
		Width:          bounds.Dx(),
		Height:         bounds.Dy(),
	}
	if len(compressed) > 0 {
		report.Ratio = float64(len(raw)) / float64(len(compressed))
	}

	return Payload{Name: header.name, Data: raw}, report, nil
}
