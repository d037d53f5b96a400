package carrier

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/png"
	"io"

	"github.com/lk2023060901/modelpng-go/pkg/util/merr"
)

// PNG 容器常量。
//
// 标准库的 image/png 不暴露 tEXt 等辅助块，
// 因此文本块在标准编码产物上按 PNG 块格式直接拼接/扫描
// （块布局：4 字节大端长度 + 4 字节类型 + 数据 + 4 字节 CRC32）。
const (
	pngSignature = "\x89PNG\r\n\x1a\n"

	chunkTypeTEXt = "tEXt"
	chunkTypeIEND = "IEND"

	// IEND 块固定为 12 字节：长度(0) + 类型 + CRC。
	iendChunkSize = 12

	// tEXt 键长度上限，见 PNG 规范 11.3.4.3。
	maxTextKeyLen = 79
)

// EncodePNG 将像素图与文本块写入 w。
//
// entries 按序写入；同名键后写覆盖先写（保留首次出现的位置）。
// 键须为 1~79 字节且不含 NUL，值不得含 NUL。
func EncodePNG(w io.Writer, img image.Image, entries []TextEntry) error {
	entries, err := dedupeEntries(entries)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return merr.WrapErrCarrierInvalid(err.Error(), "encode png")
	}

	raw := buf.Bytes()
	if len(raw) < len(pngSignature)+iendChunkSize {
		return merr.WrapErrCarrierInvalid("encoded png too short")
	}

	// 标准库产物以 IEND 结尾，文本块插在 IEND 之前。
	body := raw[:len(raw)-iendChunkSize]
	trailer := raw[len(raw)-iendChunkSize:]

	if _, err := w.Write(body); err != nil {
		return merr.WrapErrIoFailed("carrier", err)
	}
	for _, entry := range entries {
		if err := writeTextChunk(w, entry); err != nil {
			return err
		}
	}
	if _, err := w.Write(trailer); err != nil {
		return merr.WrapErrIoFailed("carrier", err)
	}
	return nil
}

// DecodePNG 从 data 中解出像素图与全部 tEXt 文本块。
//
// 文本块重复键时后写覆盖先写，与 EncodePNG 的约定一致。
// 非 PNG 数据或块结构损坏时返回 merr.ErrCarrierInvalid。
func DecodePNG(data []byte) (image.Image, map[string]string, error) {
	text, err := scanTextChunks(data)
	if err != nil {
		return nil, nil, err
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, merr.WrapErrCarrierInvalid(err.Error(), "decode png")
	}
	return img, text, nil
}

func dedupeEntries(entries []TextEntry) ([]TextEntry, error) {
	out := make([]TextEntry, 0, len(entries))
	index := make(map[string]int, len(entries))

	for _, entry := range entries {
		if err := validateEntry(entry); err != nil {
			return nil, err
		}
		if i, ok := index[entry.Key]; ok {
			out[i].Value = entry.Value
			continue
		}
		index[entry.Key] = len(out)
		out = append(out, entry)
	}
	return out, nil
}

func validateEntry(entry TextEntry) error {
	if len(entry.Key) == 0 || len(entry.Key) > maxTextKeyLen {
		return merr.WrapErrParameterInvalidMsg("text key %q length must be 1~%d", entry.Key, maxTextKeyLen)
	}
	for i := 0; i < len(entry.Key); i++ {
		if entry.Key[i] == 0 {
			return merr.WrapErrParameterInvalidMsg("text key contains NUL")
		}
	}
	for i := 0; i < len(entry.Value); i++ {
		if entry.Value[i] == 0 {
			return merr.WrapErrParameterInvalidMsg("text value of key %q contains NUL", entry.Key)
		}
	}
	return nil
}

func writeTextChunk(w io.Writer, entry TextEntry) error {
	payload := make([]byte, 0, len(entry.Key)+1+len(entry.Value))
	payload = append(payload, entry.Key...)
	payload = append(payload, 0)
	payload = append(payload, entry.Value...)

	var header [8]byte
	binary.BigEndian.PutUint32(header[:4], uint32(len(payload)))
	copy(header[4:], chunkTypeTEXt)

	crc := crc32.NewIEEE()
	crc.Write(header[4:])
	crc.Write(payload)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())

	if _, err := w.Write(header[:]); err != nil {
		return merr.WrapErrIoFailed("carrier", err)
	}
	if _, err := w.Write(payload); err != nil {
		return merr.WrapErrIoFailed("carrier", err)
	}
	if _, err := w.Write(sum[:]); err != nil {
		return merr.WrapErrIoFailed("carrier", err)
	}
	return nil
}

// scanTextChunks 按块遍历 PNG 数据，收集全部 tEXt 键值对。
// 只校验 tEXt 块自身的 CRC，其余块交由 png.Decode 处理。
func scanTextChunks(data []byte) (map[string]string, error) {
	if len(data) < len(pngSignature) || string(data[:len(pngSignature)]) != pngSignature {
		return nil, merr.WrapErrCarrierInvalid("bad png signature")
	}

	text := make(map[string]string)
	off := len(pngSignature)

	for off+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[off : off+4]))
		ctype := string(data[off+4 : off+8])
		next := off + 8 + length + 4
		if length < 0 || next > len(data) {
			return nil, merr.WrapErrCarrierInvalid("truncated chunk", "scan "+ctype)
		}

		if ctype == chunkTypeTEXt {
			payload := data[off+8 : off+8+length]

			crc := crc32.NewIEEE()
			crc.Write(data[off+4 : off+8])
			crc.Write(payload)
			if crc.Sum32() != binary.BigEndian.Uint32(data[off+8+length:next]) {
				return nil, merr.WrapErrCarrierInvalid("tEXt crc mismatch")
			}

			sep := bytes.IndexByte(payload, 0)
			if sep <= 0 {
				return nil, merr.WrapErrCarrierInvalid("tEXt without key separator")
			}
			// 后写覆盖先写。
			text[string(payload[:sep])] = string(payload[sep+1:])
		}

		if ctype == chunkTypeIEND {
			return text, nil
		}
		off = next
	}

	return nil, merr.WrapErrCarrierInvalid("missing IEND chunk")
}

// FlattenRGB 将图片按行主序展开为 RGB 字节流（每像素 3 字节）。
// 透明度通道被丢弃，与编码端 3 字节/像素的打包约定对齐。
func FlattenRGB(img image.Image) []byte {
	bounds := img.Bounds()
	out := make([]byte, 0, bounds.Dx()*bounds.Dy()*3)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			out = append(out, uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}
	return out
}

// ImageFromRGB 将行主序 RGB 字节流（每像素 3 字节）打包为不透明图片。
// len(data) 必须等于 width*height*3。
func ImageFromRGB(data []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, merr.WrapErrParameterInvalidMsg("invalid image size %dx%d", width, height)
	}
	if len(data) != width*height*3 {
		return nil, merr.WrapErrParameterInvalid(width*height*3, len(data), "rgb data length")
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		img.Pix[i*4+0] = data[i*3+0]
		img.Pix[i*4+1] = data[i*3+1]
		img.Pix[i*4+2] = data[i*3+2]
		img.Pix[i*4+3] = 0xff
	}
	return img, nil
}
