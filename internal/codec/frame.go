package codec

import (
	"fmt"
	"math"
	"strconv"

	"github.com/lk2023060901/modelpng-go/pkg/util/merr"
)

// 像素法帧格式约定。
//
// 帧布局：HEADER || TRANSCODED_DATA || PADDING。
//   - HEADER 为 ASCII 文本 "MODEL:<name>:<原始大小>:<压缩后大小>:"，
//     共 frameFieldCount 个冒号结尾字段，字段数与顺序是编码端与
//     解码端共享的固定契约；
//   - TRANSCODED_DATA 为压缩数据的 base64 文本；
//   - PADDING 为 NUL 填充，补齐到网格容量 W*H*3。
//
// name 不得包含冒号，否则字段边界产生歧义，编码端直接拒绝。
const (
	FrameTag = "MODEL"

	frameFieldCount = 4
	frameDelimiter  = ':'

	// BytesPerPixel 为 RGB 像素的打包宽度。
	BytesPerPixel = 3
)

type frameHeader struct {
	name           string
	originalSize   int
	compressedSize int
}

func buildFrameHeader(name string, originalSize, compressedSize int) []byte {
	return fmt.Appendf(nil, "%s%c%s%c%d%c%d%c",
		FrameTag, frameDelimiter,
		name, frameDelimiter,
		originalSize, frameDelimiter,
		compressedSize, frameDelimiter)
}

// parseFrameHeader 在一次扫描中切出前 frameFieldCount 个冒号结尾字段，
// 返回解析出的帧头与数据区起始偏移。
//
// 不足 frameFieldCount 个字段、首字段不是帧标签、
// 或大小字段不是非负十进制数时，返回 merr.ErrFrameHeaderInvalid。
func parseFrameHeader(flat []byte) (frameHeader, int, error) {
	var h frameHeader

	fields := make([][]byte, 0, frameFieldCount)
	start := 0
	dataOffset := 0
	for i := 0; i < len(flat) && len(fields) < frameFieldCount; i++ {
		if flat[i] == frameDelimiter {
			fields = append(fields, flat[start:i])
			start = i + 1
			dataOffset = start
		}
	}

	if len(fields) < frameFieldCount {
		return h, 0, merr.WrapErrFrameHeaderInvalid(
			fmt.Sprintf("expect %d fields, got %d", frameFieldCount, len(fields)))
	}
	if string(fields[0]) != FrameTag {
		return h, 0, merr.WrapErrFrameHeaderInvalid("tag mismatch")
	}

	originalSize, err := parseSizeField("original size", fields[2])
	if err != nil {
		return h, 0, err
	}
	compressedSize, err := parseSizeField("compressed size", fields[3])
	if err != nil {
		return h, 0, err
	}
	// 转写文本恒长于压缩数据，合法帧的压缩大小不会超过帧长。
	if compressedSize > len(flat) {
		return h, 0, merr.WrapErrFrameHeaderInvalid(
			fmt.Sprintf("compressed size %d exceeds carrier capacity %d", compressedSize, len(flat)))
	}

	h.name = string(fields[1])
	h.originalSize = originalSize
	h.compressedSize = compressedSize
	return h, dataOffset, nil
}

func parseSizeField(field string, raw []byte) (int, error) {
	n, err := strconv.Atoi(string(raw))
	if err != nil || n < 0 {
		return 0, merr.WrapErrFrameHeaderInvalid(fmt.Sprintf("bad %s field %q", field, raw))
	}
	return n, nil
}

// gridSize 计算能容纳 frameLen 字节的最小近方形网格：
//
//	W = ceil(sqrt(ceil(frameLen/3)))，H = ceil(像素数/W)。
//
// 帧头非空，因此网格至少为 1x1。
func gridSize(frameLen int) (width, height int) {
	pixels := (frameLen + BytesPerPixel - 1) / BytesPerPixel
	if pixels == 0 {
		pixels = 1
	}

	width = int(math.Ceil(math.Sqrt(float64(pixels))))
	height = (pixels + width - 1) / width
	return width, height
}

// validateFrameName 校验像素法帧头中的 name 字段。
// 冒号会破坏字段边界，NUL 会与尾部填充混淆，两者都直接拒绝。
func validateFrameName(name string) error {
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case frameDelimiter:
			return merr.WrapErrParameterInvalidMsg("payload name %q contains %q", name, string(frameDelimiter))
		case 0:
			return merr.WrapErrParameterInvalidMsg("payload name %q contains NUL", name)
		}
	}
	return nil
}
