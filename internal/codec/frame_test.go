package codec

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/modelpng-go/pkg/util/merr"
)

func TestBuildFrameHeader(t *testing.T) {
	header := buildFrameHeader("weights.bin", 1024, 300)
	assert.Equal(t, "MODEL:weights.bin:1024:300:", string(header))

	// 空 name 也是合法字段，帧头保持四个冒号结尾字段。
	header = buildFrameHeader("", 0, 0)
	assert.Equal(t, "MODEL::0:0:", string(header))
}

func TestParseFrameHeader(t *testing.T) {
	frame := append(buildFrameHeader("m.safetensors", 77, 33), "SGVsbG8=\x00\x00"...)

	h, offset, err := parseFrameHeader(frame)
	require.NoError(t, err)
	assert.Equal(t, "m.safetensors", h.name)
	assert.Equal(t, 77, h.originalSize)
	assert.Equal(t, 33, h.compressedSize)
	assert.Equal(t, "SGVsbG8=", string(frame[offset:offset+8]))
}

func TestParseFrameHeaderErrors(t *testing.T) {
	for _, frame := range []string{
		"",                      // 空帧
		"MODEL:name:10",         // 字段不足
		"BADTAG:name:10:5:data", // 标签不匹配
		"MODEL:name:ten:5:data", // 大小字段非数字
		"MODEL:name:-1:5:data",  // 大小字段为负
		"MODEL:name:10:5x:data", // 压缩大小字段混入字母
		"MODEL:w.bin:10:9000000000000000000:AAAA", // 压缩大小声明超过帧长
	} {
		_, _, err := parseFrameHeader([]byte(frame))
		assert.ErrorIs(t, err, merr.ErrFrameHeaderInvalid, "frame %q", frame)
	}
}

func TestGridSize(t *testing.T) {
	cases := []struct {
		frameLen, width, height int
	}{
		{0, 1, 1},
		{1, 1, 1},
		{3, 1, 1},
		{4, 2, 1},
		{12, 2, 2},
		{13, 3, 2},
		{27, 3, 3},
		{30, 4, 3},
	}
	for _, c := range cases {
		w, h := gridSize(c.frameLen)
		assert.Equal(t, c.width, w, "frameLen=%d", c.frameLen)
		assert.Equal(t, c.height, h, "frameLen=%d", c.frameLen)
	}
}

func TestGridSizeProperties(t *testing.T) {
	for _, frameLen := range []int{1, 2, 3, 100, 1000, 12345, 1 << 20} {
		t.Run(fmt.Sprintf("len=%d", frameLen), func(t *testing.T) {
			w, h := gridSize(frameLen)

			pixels := (frameLen + BytesPerPixel - 1) / BytesPerPixel
			assert.Equal(t, int(math.Ceil(math.Sqrt(float64(pixels)))), w)

			// 容量必须覆盖帧长，且去掉最后一行就不够放。
			assert.GreaterOrEqual(t, w*h*BytesPerPixel, frameLen)
			assert.Less(t, w*(h-1)*BytesPerPixel, frameLen)
		})
	}
}

func TestValidateFrameName(t *testing.T) {
	assert.NoError(t, validateFrameName(""))
	assert.NoError(t, validateFrameName("model-v2.safetensors"))
	assert.ErrorIs(t, validateFrameName("a:b"), merr.ErrParameterInvalid)
	assert.ErrorIs(t, validateFrameName("a\x00b"), merr.ErrParameterInvalid)
}
