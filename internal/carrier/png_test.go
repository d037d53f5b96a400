package carrier

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/modelpng-go/pkg/util/merr"
)

func whitePixel() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.White)
	return img
}

func TestTextChunkRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	entries := []TextEntry{
		{Key: "mOdL", Value: "SGVsbG8="},
		{Key: "mOdL_name", Value: "weights.bin"},
	}
	require.NoError(t, EncodePNG(&buf, whitePixel(), entries))

	img, text, err := DecodePNG(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, img.Bounds().Dx())
	assert.Equal(t, 1, img.Bounds().Dy())
	assert.Equal(t, "SGVsbG8=", text["mOdL"])
	assert.Equal(t, "weights.bin", text["mOdL_name"])
}

func TestTextChunkLastWriteWins(t *testing.T) {
	var buf bytes.Buffer
	entries := []TextEntry{
		{Key: "mOdL", Value: "first"},
		{Key: "other", Value: "x"},
		{Key: "mOdL", Value: "second"},
	}
	require.NoError(t, EncodePNG(&buf, whitePixel(), entries))

	_, text, err := DecodePNG(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "second", text["mOdL"])
	assert.Equal(t, "x", text["other"])
}

func TestEncodePNGRejectsBadEntries(t *testing.T) {
	for _, entry := range []TextEntry{
		{Key: "", Value: "v"},
		{Key: string(bytes.Repeat([]byte("k"), 80)), Value: "v"},
		{Key: "k\x00ey", Value: "v"},
		{Key: "key", Value: "v\x00alue"},
	} {
		var buf bytes.Buffer
		err := EncodePNG(&buf, whitePixel(), []TextEntry{entry})
		assert.ErrorIs(t, err, merr.ErrParameterInvalid, "entry %+v", entry)
	}
}

func TestDecodePNGBadSignature(t *testing.T) {
	_, _, err := DecodePNG([]byte("this is not a png at all"))
	assert.ErrorIs(t, err, merr.ErrCarrierInvalid)
}

func TestDecodePNGCorruptTextCRC(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, whitePixel(), []TextEntry{{Key: "mOdL", Value: "payload"}}))

	// 翻转 tEXt 值里的一个字节，使块内容与 CRC 不一致。
	data := buf.Bytes()
	idx := bytes.Index(data, []byte("payload"))
	require.Positive(t, idx)
	data[idx] ^= 0xff

	_, _, err := DecodePNG(data)
	assert.ErrorIs(t, err, merr.ErrCarrierInvalid)
}

func TestFlattenRGBRoundTrip(t *testing.T) {
	rgb := []byte{
		1, 2, 3, 4, 5, 6,
		7, 8, 9, 10, 11, 12,
	}
	img, err := ImageFromRGB(rgb, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, rgb, FlattenRGB(img))
}

func TestFlattenRGBSurvivesPNGEncode(t *testing.T) {
	rgb := []byte("MODEL:x:0:0:AAAA\x00\x00")
	img, err := ImageFromRGB(rgb, 3, 2)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, img, nil))

	decoded, _, err := DecodePNG(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, rgb, FlattenRGB(decoded))
}

func TestImageFromRGBValidation(t *testing.T) {
	_, err := ImageFromRGB([]byte{1, 2, 3}, 0, 1)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)

	_, err = ImageFromRGB([]byte{1, 2, 3, 4}, 1, 1)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}
