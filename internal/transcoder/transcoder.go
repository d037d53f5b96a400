package transcoder

import (
	"encoding/base64"

	"github.com/lk2023060901/modelpng-go/pkg/util/merr"
)

// Transcoder 抽象了“任意字节 <-> 可打印文本”的转写能力。
//
// 设计目标：
//   - 输出必须落在受限的可打印字母表内，便于作为 PNG 文本块的值，
//     或在像素字节流中与 NUL 填充无歧义地区分。
//   - Decode(Encode(src)) == src 必须对任意字节序列（含空）成立。
type Transcoder interface {
	// Encode 将任意字节转写为文本字节序列。
	Encode(src []byte) []byte

	// EncodedLen 返回长度为 n 的输入转写后的文本长度。
	EncodedLen(n int) int

	// Decode 将文本字节序列还原为原始字节。
	//
	// 出现字母表之外的字符、长度不是完整组、或填充位置非法时，
	// 返回 merr.ErrTextMalformed。
	Decode(text []byte) ([]byte, error)
}

// Base64Transcoder 使用标准 base64 字母表（含 '=' 填充）实现 Transcoder。
//
// NUL 字节不属于 base64 字母表，
// 因此像素法帧尾部的零填充可以被无歧义地剥离。
type Base64Transcoder struct {
	enc *base64.Encoding
}

// 编译期断言：确保 Base64Transcoder 实现了 Transcoder 接口。
var _ Transcoder = (*Base64Transcoder)(nil)

// NewBase64Transcoder 创建一个基于标准字母表的 Base64Transcoder。
func NewBase64Transcoder() *Base64Transcoder {
	return &Base64Transcoder{
		enc: base64.StdEncoding,
	}
}

// Encode 实现 Transcoder 接口。
func (t *Base64Transcoder) Encode(src []byte) []byte {
	dst := make([]byte, t.enc.EncodedLen(len(src)))
	t.enc.Encode(dst, src)
	return dst
}

// EncodedLen 实现 Transcoder 接口。
func (t *Base64Transcoder) EncodedLen(n int) int {
	return t.enc.EncodedLen(n)
}

// Decode 实现 Transcoder 接口。
func (t *Base64Transcoder) Decode(text []byte) ([]byte, error) {
	dst := make([]byte, t.enc.DecodedLen(len(text)))
	n, err := t.enc.Decode(dst, text)
	if err != nil {
		return nil, merr.WrapErrTextMalformed(err)
	}
	return dst[:n], nil
}
