package json

import (
	"io"

	"github.com/bytedance/sonic"
)

// 统一使用与标准库兼容的 sonic 配置，
// 保证 map 键排序、HTML 转义等行为与 encoding/json 一致。
var api = sonic.ConfigStd

// Marshal 将对象编码为 JSON 字节序列。
func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

// MarshalIndent 将对象编码为带缩进的 JSON 字节序列。
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

// Unmarshal 将 JSON 字节序列解码到目标对象。
func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// NewDecoder 基于 reader 创建 JSON 解码器。
func NewDecoder(r io.Reader) sonic.Decoder {
	return api.NewDecoder(r)
}

// NewEncoder 基于 writer 创建 JSON 编码器。
func NewEncoder(w io.Writer) sonic.Encoder {
	return api.NewEncoder(w)
}
