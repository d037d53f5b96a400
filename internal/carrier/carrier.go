// Package carrier 提供编解码器依赖的 PNG 载体能力：
// 像素缓冲与 tEXt 文本块的读写，以及原子化的文件落盘。
//
// 载体层只负责容器格式，不理解模型数据的语义；
// 帧格式与元数据键的约定由 internal/codec 负责。
package carrier

import (
	"os"
	"path/filepath"

	"github.com/lk2023060901/modelpng-go/pkg/util/merr"
)

// TextEntry 表示 PNG 的一条 tEXt 文本块（键值对）。
//
// 同一图片内键唯一；重复写入同名键时后写覆盖先写。
type TextEntry struct {
	Key   string
	Value string
}

// ReadFile 读取输入文件的全部内容。
// 文件不存在时返回 merr.ErrInputNotFound。
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, merr.WrapErrInputNotFound(path)
		}
		return nil, merr.WrapErrIoFailed(path, err)
	}
	return data, nil
}

// Exists 判断路径是否存在。
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteFileAtomic 将 data 原子化写入 path：
// 先写入同目录下的临时文件，成功后 rename 到目标路径。
//
// 约定：操作失败时不留下任何输出（临时文件会被清理），
// 调用方看到的结果只有“完整写入”或“完全没写”。
// 父目录不存在时会自动创建。
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return merr.WrapErrIoFailed(dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".modelpng-*")
	if err != nil {
		return merr.WrapErrIoFailed(dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return merr.WrapErrIoFailed(path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return merr.WrapErrIoFailed(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return merr.WrapErrIoFailed(path, err)
	}
	return nil
}
