package layout

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
)

// EncodeDebugJSON 将布局结果以缩进 JSON 写入 w。
// 标签文本中的 <、>、& 按原样输出，便于对照注音标记。
func EncodeDebugJSON(w io.Writer, res *Result) error {
	if res == nil {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// WriteDebugJSON 将布局结果输出为 JSON 文件，必要时创建目录。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	var buf bytes.Buffer
	if err := EncodeDebugJSON(&buf, res); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
