package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	canvasrenderer "github.com/ByLCY/rubytext/renderer/canvas"
)

func TestRunDemo(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out", "demo.pdf")
	debug := filepath.Join(dir, "debug", "layout.json")
	data := map[string]any{"name": "rubytext"}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	if err := run("examples/demo.rubytext", out, debug, data, canvasrenderer.NewRenderer(), logger); err != nil {
		t.Fatalf("run: %v", err)
	}
	pdf, err := os.ReadFile(out)
	if err != nil || !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("应生成 PDF 文件: %v", err)
	}

	raw, err := os.ReadFile(debug)
	if err != nil {
		t.Fatalf("应生成调试 JSON: %v", err)
	}
	var dump struct {
		Pages []struct {
			Labels []struct {
				Text  string `json:"text"`
				Lines []struct {
					Source string `json:"source"`
				} `json:"lines"`
			} `json:"labels"`
		} `json:"pages"`
	}
	if err := json.Unmarshal(raw, &dump); err != nil {
		t.Fatalf("调试 JSON 无法解析: %v", err)
	}
	if len(dump.Pages) != 1 || len(dump.Pages[0].Labels) != 3 {
		t.Fatalf("unexpected debug dump: %s", raw)
	}
	if got := dump.Pages[0].Labels[0].Lines[0].Source; got != `{"rb":"Ruby","rt":"annotation"} text for rubytext` {
		t.Fatalf("标题行应完成数据绑定，实际 %q", got)
	}
	if len(dump.Pages[0].Labels[1].Lines) < 2 {
		t.Fatalf("长文本应换行")
	}
}

func TestRunErrors(t *testing.T) {
	if err := run("examples/demo.rubytext", "x.pdf", "", nil, nil, nil); err == nil {
		t.Fatalf("renderer 为空应报错")
	}
	if err := run(filepath.Join(t.TempDir(), "missing.rubytext"), "x.pdf", "", nil, canvasrenderer.NewRenderer(), nil); err == nil {
		t.Fatalf("缺少输入文件应报错")
	}
}
