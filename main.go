package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ByLCY/rubytext/dsl"
	"github.com/ByLCY/rubytext/fonts"
	"github.com/ByLCY/rubytext/label"
	"github.com/ByLCY/rubytext/layout"
	"github.com/ByLCY/rubytext/renderer"
	canvasrenderer "github.com/ByLCY/rubytext/renderer/canvas"
	"github.com/ByLCY/rubytext/renderer/raster"
)

func main() {
	input := flag.String("in", "examples/demo.rubytext", "DSL 文件路径")
	output := flag.String("out", "output/demo.pdf", "输出文件路径")
	format := flag.String("format", "pdf", "输出格式：pdf 或 png")
	scale := flag.Float64("scale", 2, "标签栅格化倍率")
	page := flag.Int("page", 0, "PNG 输出的画布序号")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	dataJSON := flag.String("data", "", "绑定到 DSL 的 JSON 数据")
	verbose := flag.Bool("v", false, "输出缺字、注音解析失败等警告")
	flag.Parse()

	var inputData any
	if *dataJSON != "" {
		if err := json.Unmarshal([]byte(*dataJSON), &inputData); err != nil {
			log.Fatalf("解析 data JSON 失败: %v", err)
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	label.SetLogger(logger)

	f, err := canvasrenderer.ParseFormat(*format)
	if err != nil {
		log.Fatal(err)
	}
	var r renderer.Renderer = canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		Format: f,
		Scale:  *scale,
		Page:   *page,
	})
	if err := run(*input, *output, *debug, inputData, r, logger); err != nil {
		log.Fatalf("生成 %s 失败: %v", f, err)
	}
	fmt.Printf("已生成 %s：%s\n", f, *output)
}

// run 串联解析、布局与渲染。字体相对路径以 DSL 文件所在目录为基准。
func run(inputPath, outputPath, debugPath string, data any, r renderer.Renderer, logger *slog.Logger) error {
	if r == nil {
		return fmt.Errorf("renderer 不能为空")
	}
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("无法打开 DSL 文件 %s: %w", inputPath, err)
	}
	defer file.Close()

	doc, err := dsl.ParseFile(inputPath, file)
	if err != nil {
		return fmt.Errorf("解析 DSL 失败: %w", err)
	}

	result, err := layout.Build(doc, data, layout.BuildOptions{
		Fonts:    fonts.NewLoader(filepath.Dir(inputPath)),
		Surfaces: raster.Factory{},
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}
	defer result.Close()

	if debugPath != "" {
		if err := writeDebug(result, debugPath); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	out, err := r.Render(result)
	if err != nil {
		return fmt.Errorf("渲染失败: %w", err)
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}

	return nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
