package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"strings"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/rubytext/layout"
	"github.com/ByLCY/rubytext/renderer"
	"github.com/ByLCY/rubytext/renderer/raster"
)

// defaultStrokeWidth 是未指定线宽时的默认值（px）。
const defaultStrokeWidth = 1.0

// Format 是输出文件格式。
type Format string

const (
	FormatPDF Format = "pdf"
	FormatPNG Format = "png"
)

// ParseFormat 解析 pdf/png，大小写不敏感。
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatPNG:
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("不支持的输出格式：%s", s)
	}
}

// Options configures the canvas renderer.
type Options struct {
	Format Format
	// Scale 是标签栅格化与 PNG 输出的倍率，<=0 时为 1。
	Scale float64
	// Page 为 PNG 输出时选择的画布序号。
	Page int
}

// Renderer draws layout results via github.com/tdewolff/canvas.
// 画布坐标以 px 给出，canvas 内部使用 mm，两者在绘制时换算。
type Renderer struct {
	format Format
	scale  float64
	page   int
}

var _ renderer.Renderer = (*Renderer)(nil)

// NewRenderer creates a PDF renderer.
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions creates a renderer with the given options.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{format: opts.Format, scale: opts.Scale, page: opts.Page}
	if r.format == "" {
		r.format = FormatPDF
	}
	if r.scale <= 0 {
		r.scale = 1
	}
	return r
}

// Render renders the result into PDF or PNG bytes.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	switch r.format {
	case FormatPDF:
		return r.renderPDF(result)
	case FormatPNG:
		if r.page < 0 || r.page >= len(result.Pages) {
			return nil, fmt.Errorf("画布序号 %d 超出范围（共 %d 个）", r.page, len(result.Pages))
		}
		return r.renderPNG(result.Pages[r.page])
	default:
		return nil, fmt.Errorf("不支持的输出格式：%s", r.format)
	}
}

func (r *Renderer) renderPDF(result *layout.Result) ([]byte, error) {
	var buf bytes.Buffer
	first := result.Pages[0]
	writer := pdf.New(&buf, toMm(first.Width), toMm(first.Height), nil)
	r.applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(toMm(page.Width), toMm(page.Height))
		}
		c := r.drawCanvas(page)
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) renderPNG(page layout.Page) ([]byte, error) {
	c := r.drawCanvas(page)
	img := rasterizer.Draw(c, canvas.DPMM(layout.MmToPx*r.scale), canvas.DefaultColorSpace)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("写入 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

func (r *Renderer) drawCanvas(page layout.Page) *canvas.Canvas {
	c := canvas.New(toMm(page.Width), toMm(page.Height))
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点
	r.drawPage(ctx, page)
	return c
}

// drawPage 依次绘制背景、形状与标签，标签位于最上层。
func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page) {
	if page.Background != nil {
		ctx.SetFillColor(colorFromLayout(*page.Background))
		ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
		ctx.SetStrokeWidth(0)
		ctx.DrawPath(0, 0, canvas.Rectangle(toMm(page.Width), toMm(page.Height)))
	}
	r.drawRects(ctx, page.Rects)
	r.drawLines(ctx, page.Lines)
	r.drawLabels(ctx, page.Labels)
}

// drawLabels 将每个标签栅格化后作为图片放置。
func (r *Renderer) drawLabels(ctx *canvas.Context, labels []layout.LabelBox) {
	for _, lb := range labels {
		if lb.Label == nil || lb.Label.Destroyed() {
			continue
		}
		img := raster.RenderLabel(lb.Label, r.scale)
		if img.Rect.Empty() {
			continue
		}
		ctx.DrawImage(toMm(lb.X), toMm(lb.Y), img, canvas.DPMM(layout.MmToPx*r.scale))
	}
}

// drawLines 绘制直线列表
func (r *Renderer) drawLines(ctx *canvas.Context, lines []layout.Line) {
	for _, ln := range lines {
		w := ln.Width
		if w <= 0 {
			w = defaultStrokeWidth
		}
		ctx.SetStrokeColor(colorFromLayout(ln.Color))
		ctx.SetStrokeWidth(toMm(w))
		p := &canvas.Path{}
		p.MoveTo(0, 0)
		p.LineTo(toMm(ln.X2-ln.X1), toMm(ln.Y2-ln.Y1))
		ctx.DrawPath(toMm(ln.X1), toMm(ln.Y1), p)
	}
}

// drawRects 绘制矩形
func (r *Renderer) drawRects(ctx *canvas.Context, rects []layout.Rect) {
	for _, rc := range rects {
		w := rc.StrokeWidth
		if w <= 0 {
			w = defaultStrokeWidth
		}
		if rc.FillColor != nil {
			ctx.SetFillColor(colorFromLayout(*rc.FillColor))
		} else {
			ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
		}
		ctx.SetStrokeColor(colorFromLayout(rc.StrokeColor))
		ctx.SetStrokeWidth(toMm(w))
		ctx.DrawPath(toMm(rc.X), toMm(rc.Y), canvas.Rectangle(toMm(rc.Width), toMm(rc.Height)))
	}
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toMm 将 px 转换为毫米(mm)。
func toMm(px float64) float64 { return px * layout.PxToMm }
