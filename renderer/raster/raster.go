// Package raster 以 image.RGBA 实现 label 的 Surface、Renderer 与 SurfaceFactory。
package raster

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/ByLCY/rubytext/label"
)

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// Factory 创建 RGBA Surface。Interpolator 为 nil 时使用 xdraw.ApproxBiLinear。
type Factory struct {
	Interpolator xdraw.Interpolator
}

var _ label.SurfaceFactory = Factory{}

// CreateSurface 实现 label.SurfaceFactory，负数尺寸按 0 处理。
func (f Factory) CreateSurface(width, height int) label.Surface {
	width = max(width, 0)
	height = max(height, 0)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	return &Surface{img: img, renderer: NewRenderer(img, f.Interpolator)}
}

// Surface 是 RGBA 图像上的离屏绘制目标。
type Surface struct {
	img       *image.RGBA
	renderer  *Renderer
	destroyed bool
}

var _ label.Surface = (*Surface)(nil)

func (s *Surface) Width() int               { return s.img.Rect.Dx() }
func (s *Surface) Height() int              { return s.img.Rect.Dy() }
func (s *Surface) Image() image.Image       { return s.img }
func (s *Surface) RGBA() *image.RGBA        { return s.img }
func (s *Surface) Renderer() label.Renderer { return s.renderer }
func (s *Surface) Destroyed() bool          { return s.destroyed }

// Destroy 释放像素数据。
func (s *Surface) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.img = image.NewRGBA(image.Rectangle{})
	s.renderer.dst = s.img
}

type state struct {
	m  f64.Aff3
	op label.CompositeOperation
}

// Renderer 在 RGBA 图像上执行 label 的绘制指令。
type Renderer struct {
	dst    *image.RGBA
	interp xdraw.Interpolator
	cur    state
	stack  []state
}

var _ label.Renderer = (*Renderer)(nil)

// NewRenderer 创建绘制到 dst 的 Renderer。
func NewRenderer(dst *image.RGBA, interp xdraw.Interpolator) *Renderer {
	if interp == nil {
		interp = xdraw.ApproxBiLinear
	}
	return &Renderer{dst: dst, interp: interp, cur: state{m: identity}}
}

func (r *Renderer) Save() { r.stack = append(r.stack, r.cur) }

func (r *Renderer) Restore() {
	if n := len(r.stack); n > 0 {
		r.cur = r.stack[n-1]
		r.stack = r.stack[:n-1]
	}
}

func (r *Renderer) Translate(x, y float64) {
	r.cur.m = mul(r.cur.m, f64.Aff3{1, 0, x, 0, 1, y})
}

// Transform 右乘矩阵 [a, b, c, d, e, f]。
func (r *Renderer) Transform(m [6]float64) {
	r.cur.m = mul(r.cur.m, f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]})
}

func (r *Renderer) SetCompositeOperation(op label.CompositeOperation) { r.cur.op = op }

// DrawImage 将 src 中以 (srcX, srcY) 为起点的 width×height 区域绘制到当前坐标系的 (dstX, dstY)。
func (r *Renderer) DrawImage(src image.Image, srcX, srcY, width, height, dstX, dstY float64) {
	if src == nil || width <= 0 || height <= 0 {
		return
	}
	origin := src.Bounds().Min
	sr := image.Rect(
		origin.X+int(math.Round(srcX)), origin.Y+int(math.Round(srcY)),
		origin.X+int(math.Round(srcX+width)), origin.Y+int(math.Round(srcY+height)),
	).Intersect(src.Bounds())
	if sr.Empty() {
		return
	}
	s2d := mul(r.cur.m, f64.Aff3{1, 0, dstX - float64(sr.Min.X), 0, 1, dstY - float64(sr.Min.Y)})
	r.draw(src, sr, s2d)
}

// FillRect 以颜色 c 填充矩形。
func (r *Renderer) FillRect(x, y, width, height float64, c color.Color) {
	if width <= 0 || height <= 0 || c == nil {
		return
	}
	sr := image.Rect(0, 0, int(math.Ceil(width)), int(math.Ceil(height)))
	s2d := mul(r.cur.m, f64.Aff3{1, 0, x, 0, 1, y})
	r.draw(image.NewUniform(c), sr, s2d)
}

func (r *Renderer) draw(src image.Image, sr image.Rectangle, s2d f64.Aff3) {
	bounds := deviceBounds(s2d, sr).Intersect(r.dst.Rect)
	if bounds.Empty() {
		return
	}
	if r.cur.op == label.SourceAtop {
		tmp := image.NewRGBA(bounds)
		r.transform(tmp, src, sr, s2d)
		sourceAtop(r.dst, tmp, bounds)
		return
	}
	r.transform(r.dst, src, sr, s2d)
}

// transform 以 source-over 绘制。整数平移直接复制像素，其余情况经插值变换。
func (r *Renderer) transform(dst *image.RGBA, src image.Image, sr image.Rectangle, s2d f64.Aff3) {
	if s2d[0] == 1 && s2d[1] == 0 && s2d[3] == 0 && s2d[4] == 1 &&
		s2d[2] == math.Trunc(s2d[2]) && s2d[5] == math.Trunc(s2d[5]) {
		d := image.Pt(int(s2d[2]), int(s2d[5]))
		xdraw.Draw(dst, sr.Add(d), src, sr.Min, xdraw.Over)
		return
	}
	r.interp.Transform(dst, s2d, src, sr, xdraw.Over, nil)
}

// sourceAtop 按 source-atop 合成 src 到 dst：只改变已有像素的颜色，alpha 不变。
func sourceAtop(dst, src *image.RGBA, rect image.Rectangle) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			j := src.PixOffset(x, y)
			sa := uint32(src.Pix[j+3])
			if sa == 0 {
				continue
			}
			i := dst.PixOffset(x, y)
			da := uint32(dst.Pix[i+3])
			for k := 0; k < 3; k++ {
				dst.Pix[i+k] = uint8((uint32(src.Pix[j+k])*da + uint32(dst.Pix[i+k])*(255-sa)) / 255)
			}
		}
	}
}

// mul 返回 p∘q，即先应用 q 再应用 p。
func mul(p, q f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		p[0]*q[0] + p[1]*q[3], p[0]*q[1] + p[1]*q[4], p[0]*q[2] + p[1]*q[5] + p[2],
		p[3]*q[0] + p[4]*q[3], p[3]*q[1] + p[4]*q[4], p[3]*q[2] + p[4]*q[5] + p[5],
	}
}

// deviceBounds 返回 sr 经 m 变换后的外接整数矩形。
func deviceBounds(m f64.Aff3, sr image.Rectangle) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range [4][2]float64{
		{float64(sr.Min.X), float64(sr.Min.Y)},
		{float64(sr.Max.X), float64(sr.Min.Y)},
		{float64(sr.Min.X), float64(sr.Max.Y)},
		{float64(sr.Max.X), float64(sr.Max.Y)},
	} {
		x := m[0]*p[0] + m[1]*p[1] + m[2]
		y := m[3]*p[0] + m[4]*p[1] + m[5]
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}

// RenderLabel 将标签按 scale 倍绘制到一张新图像上，scale<=0 视为 1。
func RenderLabel(l *label.Label, scale float64) *image.RGBA {
	if scale <= 0 {
		scale = 1
	}
	w, h := l.CacheSize()
	img := image.NewRGBA(image.Rect(0, 0, int(math.Ceil(float64(max(w, 0))*scale)), int(math.Ceil(float64(max(h, 0))*scale))))
	r := NewRenderer(img, nil)
	if scale != 1 {
		r.Transform([6]float64{scale, 0, 0, scale, 0, 0})
	}
	l.RenderCache(r)
	return img
}
