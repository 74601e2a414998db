package label

import (
	"image"
	"image/color"
)

// 该文件定义标签依赖的宿主能力：字体、离屏 Surface 与 Renderer。

// Glyph 描述一个字形的度量与位图。X/Y/Width/Height 是 Image 中的源矩形，
// OffsetX/OffsetY 是绘制时相对字形原点的偏移（OffsetY 以行顶为基准）。
type Glyph struct {
	Code         rune
	X            float64
	Y            float64
	Width        float64
	Height       float64
	OffsetX      float64
	OffsetY      float64
	AdvanceWidth float64
	Image        image.Image
}

// Font 将字符映射为字形。找不到字形时返回 nil。
// Size 为字体的原生字号，绘制时按 fontSize / Size() 缩放。
// 标签用 == 判断字体是否更换，实现应为指针类型。
type Font interface {
	GlyphForCharacter(code rune) *Glyph
	Size() float64
}

// Surface 是离屏绘制目标，由创建它的一方负责 Destroy。
type Surface interface {
	Width() int
	Height() int
	Image() image.Image
	Renderer() Renderer
	Destroy()
	Destroyed() bool
}

// SurfaceFactory 创建离屏 Surface。
type SurfaceFactory interface {
	CreateSurface(width, height int) Surface
}

// CompositeOperation 是 FillRect/DrawImage 的合成方式。
type CompositeOperation int

const (
	SourceOver CompositeOperation = iota
	// SourceAtop 只影响已有像素，用于文字着色。
	SourceAtop
)

// Renderer 是绘制指令的接收方。Transform 的矩阵顺序为 [a, b, c, d, e, f]，
// 即 x' = a*x + c*y + e, y' = b*x + d*y + f。
type Renderer interface {
	Save()
	Restore()
	Translate(x, y float64)
	Transform(m [6]float64)
	DrawImage(src image.Image, srcX, srcY, width, height, dstX, dstY float64)
	SetCompositeOperation(op CompositeOperation)
	FillRect(x, y, width, height float64, c color.Color)
}

// TextAlign 是行在换行宽度内的水平对齐方式。
type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignCenter
	AlignRight
)

// ParseTextAlign 解析 left/center/right（含 start/end 别名），无法识别时返回 AlignLeft。
func ParseTextAlign(v string) TextAlign {
	switch v {
	case "center", "middle":
		return AlignCenter
	case "right", "end":
		return AlignRight
	default:
		return AlignLeft
	}
}

func (a TextAlign) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}
