package layout

import (
	"image/color"

	"github.com/ByLCY/rubytext/label"
)

// 该文件定义布局结果与资源描述，供布局计算、渲染与调试 JSON 共用。
// 除特别说明外，坐标与尺寸均以 px 为单位。

// Result 保存布局后的页面与资源信息。
type Result struct {
	Pages     []Page       `json:"pages"`
	Resources ResourceSet  `json:"resources"`
	Meta      DocumentMeta `json:"meta"`
}

// Close 销毁结果中全部标签持有的 Surface。
func (r *Result) Close() {
	if r == nil {
		return
	}
	for _, page := range r.Pages {
		for _, lb := range page.Labels {
			if lb.Label != nil {
				lb.Label.Destroy()
			}
		}
	}
}

// ResourceSet 记录解析出的字体、颜色与样式定义。
type ResourceSet struct {
	Fonts  map[string]FontResource `json:"fonts"`
	Colors map[string]Color        `json:"colors"`
	Styles map[string]Style        `json:"styles"`
}

// FontKind 区分字体资源的类型。
type FontKind string

const (
	// FontDynamic 为 TrueType/OpenType 字体，src 可以是文件路径、embed:* 或 builtin:* 形式。
	FontDynamic FontKind = "font"
	// FontBitmap 为位图字体，src 为图集图片，glyphs 为字形定义 JSON。
	FontBitmap FontKind = "bitmap"
)

// FontResource 描述字体资源。
type FontResource struct {
	Name   string   `json:"name"`
	Kind   FontKind `json:"kind"`
	Src    string   `json:"src"`
	Glyphs string   `json:"glyphs,omitempty"`
	// Size 为动态字体栅格化时的原生字号（px），位图字体忽略。
	Size      float64 `json:"size,omitempty"`
	CacheSize int     `json:"cacheSize,omitempty"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// NRGBA 返回不透明的 color.NRGBA。
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: 0xff}
}

// Page 是一个画布：尺寸、背景与可以直接渲染的元素。
type Page struct {
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	Padding    Margin     `json:"padding"`
	Background *Color     `json:"background,omitempty"`
	Labels     []LabelBox `json:"labels"`
	Lines      []Line     `json:"lines,omitempty"`
	Rects      []Rect     `json:"rects,omitempty"`
}

// Margin 描述四边的留白。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// LabelBox 是一个已经完成分行的标签及其在画布上的位置。
type LabelBox struct {
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Width    float64      `json:"width"`
	Height   float64      `json:"height"`
	Text     string       `json:"text"`
	Font     string       `json:"font"`
	FontSize float64      `json:"fontSize"`
	Align    string       `json:"align,omitempty"`
	Color    *Color       `json:"color,omitempty"`
	Lines    []LabelLine  `json:"lines"`
	Label    *label.Label `json:"-"`
}

// LabelLine 记录标签中一行的源文本与尺寸，仅用于调试输出。
type LabelLine struct {
	Source string  `json:"source"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Ruby   bool    `json:"ruby,omitempty"`
}

// 基本图形：直线与矩形。
// Line 表示一条线段。
type Line struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color Color   `json:"color"`
	Width float64 `json:"width"` // 线宽，<=0 时由渲染器给默认值
}

// Rect 表示一个矩形（不包含圆角）。
type Rect struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	StrokeColor Color   `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`
	FillColor   *Color  `json:"fillColor,omitempty"` // 为空表示不填充
}

// Style 用于描述可继承的标签属性。
type Style struct {
	Name    string            `json:"name"`
	Extends string            `json:"extends,omitempty"`
	Props   map[string]string `json:"props"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
