package fonts

import (
	"encoding/json"
	"fmt"
	"image"
	"strconv"

	"github.com/ByLCY/rubytext/label"
)

// GlyphArea 是位图字体中一个字形在图集上的区域。省略的宽高取字体默认值，
// 省略的 AdvanceWidth 取宽度。
type GlyphArea struct {
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
	Width        *float64 `json:"width,omitempty"`
	Height       *float64 `json:"height,omitempty"`
	OffsetX      float64  `json:"offsetX,omitempty"`
	OffsetY      float64  `json:"offsetY,omitempty"`
	AdvanceWidth *float64 `json:"advanceWidth,omitempty"`
}

// GlyphMap 是位图字体的字形定义文件，键为十进制字符码。
//
//	{"map": {"37564": {"x": 0, "y": 1}}, "width": 50, "height": 50, "missingGlyph": {"x": 2, "y": 3}}
type GlyphMap struct {
	Map          map[string]GlyphArea `json:"map"`
	Width        float64              `json:"width"`
	Height       float64              `json:"height"`
	MissingGlyph *GlyphArea           `json:"missingGlyph,omitempty"`
}

// ParseGlyphMap 解析字形定义 JSON。
func ParseGlyphMap(data []byte) (*GlyphMap, error) {
	var m GlyphMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("解析字形定义失败: %w", err)
	}
	if m.Width <= 0 || m.Height <= 0 {
		return nil, fmt.Errorf("字形定义缺少有效的 width/height")
	}
	return &m, nil
}

// BitmapFont 从图集图片中切出字形。字号为默认字形高度。
type BitmapFont struct {
	atlas   image.Image
	glyphs  map[rune]*label.Glyph
	missing *label.Glyph
	size    float64
}

var _ label.Font = (*BitmapFont)(nil)

// NewBitmapFont 以图集与字形定义创建位图字体。无法解析为字符码的键会返回错误。
func NewBitmapFont(atlas image.Image, m *GlyphMap) (*BitmapFont, error) {
	if atlas == nil || m == nil {
		return nil, fmt.Errorf("位图字体缺少图集或字形定义")
	}
	f := &BitmapFont{
		atlas:  atlas,
		glyphs: make(map[rune]*label.Glyph, len(m.Map)),
		size:   m.Height,
	}
	for key, area := range m.Map {
		code, err := strconv.ParseInt(key, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("字形定义的键 %q 不是字符码: %w", key, err)
		}
		f.glyphs[rune(code)] = f.glyph(rune(code), area, m)
	}
	if m.MissingGlyph != nil {
		f.missing = f.glyph(0, *m.MissingGlyph, m)
	}
	return f, nil
}

func (f *BitmapFont) glyph(code rune, area GlyphArea, m *GlyphMap) *label.Glyph {
	g := &label.Glyph{
		Code:    code,
		X:       area.X,
		Y:       area.Y,
		Width:   m.Width,
		Height:  m.Height,
		OffsetX: area.OffsetX,
		OffsetY: area.OffsetY,
		Image:   f.atlas,
	}
	if area.Width != nil {
		g.Width = *area.Width
	}
	if area.Height != nil {
		g.Height = *area.Height
	}
	g.AdvanceWidth = g.Width
	if area.AdvanceWidth != nil {
		g.AdvanceWidth = *area.AdvanceWidth
	}
	return g
}

// GlyphForCharacter 返回字符的字形；未登记的字符使用 missingGlyph，没有时返回 nil。
func (f *BitmapFont) GlyphForCharacter(code rune) *label.Glyph {
	if g, ok := f.glyphs[code]; ok {
		return g
	}
	if f.missing == nil {
		return nil
	}
	g := *f.missing
	g.Code = code
	return &g
}

func (f *BitmapFont) Size() float64 { return f.size }
