package fonts

import (
	"fmt"
	"image"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/rubytext/label"
)

// DefaultGlyphCacheSize 是 DynamicFont 默认缓存的字形数。
const DefaultGlyphCacheSize = 1024

// DynamicFont 在首次使用时栅格化 TrueType/OpenType 字形，结果缓存在 LRU 中。
// 字形为黑色，文字颜色由标签的 TextColor 覆盖。
type DynamicFont struct {
	mu     sync.Mutex
	font   *opentype.Font
	face   font.Face
	buf    sfnt.Buffer
	size   float64
	ascent fixed.Int26_6
	cache  *lru.Cache
}

var _ label.Font = (*DynamicFont)(nil)

// NewDynamicFont 解析字体数据，以 size 像素为原生字号。cacheSize <= 0 时使用 DefaultGlyphCacheSize。
func NewDynamicFont(data []byte, size float64, cacheSize int) (*DynamicFont, error) {
	if size <= 0 {
		return nil, fmt.Errorf("字号必须为正数: %v", size)
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体失败: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("创建字体 face 失败: %w", err)
	}
	if cacheSize <= 0 {
		cacheSize = DefaultGlyphCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &DynamicFont{
		font:   parsed,
		face:   face,
		size:   size,
		ascent: face.Metrics().Ascent,
		cache:  cache,
	}, nil
}

func (f *DynamicFont) Size() float64 { return f.size }

// GlyphForCharacter 返回字符的字形，字体中没有该字符时返回 nil。
func (f *DynamicFont) GlyphForCharacter(code rune) *label.Glyph {
	if v, ok := f.cache.Get(code); ok {
		return v.(*label.Glyph)
	}
	f.mu.Lock()
	g := f.rasterize(code)
	f.mu.Unlock()
	f.cache.Add(code, g)
	return g
}

// rasterize 以行顶为原点绘制字形，OffsetY 即字形上沿到行顶的距离。
func (f *DynamicFont) rasterize(code rune) *label.Glyph {
	if idx, err := f.font.GlyphIndex(&f.buf, code); err != nil || idx == 0 {
		return nil
	}
	dot := fixed.Point26_6{Y: f.ascent}
	dr, mask, maskp, adv, ok := f.face.Glyph(dot, code)
	if !ok {
		return nil
	}
	g := &label.Glyph{
		Code:         code,
		AdvanceWidth: float64(adv) / 64,
	}
	if dr.Empty() {
		// 空白字形只有步进，OffsetY 取基线。
		g.OffsetY = float64(f.ascent) / 64
		return g
	}
	img := image.NewRGBA(image.Rect(0, 0, dr.Dx(), dr.Dy()))
	draw.DrawMask(img, img.Bounds(), image.Black, image.Point{}, mask, maskp, draw.Over)
	g.Width = float64(dr.Dx())
	g.Height = float64(dr.Dy())
	g.OffsetX = float64(dr.Min.X)
	g.OffsetY = float64(dr.Min.Y)
	g.Image = img
	return g
}

// Close 释放字体 face。
func (f *DynamicFont) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache.Purge()
	return f.face.Close()
}
