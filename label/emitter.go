package label

import "math"

// drawLine 为一行创建 Surface 并绘制其中的全部字形。
// 本文在注音带之下绘制；注音从行顶开始（TrimMarginTop 时上移）。
func (c *layoutConfig) drawLine(line *LineInfo, surfaces SurfaceFactory) {
	band := c.rubyBand(line.Fragments)
	surface := surfaces.CreateSurface(int(math.Ceil(line.Width)), int(math.Ceil(line.Height)))
	r := surface.Renderer()
	r.Save()

	baseY := -line.MinMinusOffsetY
	if band.hasRuby || c.fixLineGap {
		baseY += band.gap + band.height
	}
	for _, f := range line.Fragments {
		switch f := f.(type) {
		case *RubyDrawInfo:
			drawGlyphs(r, c.font, f.Glyphs, c.fontSize, f.place.baseX, baseY, 0)
			drawGlyphs(r, f.style.font, f.ReadingGlyphs, f.style.fontSize, f.place.readingX, -band.trim, f.place.readingSpace)
		case *StringDrawInfo:
			drawGlyphs(r, c.font, f.Glyphs, c.fontSize, 0, baseY, 0)
		}
		r.Translate(f.DrawWidth(), 0)
	}

	r.Restore()
	line.Surface = surface
}

// drawGlyphs 从 (x, y) 起依次绘制字形，每个字形之后额外前进 space。
func drawGlyphs(r Renderer, font Font, glyphs []*Glyph, fontSize, x, y, space float64) {
	scale := fontSize / font.Size()
	r.Save()
	r.Translate(x, y)
	for _, g := range glyphs {
		r.Save()
		r.Transform([6]float64{scale, 0, 0, scale, 0, 0})
		if g.Width > 0 && g.Height > 0 && g.Image != nil {
			r.DrawImage(g.Image, g.X, g.Y, g.Width, g.Height, g.OffsetX, g.OffsetY)
		}
		r.Restore()
		r.Translate(g.AdvanceWidth*scale+space, 0)
	}
	r.Restore()
}
