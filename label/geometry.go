package label

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/ByLCY/rubytext/ruby"
)

// layoutConfig 是一次排版使用的已解析配置，划分、行高计算与绘制共用。
type layoutConfig struct {
	font          Font
	fontSize      float64
	wrapWidth     float64
	lineBreak     bool
	rule          ruby.LineBreakRule
	ruby          rubyStyle
	fixLineGap    bool
	trimMarginTop bool
	resolveFont   func(name string) Font
	logger        *slog.Logger
}

func (c *layoutConfig) scale() float64 {
	return c.fontSize / c.font.Size()
}

// glyphsFor 取出 text 中每个码点的字形。码点 0 与缺字被跳过，缺字记录警告。
func (c *layoutConfig) glyphsFor(font Font, text string) []*Glyph {
	var glyphs []*Glyph
	for _, code := range text {
		if code == 0 {
			continue
		}
		g := font.GlyphForCharacter(code)
		if g == nil {
			c.logger.Warn("label: glyph not found", "char", string(code), "code", code)
			continue
		}
		glyphs = append(glyphs, g)
	}
	return glyphs
}

func advance(glyphs []*Glyph, scale float64) float64 {
	w := 0.0
	for _, g := range glyphs {
		w += g.AdvanceWidth
	}
	return w * scale
}

// standardOffsetY 以 'M' 的 OffsetY 作为字体的标准上边距。字体没有 'M' 时为 0。
func standardOffsetY(font Font) float64 {
	if g := font.GlyphForCharacter('M'); g != nil {
		return g.OffsetY
	}
	return 0
}

// measureRuby 测量注音单元并决定 rb / rt 的水平布局。
func (c *layoutConfig) measureRuby(unit *ruby.RubyUnit) (*RubyDrawInfo, error) {
	style := c.ruby.overriddenBy(unit.Options, c.resolveFont, c.logger)
	glyphs := c.glyphsFor(c.font, unit.Base)
	readingGlyphs := c.glyphsFor(style.font, unit.Reading)
	info := &RubyDrawInfo{
		Unit:          unit,
		BaseWidth:     advance(glyphs, c.scale()),
		ReadingWidth:  advance(readingGlyphs, style.fontSize/style.font.Size()),
		Glyphs:        glyphs,
		ReadingGlyphs: readingGlyphs,
		style:         style,
	}
	info.Width = math.Max(info.BaseWidth, info.ReadingWidth)
	place, err := placeRuby(info)
	if err != nil {
		return nil, err
	}
	info.place = place
	return info, nil
}

// rubyPlacement 是 rb 与 rt 在注音单元内的起始 x 坐标，以及 rt 的字间距。
type rubyPlacement struct {
	baseX        float64
	readingX     float64
	readingSpace float64
}

func placeRuby(info *RubyDrawInfo) (rubyPlacement, error) {
	readingWider := info.ReadingWidth > info.BaseWidth
	var p rubyPlacement
	switch info.style.align {
	case ruby.Center:
		if readingWider {
			p.baseX = (info.Width - info.BaseWidth) / 2
		} else {
			p.readingX = (info.Width - info.ReadingWidth) / 2
		}
	case ruby.SpaceAround:
		if n := len(info.ReadingGlyphs); n > 0 {
			p.readingSpace = (info.Width - info.ReadingWidth) / float64(n)
		}
		if readingWider {
			p.baseX = (info.Width - info.BaseWidth) / 2
		} else {
			p.readingX = p.readingSpace / 2
		}
	default:
		return p, fmt.Errorf("%w: unknown ruby align %d in %s", ErrAssertion, info.style.align, info.Unit.Source)
	}
	return p, nil
}

// rubyBand 描述一行中注音所占的纵向空间。
type rubyBand struct {
	hasRuby bool
	// height 为注音字形（含正 OffsetY）的最大缩放高度。
	height float64
	gap    float64
	// trim 为 TrimMarginTop 时注音绘制需上移的量。
	trim float64
}

func (c *layoutConfig) rubyBand(fragments []FragmentDrawInfo) rubyBand {
	band := rubyBand{gap: c.ruby.gap}
	maxRealHeight := 0.0
	realOffsetY := 0.0
	for _, f := range fragments {
		ri, ok := f.(*RubyDrawInfo)
		if !ok {
			continue
		}
		band.hasRuby = true
		band.gap = math.Max(band.gap, ri.style.gap)
		if len(ri.ReadingGlyphs) == 0 {
			continue
		}

		scale := ri.style.fontSize / ri.style.font.Size()
		curMax := 0.0
		curMin := math.Inf(1)
		for _, g := range ri.ReadingGlyphs {
			h := g.Height
			top := 0.0
			if g.OffsetY > 0 {
				h += g.OffsetY
				top = g.OffsetY
			}
			curMax = math.Max(curMax, h)
			curMin = math.Min(curMin, top)
		}
		band.height = math.Max(band.height, curMax*scale)

		top := math.Min(curMin, standardOffsetY(ri.style.font))
		if drawn := (curMax - top) * scale; drawn > maxRealHeight {
			maxRealHeight = drawn
			realOffsetY = top * scale
		}
	}
	// 没有注音的行在 FixLineGap 下也预留注音高度。
	if band.height == 0 {
		band.height = c.ruby.fontSize
	}
	if c.trimMarginTop {
		band.trim = realOffsetY
	}
	return band
}

// finishLine 计算行高与 MinMinusOffsetY。
func (c *layoutConfig) finishLine(line *LineInfo) {
	scale := c.scale()
	minOffsetY := math.Inf(1)
	minMinus := 0.0
	maxHeight := 0.0
	for _, f := range line.Fragments {
		for _, g := range f.BaseGlyphs() {
			minMinus = math.Min(minMinus, g.OffsetY)
			minOffsetY = math.Min(minOffsetY, g.OffsetY)
			h := g.Height
			if g.OffsetY > 0 {
				h += g.OffsetY
			}
			maxHeight = math.Max(maxHeight, h)
		}
	}
	minMinus *= scale
	if len(line.Fragments) > 0 {
		maxHeight = maxHeight*scale - minMinus
	} else {
		maxHeight = c.fontSize
	}
	maxHeight = math.Ceil(maxHeight)

	band := c.rubyBand(line.Fragments)
	line.Height = maxHeight
	if band.hasRuby || c.fixLineGap {
		line.Height += band.height + band.gap
	}
	line.MinMinusOffsetY = minMinus
	if c.trimMarginTop {
		t := math.Min(minOffsetY, standardOffsetY(c.font)) * scale
		line.Height -= t
		line.MinMinusOffsetY += t
	}
}
