package label

import (
	"strings"

	"github.com/ByLCY/rubytext/ruby"
)

// FragmentDrawInfo 是行内一个已测量的绘制单元：*StringDrawInfo 或 *RubyDrawInfo。
type FragmentDrawInfo interface {
	SourceText() string
	DrawWidth() float64
	// BaseGlyphs 返回以标签字体绘制的字形（rb 或普通文本）。
	BaseGlyphs() []*Glyph
	unitCount() int
}

// StringDrawInfo 是一段连续的普通文本。
type StringDrawInfo struct {
	Text   string   `json:"text"`
	Width  float64  `json:"width"`
	Glyphs []*Glyph `json:"-"`
	units  []textUnit
}

// textUnit 记录一个原子单位占用的字形数量，回溯改行按单位拆分。
type textUnit struct {
	text   string
	glyphs int
	width  float64
}

func (s *StringDrawInfo) SourceText() string   { return s.Text }
func (s *StringDrawInfo) DrawWidth() float64   { return s.Width }
func (s *StringDrawInfo) BaseGlyphs() []*Glyph { return s.Glyphs }
func (s *StringDrawInfo) unitCount() int       { return len(s.units) }

func (s *StringDrawInfo) appendUnit(text string, glyphs []*Glyph, width float64) {
	s.Text += text
	s.Width += width
	s.Glyphs = append(s.Glyphs, glyphs...)
	s.units = append(s.units, textUnit{text: text, glyphs: len(glyphs), width: width})
}

// splitTail 将末尾 n 个单位切出为新的 StringDrawInfo，s 保留其余部分。
func (s *StringDrawInfo) splitTail(n int) *StringDrawInfo {
	keep := len(s.units) - n
	tail := &StringDrawInfo{}
	glyphStart := 0
	for _, u := range s.units[:keep] {
		glyphStart += u.glyphs
	}
	glyphs := s.Glyphs[glyphStart:]
	for _, u := range s.units[keep:] {
		tail.appendUnit(u.text, glyphs[:u.glyphs], u.width)
		glyphs = glyphs[u.glyphs:]
	}

	head := &StringDrawInfo{}
	glyphs = s.Glyphs[:glyphStart]
	for _, u := range s.units[:keep] {
		head.appendUnit(u.text, glyphs[:u.glyphs], u.width)
		glyphs = glyphs[u.glyphs:]
	}
	*s = *head
	return tail
}

// RubyDrawInfo 是一个已测量的注音单元，Width = max(BaseWidth, ReadingWidth)。
type RubyDrawInfo struct {
	Unit          *ruby.RubyUnit `json:"unit"`
	Width         float64        `json:"width"`
	BaseWidth     float64        `json:"baseWidth"`
	ReadingWidth  float64        `json:"readingWidth"`
	Glyphs        []*Glyph       `json:"-"`
	ReadingGlyphs []*Glyph       `json:"-"`
	style         rubyStyle
	place         rubyPlacement
}

func (r *RubyDrawInfo) SourceText() string   { return r.Unit.Source }
func (r *RubyDrawInfo) DrawWidth() float64   { return r.Width }
func (r *RubyDrawInfo) BaseGlyphs() []*Glyph { return r.Glyphs }
func (r *RubyDrawInfo) unitCount() int       { return 1 }

// LineInfo 是一行排版结果。Surface 由该行独占，替换或丢弃该行前必须释放。
type LineInfo struct {
	SourceText      string             `json:"sourceText"`
	Width           float64            `json:"width"`
	Height          float64            `json:"height"`
	MinMinusOffsetY float64            `json:"minMinusOffsetY"`
	Fragments       []FragmentDrawInfo `json:"-"`
	Surface         Surface            `json:"-"`
}

// HasRuby 报告该行是否包含注音单元。
func (l *LineInfo) HasRuby() bool {
	for _, f := range l.Fragments {
		if _, ok := f.(*RubyDrawInfo); ok {
			return true
		}
	}
	return false
}

func (l *LineInfo) releaseSurface() {
	if l.Surface != nil && !l.Surface.Destroyed() {
		l.Surface.Destroy()
	}
	l.Surface = nil
}

func (l *LineInfo) unitCount() int {
	n := 0
	for _, f := range l.Fragments {
		n += f.unitCount()
	}
	return n
}

func (l *LineInfo) append(f FragmentDrawInfo) {
	l.Fragments = append(l.Fragments, f)
	l.Width += f.DrawWidth()
	l.SourceText += f.SourceText()
}

// recompute 按片段重新累计宽度与源文本，回溯改行后使用。
func (l *LineInfo) recompute() {
	var b strings.Builder
	width := 0.0
	for _, f := range l.Fragments {
		b.WriteString(f.SourceText())
		width += f.DrawWidth()
	}
	l.SourceText = b.String()
	l.Width = width
}
