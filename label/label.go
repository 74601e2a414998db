package label

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math"

	"github.com/ByLCY/rubytext/ruby"
)

var (
	// ErrAssertion 表示标签配置不合法（字号为负、行距过小、未知的注音对齐等）。
	// 标签级配置在 New/Invalidate 开头校验；标记中单个注音单元的未知 rubyAlign
	// 在行划分放置注音时才被发现，同样由 New/Invalidate 返回，而不是在绘制时。
	ErrAssertion = errors.New("label: assertion error")
	// ErrDestroyed 表示标签已被 Destroy。
	ErrDestroyed = errors.New("label: destroyed")
)

// Label 是支持注音的多行文本。修改导出字段后需调用 Invalidate 重新排版；
// Width 在 WidthAutoAdjust 为真时由 Invalidate 改写，Height 总是由 Invalidate 计算。
type Label struct {
	Text      string
	Font      Font
	FontSize  float64
	Width     float64
	Height    float64
	LineBreak bool
	LineGap   float64
	TextAlign TextAlign
	TextColor color.Color

	RubyEnabled     bool
	FixLineGap      bool
	TrimMarginTop   bool
	WidthAutoAdjust bool

	Parser        ruby.Parser
	LineBreakRule ruby.LineBreakRule
	UnitSplitter  ruby.UnitSplitter
	RubyOptions   RubyOptions
	FontResolver  func(name string) Font

	surfaces       SurfaceFactory
	logger         *slog.Logger
	lineBreakWidth float64
	lines          []*LineInfo
	before         *snapshot
	destroyed      bool
}

// snapshot 记录上一次 Invalidate 时影响排版的配置。
type snapshot struct {
	text            string
	font            Font
	fontSize        float64
	width           float64
	lineBreak       bool
	align           TextAlign
	rubyEnabled     bool
	fixLineGap      bool
	trimMarginTop   bool
	widthAutoAdjust bool
	ruby            rubyStyle

	// callbacks 为真表示设置了 Parser、LineBreakRule、UnitSplitter 或 FontResolver。
	// 函数值无法比较，设置了回调的标签每次 Invalidate 都重新划分行，
	// 内容未变的行仍保留原有 Surface。
	callbacks bool
}

// New 创建标签并完成首次排版。
func New(opts Options) (*Label, error) {
	if opts.Font == nil {
		return nil, fmt.Errorf("%w: font is required", ErrAssertion)
	}
	if opts.Surfaces == nil {
		return nil, fmt.Errorf("%w: surface factory is required", ErrAssertion)
	}
	l := &Label{
		Text:            opts.Text,
		Font:            opts.Font,
		FontSize:        opts.FontSize,
		Width:           opts.Width,
		LineBreak:       !opts.DisableLineBreak,
		LineGap:         opts.LineGap,
		TextAlign:       opts.TextAlign,
		TextColor:       opts.TextColor,
		RubyEnabled:     opts.RubyEnabled,
		FixLineGap:      opts.FixLineGap,
		TrimMarginTop:   opts.TrimMarginTop,
		WidthAutoAdjust: opts.WidthAutoAdjust,
		Parser:          opts.Parser,
		LineBreakRule:   opts.LineBreakRule,
		UnitSplitter:    opts.UnitSplitter,
		RubyOptions:     opts.RubyOptions,
		FontResolver:    opts.FontResolver,
		surfaces:        opts.Surfaces,
		logger:          opts.Logger,
	}
	if l.FontSize == 0 {
		l.FontSize = l.Font.Size()
	}
	if err := l.Invalidate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Label) log() *slog.Logger {
	if l.logger != nil {
		return l.logger
	}
	return Logger()
}

// Invalidate 校验配置并在影响排版的字段变化时重新排版。
// 内容未变的行保留原有 Surface。
func (l *Label) Invalidate() error {
	if l.destroyed {
		return ErrDestroyed
	}
	if l.Font == nil {
		return fmt.Errorf("%w: font is required", ErrAssertion)
	}
	if l.FontSize < 0 {
		return fmt.Errorf("%w: fontSize must not be negative", ErrAssertion)
	}
	if l.LineGap < -l.FontSize {
		return fmt.Errorf("%w: lineGap must be greater than -fontSize", ErrAssertion)
	}
	if l.RubyOptions.Align != nil && *l.RubyOptions.Align != ruby.Center && *l.RubyOptions.Align != ruby.SpaceAround {
		return fmt.Errorf("%w: unknown ruby align %d", ErrAssertion, *l.RubyOptions.Align)
	}

	// 用户修改 Width 时换行宽度随之改变；WidthAutoAdjust 写回的 Width 不影响换行宽度。
	if l.before == nil || l.before.width != l.Width {
		l.lineBreakWidth = l.Width
	}

	cur := l.snapshot()
	if l.before == nil || cur.relayoutNeeded(l.before) {
		if err := l.updateLines(cur); err != nil {
			return err
		}
	}

	if l.WidthAutoAdjust {
		w := 0.0
		for _, line := range l.lines {
			w = math.Max(w, line.Width)
		}
		l.Width = math.Ceil(w)
	}
	height := l.LineGap * float64(len(l.lines)-1)
	for _, line := range l.lines {
		height += line.Height
	}
	l.Height = height

	cur.width = l.Width
	l.before = &cur
	return nil
}

func (l *Label) snapshot() snapshot {
	return snapshot{
		text:            l.Text,
		font:            l.Font,
		fontSize:        l.FontSize,
		width:           l.Width,
		lineBreak:       l.LineBreak,
		align:           l.TextAlign,
		rubyEnabled:     l.RubyEnabled,
		fixLineGap:      l.FixLineGap,
		trimMarginTop:   l.TrimMarginTop,
		widthAutoAdjust: l.WidthAutoAdjust,
		ruby:            resolveRubyStyle(l.RubyOptions, l.Font, l.FontSize),
		callbacks:       l.Parser != nil || l.LineBreakRule != nil || l.UnitSplitter != nil || l.FontResolver != nil,
	}
}

func (s snapshot) relayoutNeeded(before *snapshot) bool {
	return s.text != before.text ||
		s.fontSize != before.fontSize ||
		s.font != before.font ||
		s.lineBreak != before.lineBreak ||
		(s.width != before.width && before.lineBreak) ||
		s.align != before.align ||
		s.rubyEnabled != before.rubyEnabled ||
		s.fixLineGap != before.fixLineGap ||
		s.trimMarginTop != before.trimMarginTop ||
		s.widthAutoAdjust != before.widthAutoAdjust ||
		s.ruby != before.ruby ||
		s.callbacks || before.callbacks
}

func (l *Label) fragments() []ruby.Fragment {
	frags := []ruby.Fragment{ruby.Text(l.Text)}
	if l.RubyEnabled {
		parse := l.Parser
		if parse == nil {
			parse = ruby.Parse
		}
		parsed, err := parse(ruby.NormalizeNewlines(l.Text))
		if err != nil {
			l.log().Warn("label: failed to parse ruby text, drawing it as plain text", "text", l.Text, "err", err)
		} else {
			frags = parsed
		}
	}
	return ruby.SplitUnits(frags, l.UnitSplitter)
}

func (l *Label) updateLines(cur snapshot) error {
	cfg := &layoutConfig{
		font:          l.Font,
		fontSize:      l.FontSize,
		wrapWidth:     l.lineBreakWidth,
		lineBreak:     l.LineBreak,
		rule:          l.LineBreakRule,
		ruby:          cur.ruby,
		fixLineGap:    l.FixLineGap,
		trimMarginTop: l.TrimMarginTop,
		resolveFont:   l.FontResolver,
		logger:        l.log(),
	}
	undrawn, err := divideLines(l.fragments(), cfg)
	if err != nil {
		return err
	}

	// FontResolver 可能返回不同的字体，设置后不复用已绘制的行。
	sameStyle := l.before != nil && l.FontResolver == nil &&
		l.before.font == cur.font &&
		l.before.fontSize == cur.fontSize &&
		l.before.ruby == cur.ruby
	lines := make([]*LineInfo, 0, len(undrawn))
	for i, line := range undrawn {
		var old *LineInfo
		if i < len(l.lines) {
			old = l.lines[i]
		}
		if sameStyle && old != nil &&
			old.SourceText == line.SourceText &&
			old.Width == line.Width &&
			old.Height == line.Height {
			lines = append(lines, old)
			continue
		}
		if old != nil {
			old.releaseSurface()
		}
		cfg.drawLine(line, l.surfaces)
		lines = append(lines, line)
	}
	for _, old := range l.lines[min(len(lines), len(l.lines)):] {
		old.releaseSurface()
	}
	l.lines = lines
	return nil
}

// RenderCache 将各行的 Surface 按对齐方式绘制到 r，行与行之间相隔 LineGap。
// 设置了 TextColor 时再以 source-atop 方式覆盖整个标签区域。
func (l *Label) RenderCache(r Renderer) {
	if !l.RubyEnabled && l.FontSize == 0 {
		return
	}
	r.Save()
	y := 0.0
	for _, line := range l.lines {
		if line.Width > 0 && line.Height > 0 && line.Surface != nil {
			r.DrawImage(line.Surface.Image(), 0, 0, line.Width, line.Height, l.offsetX(line.Width), y)
		}
		y += line.Height + l.LineGap
	}
	if l.TextColor != nil {
		r.SetCompositeOperation(SourceAtop)
		r.FillRect(0, 0, l.lineBreakWidth, l.Height, l.TextColor)
	}
	r.Restore()
}

func (l *Label) offsetX(width float64) float64 {
	switch l.TextAlign {
	case AlignRight:
		return l.lineBreakWidth - width
	case AlignCenter:
		return (l.lineBreakWidth - width) / 2
	default:
		return 0
	}
}

// CacheSize 返回绘制整个标签所需的像素尺寸。改行规则可能使行宽超过 Width。
func (l *Label) CacheSize() (width, height int) {
	w := l.Width
	for _, line := range l.lines {
		w = math.Max(w, line.Width)
	}
	return int(math.Ceil(w)), int(math.Ceil(l.Height))
}

// LineBreakWidth 返回当前的换行宽度。
func (l *Label) LineBreakWidth() float64 { return l.lineBreakWidth }

// LineCount 返回行数。
func (l *Label) LineCount() int { return len(l.lines) }

// Lines 返回排版结果。返回的切片可以修改，LineInfo 本身不可修改。
func (l *Label) Lines() []*LineInfo {
	return append([]*LineInfo(nil), l.lines...)
}

// Destroy 释放所有行的 Surface。字体由调用方管理，不会被释放。
func (l *Label) Destroy() {
	for _, line := range l.lines {
		line.releaseSurface()
	}
	l.lines = nil
	l.destroyed = true
}

// Destroyed 报告标签是否已被 Destroy。
func (l *Label) Destroyed() bool { return l.destroyed }
