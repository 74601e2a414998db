package label

import (
	"image/color"
	"log/slog"

	"github.com/ByLCY/rubytext/ruby"
)

// Options 是 New 的参数。调用方的结构体不会被修改。
type Options struct {
	Text string
	Font Font
	// FontSize 为 0 时取 Font.Size()。
	FontSize float64
	// Width 是自动换行的宽度。
	Width float64
	// DisableLineBreak 关闭自动换行，仅按 "\r" / "\n" 换行。
	DisableLineBreak bool
	// LineGap 不得小于 -FontSize。
	LineGap   float64
	TextAlign TextAlign
	// TextColor 非 nil 时以 source-atop 方式覆盖文字颜色。
	TextColor       color.Color
	RubyEnabled     bool
	FixLineGap      bool
	TrimMarginTop   bool
	WidthAutoAdjust bool
	// Parser 为 nil 时使用 ruby.Parse。
	Parser        ruby.Parser
	LineBreakRule ruby.LineBreakRule
	// UnitSplitter 为 nil 时按码点拆分，可换成 ruby.SplitGraphemes。
	UnitSplitter ruby.UnitSplitter
	RubyOptions  RubyOptions
	// FontResolver 将标记中的 "rubyFont" 名称解析为字体。
	FontResolver func(name string) Font
	// Surfaces 用于创建每一行的离屏 Surface，必须提供。
	Surfaces SurfaceFactory
	Logger   *slog.Logger
}

// RubyOptions 是标签级的注音设置，nil 字段使用内置默认值：
// 字号 FontSize/2、字体为标签字体、间距 0、对齐 SpaceAround。
type RubyOptions struct {
	FontSize *float64
	Font     Font
	Gap      *float64
	Align    *ruby.RubyAlign
}

// rubyStyle 是解析完成的注音设置，可按值比较。
type rubyStyle struct {
	fontSize float64
	font     Font
	gap      float64
	align    ruby.RubyAlign
}

func resolveRubyStyle(opts RubyOptions, font Font, fontSize float64) rubyStyle {
	style := rubyStyle{
		fontSize: fontSize / 2,
		font:     font,
		gap:      0,
		align:    ruby.SpaceAround,
	}
	if opts.FontSize != nil {
		style.fontSize = *opts.FontSize
	}
	if opts.Font != nil {
		style.font = opts.Font
	}
	if opts.Gap != nil {
		style.gap = *opts.Gap
	}
	if opts.Align != nil {
		style.align = *opts.Align
	}
	return style
}

// overriddenBy 按片段覆盖项 > 标签设置的顺序解析单个注音单元的样式。
func (s rubyStyle) overriddenBy(o ruby.RubyOptions, resolve func(string) Font, logger *slog.Logger) rubyStyle {
	if o.FontSize != nil {
		s.fontSize = *o.FontSize
	}
	if o.Gap != nil {
		s.gap = *o.Gap
	}
	if o.Align != nil {
		s.align = *o.Align
	}
	if o.FontName != nil {
		var f Font
		if resolve != nil {
			f = resolve(*o.FontName)
		}
		if f != nil {
			s.font = f
		} else {
			logger.Warn("label: unknown ruby font, using label ruby font", "rubyFont", *o.FontName)
		}
	}
	return s
}
