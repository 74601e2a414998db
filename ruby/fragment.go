package ruby

// 该文件定义文本片段（Fragment）模型，供解析器、拆分器与行划分共用。

// Fragment 是行划分的输入单位：一个显示字符（Text）或一个注音单元（*RubyUnit）。
// 只有本包内的类型可以实现该接口。
type Fragment interface {
	// SourceText 返回该片段对应的原始文本，用于回溯改行与还原源文本。
	SourceText() string
	fragment()
}

// Text 是一个原子显示单位：通常为一个码点，也可以是一个字素簇或硬换行 "\r"。
type Text string

// SourceText implements Fragment.
func (t Text) SourceText() string { return string(t) }

func (Text) fragment() {}

// HardBreak 是行划分阶段唯一识别的硬换行标记。
const HardBreak Text = "\r"

// RubyUnit 是一组本文（rb）与注音（rt），排版时作为不可拆分的整体。
type RubyUnit struct {
	Base    string      `json:"rb"`
	Reading string      `json:"rt"`
	Source  string      `json:"text"` // 解析前的原始标记文本
	Options RubyOptions `json:"options"`
}

// SourceText implements Fragment.
func (r *RubyUnit) SourceText() string { return r.Source }

func (*RubyUnit) fragment() {}

// RubyAlign 指定 rb 与 rt 中较短者如何对齐到较长者。
// 数值与标记语法中的 "rubyAlign" 保持一致。
type RubyAlign int

const (
	// Center 字间距固定，较短者居中。
	Center RubyAlign = iota
	// SpaceAround 按 rb 宽度均分 rt 字间距。
	SpaceAround
)

func (a RubyAlign) String() string {
	switch a {
	case Center:
		return "center"
	case SpaceAround:
		return "space-around"
	default:
		return "unknown"
	}
}

// RubyOptions 是单个注音单元上的可选覆盖项，nil 表示未指定。
type RubyOptions struct {
	FontSize *float64   `json:"rubyFontSize,omitempty"`
	FontName *string    `json:"rubyFont,omitempty"` // 交由标签的 FontResolver 解析
	Gap      *float64   `json:"rubyGap,omitempty"`
	Align    *RubyAlign `json:"rubyAlign,omitempty"`
}

// LineBreakRule 接收全部片段与预定的改行位置 index，返回修正后的改行位置。
// 返回值大于 index 表示推迟改行，小于 index 表示回溯改行。
type LineBreakRule func(fragments []Fragment, index int) int

// Parser 将带注音标记的文本转换为片段序列。
type Parser func(text string) ([]Fragment, error)

// Float 返回 v 的指针，便于填写 RubyOptions。
func Float(v float64) *float64 { return &v }

// Align 返回 a 的指针，便于填写 RubyOptions。
func Align(a RubyAlign) *RubyAlign { return &a }

// String 返回 s 的指针，便于填写 RubyOptions。
func String(s string) *string { return &s }
