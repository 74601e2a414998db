package layout

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ByLCY/rubytext/binding"
	"github.com/ByLCY/rubytext/dsl"
	"github.com/ByLCY/rubytext/kinsoku"
	"github.com/ByLCY/rubytext/label"
	"github.com/ByLCY/rubytext/ruby"
)

const (
	labelSpacing    = 4.0
	defaultFontName = "Body"
)

// Build 根据 DSL AST 生成画布与已完成分行的标签。
// 返回的 Result 持有各行的 Surface，使用完毕后应调用 Close。
func Build(doc *dsl.Document, data any, opts BuildOptions) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	if opts.Fonts == nil {
		return nil, fmt.Errorf("layout: 缺少字体加载器 Fonts")
	}
	if opts.Surfaces == nil {
		return nil, fmt.Errorf("layout: 缺少 Surface 后端")
	}

	res, err := collectResources(doc)
	if err != nil {
		return nil, err
	}
	meta := collectMeta(doc)
	canvases := canvasSections(doc)
	if len(canvases) == 0 {
		return nil, fmt.Errorf("文档中缺少 canvas 段落")
	}

	b := &builder{res: res, data: data, opts: opts, fonts: map[string]label.Font{}}
	result := &Result{Resources: res, Meta: meta}
	for _, section := range canvases {
		page, err := b.buildCanvas(section)
		if err != nil {
			b.destroy()
			return nil, err
		}
		result.Pages = append(result.Pages, page)
	}
	return result, nil
}

// builder 在一次 Build 中缓存已加载的字体并记录创建的标签。
type builder struct {
	res     ResourceSet
	data    any
	opts    BuildOptions
	fonts   map[string]label.Font
	created []*label.Label
}

func (b *builder) logger() *slog.Logger {
	if b.opts.Logger != nil {
		return b.opts.Logger
	}
	return label.Logger()
}

func (b *builder) destroy() {
	for _, l := range b.created {
		l.Destroy()
	}
	b.created = nil
}

// font 按名称加载字体，未定义时回退到 Body 或任一字体。
func (b *builder) font(name string) (label.Font, error) {
	fr, err := resolveFontResource(name, b.res)
	if err != nil {
		return nil, err
	}
	if f, ok := b.fonts[fr.Name]; ok {
		return f, nil
	}
	f, err := b.opts.Fonts.LoadFont(fr)
	if err != nil {
		return nil, fmt.Errorf("加载字体 %s 失败: %w", fr.Name, err)
	}
	b.fonts[fr.Name] = f
	return f, nil
}

// rubyFont 只解析已定义的字体名，供注音标记中的 "rubyFont" 使用。
func (b *builder) rubyFont(name string) label.Font {
	if _, ok := b.res.Fonts[name]; !ok {
		return nil
	}
	f, err := b.font(name)
	if err != nil {
		b.logger().Warn("layout: ruby font unavailable", "rubyFont", name, "err", err)
		return nil
	}
	return f
}

func (b *builder) buildCanvas(section *dsl.CanvasSection) (Page, error) {
	width, height, err := resolveCanvasSize(section.Spec)
	if err != nil {
		return Page{}, err
	}
	padding := resolvePadding(section.Spec.Params)
	page := Page{Width: width, Height: height, Padding: padding}
	if v := paramValue(section.Spec.Params, "background"); v != "" {
		c := resolveColor(v, b.res)
		page.Background = &c
	}
	if section.Block == nil {
		return page, nil
	}

	cursorY := padding.Top
	contentWidth := width - padding.Left - padding.Right
	for _, stmt := range section.Block.Statements {
		cmd := stmt.Command
		if cmd == nil {
			continue
		}
		switch strings.ToLower(cmd.Name) {
		case "label":
			box, absolute, err := b.buildLabel(cmd, padding.Left, cursorY, contentWidth)
			if err != nil {
				return Page{}, fmt.Errorf("第 %d 行的 label: %w", cmd.Pos.Line, err)
			}
			if box.Y+box.Height > height {
				b.logger().Warn("layout: label overflows canvas", "line", cmd.Pos.Line, "bottom", box.Y+box.Height, "height", height)
			}
			page.Labels = append(page.Labels, box)
			if !absolute {
				cursorY += box.Height + labelSpacing
			}
		case "line":
			_, attrs := parseArgs(cmd.Args, false)
			if ln, ok := parseLineShape(attrs, b.res); ok {
				page.Lines = append(page.Lines, ln)
			}
		case "rect":
			_, attrs := parseArgs(cmd.Args, false)
			if rc, ok := parseRectShape(attrs, b.res); ok {
				page.Rects = append(page.Rects, rc)
			}
		default:
			// 其余命令暂未实现，忽略即可
		}
	}
	return page, nil
}

// buildLabel 创建标签并完成分行。第一个参数为样式名或字体名。
// 指定了 x 或 y 的标签为绝对定位，不占用纵向排列的位置。
func (b *builder) buildLabel(cmd *dsl.Command, x, y, width float64) (LabelBox, bool, error) {
	if cmd.Block == nil {
		return LabelBox{}, false, fmt.Errorf("label 语句缺少文本块")
	}
	name, attrs := parseArgs(cmd.Args, true)
	attrs = mergeStyleAttributes(name, attrs, b.res.Styles)
	fontName := attrs["font"]
	if fontName == "" {
		fontName = name
	}
	if fontName == "" {
		fontName = defaultFontName
	}
	font, err := b.font(fontName)
	if err != nil {
		return LabelBox{}, false, err
	}

	rubyEnabled := parseSwitch(attrs["ruby"], true)
	text, err := b.labelText(cmd.Block, rubyEnabled)
	if err != nil {
		return LabelBox{}, false, err
	}
	if rubyEnabled {
		// 注入值中的花括号不应被当作注音标记
		text = binding.InterpolateRuby(text, b.data)
	} else {
		text = binding.Interpolate(text, b.data)
	}
	opts := label.Options{
		Text:             text,
		Font:             font,
		FontSize:         parseLength(attrs["size"]),
		Width:            width,
		DisableLineBreak: !parseSwitch(attrs["wrap"], true),
		LineGap:          parseLength(attrs["gap"]),
		TextAlign:        label.ParseTextAlign(strings.ToLower(attrs["align"])),
		RubyEnabled:      rubyEnabled,
		FixLineGap:       parseSwitch(attrs["fix-line-gap"], false),
		TrimMarginTop:    parseSwitch(attrs["trim-margin-top"], false),
		WidthAutoAdjust:  parseSwitch(attrs["auto-width"], false),
		FontResolver:     b.rubyFont,
		Surfaces:         b.opts.Surfaces,
		Logger:           b.opts.Logger,
	}
	if v := attrs["width"]; v != "" {
		opts.Width = parseDimension(v, width)
	}
	if v := attrs["color"]; v != "" {
		opts.TextColor = resolveColor(v, b.res).NRGBA()
	}
	if parseSwitch(attrs["graphemes"], false) {
		opts.UnitSplitter = ruby.SplitGraphemes
	}
	if opts.LineBreakRule, err = parseKinsoku(attrs["kinsoku"]); err != nil {
		return LabelBox{}, false, err
	}
	if err := b.applyRubyOptions(&opts.RubyOptions, attrs); err != nil {
		return LabelBox{}, false, err
	}

	l, err := label.New(opts)
	if err != nil {
		return LabelBox{}, false, fmt.Errorf("创建标签失败: %w", err)
	}
	b.created = append(b.created, l)

	w, _ := l.CacheSize()
	box := LabelBox{
		X:        x,
		Y:        y,
		Width:    float64(w),
		Height:   l.Height,
		Text:     opts.Text,
		Font:     fontName,
		FontSize: l.FontSize,
		Align:    opts.TextAlign.String(),
		Label:    l,
	}
	if v := attrs["color"]; v != "" {
		c := resolveColor(v, b.res)
		box.Color = &c
	}
	for _, line := range l.Lines() {
		box.Lines = append(box.Lines, LabelLine{
			Source: line.SourceText,
			Width:  line.Width,
			Height: line.Height,
			Ruby:   line.HasRuby(),
		})
	}

	vx, hasX := attrs["x"]
	vy, hasY := attrs["y"]
	if hasX {
		box.X = parseLength(vx)
	}
	if hasY {
		box.Y = parseLength(vy)
	}
	return box, hasX || hasY, nil
}

func (b *builder) applyRubyOptions(ro *label.RubyOptions, attrs map[string]string) error {
	if v := attrs["ruby-size"]; v != "" {
		size := parseLength(v)
		ro.FontSize = &size
	}
	if v := attrs["ruby-gap"]; v != "" {
		gap := parseLength(v)
		ro.Gap = &gap
	}
	if v := attrs["ruby-align"]; v != "" {
		align, err := parseRubyAlign(v)
		if err != nil {
			return err
		}
		ro.Align = &align
	}
	if v := attrs["ruby-font"]; v != "" {
		if _, ok := b.res.Fonts[v]; !ok {
			return fmt.Errorf("ruby-font %s 未定义", v)
		}
		f, err := b.font(v)
		if err != nil {
			return err
		}
		ro.Font = f
	}
	return nil
}

// parseKinsoku 将 kinsoku 属性转换为改行规则：ja、uax14、ja+uax14 或 none。
func parseKinsoku(v string) (ruby.LineBreakRule, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "none", "off":
		return nil, nil
	case "ja", "japanese":
		return kinsoku.Japanese.Func(), nil
	case "uax14":
		return kinsoku.UAX14(0), nil
	case "ja+uax14", "all":
		return kinsoku.Chain(kinsoku.Japanese.Func(), kinsoku.UAX14(0)), nil
	default:
		return nil, fmt.Errorf("无法识别的 kinsoku 规则：%s", v)
	}
}

func parseRubyAlign(v string) (ruby.RubyAlign, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "center", "0":
		return ruby.Center, nil
	case "space-around", "1":
		return ruby.SpaceAround, nil
	default:
		return 0, fmt.Errorf("无法识别的 ruby-align：%s", v)
	}
}

// parseSwitch 解析 on/off 类属性，空值或无法识别时返回 def。
func parseSwitch(v string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "yes", "1":
		return true
	case "off", "false", "no", "0":
		return false
	default:
		return def
	}
}

func collectResources(doc *dsl.Document) (ResourceSet, error) {
	res := ResourceSet{
		Fonts:  map[string]FontResource{},
		Colors: map[string]Color{},
		Styles: map[string]Style{},
	}
	rawStyles := map[string]Style{}

	for _, section := range doc.Sections {
		if section.Resources == nil || section.Resources.Block == nil {
			continue
		}
		for _, stmt := range section.Resources.Block.Statements {
			if stmt.Command == nil {
				continue
			}
			switch stmt.Command.Name {
			case "font":
				font := parseFontResource(stmt.Command, FontDynamic)
				if font.Name != "" {
					res.Fonts[font.Name] = font
				}
			case "bitmap":
				font := parseFontResource(stmt.Command, FontBitmap)
				if font.Name != "" {
					res.Fonts[font.Name] = font
				}
			case "color":
				name, value := parseColorResource(stmt.Command)
				if name == "" || value == "" {
					continue
				}
				if c, err := parseColor(value); err == nil {
					res.Colors[name] = c
				}
			case "style":
				style := parseStyleResource(stmt.Command)
				if style.Name != "" {
					rawStyles[style.Name] = style
				}
			}
		}
	}

	if len(res.Fonts) == 0 {
		res.Fonts[defaultFontName] = FontResource{
			Name: defaultFontName,
			Kind: FontDynamic,
			Src:  "builtin:goregular",
		}
	}

	resolvedStyles, err := resolveStyles(rawStyles)
	if err != nil {
		return res, err
	}
	res.Styles = resolvedStyles

	return res, nil
}

func collectMeta(doc *dsl.Document) DocumentMeta {
	meta := DocumentMeta{
		Creator: "rubytext",
	}
	for _, section := range doc.Sections {
		if section.Meta == nil || section.Meta.Block == nil {
			continue
		}
		for _, stmt := range section.Meta.Block.Statements {
			if stmt.Assignment == nil {
				continue
			}
			key := strings.ToLower(stmt.Assignment.Key)
			switch key {
			case "title":
				meta.Title = valueToString(stmt.Assignment.Value)
			case "author":
				meta.Author = valueToString(stmt.Assignment.Value)
			case "subject":
				meta.Subject = valueToString(stmt.Assignment.Value)
			case "creator":
				meta.Creator = valueToString(stmt.Assignment.Value)
			case "keywords":
				meta.Keywords = valueToStringSlice(stmt.Assignment.Value)
			}
		}
	}
	return meta
}

// parseFontResource 解析 font/bitmap 资源块：src、glyphs、size、cache。
func parseFontResource(cmd *dsl.Command, kind FontKind) FontResource {
	if len(cmd.Args) == 0 {
		return FontResource{}
	}
	font := FontResource{
		Name: cmd.Args[0].Value,
		Kind: kind,
	}

	if cmd.Block == nil {
		return font
	}
	for _, stmt := range cmd.Block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		val := valueToString(stmt.Assignment.Value)
		switch stmt.Assignment.Key {
		case "src":
			font.Src = val
		case "glyphs":
			font.Glyphs = val
		case "size":
			font.Size = parseLength(val)
		case "cache":
			if n, err := strconv.Atoi(val); err == nil {
				font.CacheSize = n
			}
		}
	}
	return font
}

func parseStyleResource(cmd *dsl.Command) Style {
	if len(cmd.Args) == 0 {
		return Style{}
	}
	style := Style{
		Name:  cmd.Args[0].Value,
		Props: map[string]string{},
	}
	if len(cmd.Args) >= 3 && strings.EqualFold(cmd.Args[1].Value, "extends") {
		style.Extends = cmd.Args[2].Value
	}

	if cmd.Block == nil {
		return style
	}

	for _, stmt := range cmd.Block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		val := valueToString(stmt.Assignment.Value)
		if val == "" {
			continue
		}
		style.Props[stmt.Assignment.Key] = val
	}
	return style
}

func resolveStyles(styles map[string]Style) (map[string]Style, error) {
	resolved := map[string]Style{}
	visiting := map[string]bool{}

	var dfs func(name string) (Style, error)
	dfs = func(name string) (Style, error) {
		if style, ok := resolved[name]; ok {
			return style, nil
		}
		style, ok := styles[name]
		if !ok {
			return Style{}, fmt.Errorf("style %s 未定义", name)
		}
		if visiting[name] {
			return Style{}, fmt.Errorf("style 继承存在循环：%s", name)
		}
		visiting[name] = true

		props := map[string]string{}
		if style.Extends != "" {
			parent, err := dfs(style.Extends)
			if err != nil {
				return Style{}, err
			}
			for k, v := range parent.Props {
				props[k] = v
			}
		}
		for k, v := range style.Props {
			props[k] = v
		}
		style.Props = props
		resolved[name] = style
		delete(visiting, name)
		return style, nil
	}

	for name := range styles {
		if _, err := dfs(name); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

func parseColorResource(cmd *dsl.Command) (string, string) {
	if len(cmd.Args) == 0 {
		return "", ""
	}
	name := cmd.Args[0].Value
	value := ""
	if len(cmd.Args) > 1 {
		value = cmd.Args[len(cmd.Args)-1].Value
	}
	return name, value
}

func canvasSections(doc *dsl.Document) []*dsl.CanvasSection {
	var out []*dsl.CanvasSection
	for _, section := range doc.Sections {
		if section.Canvas != nil {
			out = append(out, section.Canvas)
		}
	}
	return out
}

func resolveCanvasSize(spec dsl.CanvasSpec) (float64, float64, error) {
	width := parseLength(spec.Width)
	height := parseLength(spec.Height)
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("画布尺寸无效：%s x %s", spec.Width, spec.Height)
	}
	return width, height, nil
}

// paramValue 返回 key 之后的那个参数值。
func paramValue(params []*dsl.Lexeme, key string) string {
	for i := 0; i+1 < len(params); i++ {
		if params[i].Value == key {
			return params[i+1].Value
		}
	}
	return ""
}

// resolvePadding 解析 padding 之后的 1~4 个长度（CSS 语义），默认为 0。
func resolvePadding(params []*dsl.Lexeme) Margin {
	var padding Margin
	for i := 0; i < len(params); i++ {
		if params[i].Value != "padding" {
			continue
		}
		vals := []float64{}
		for j := i + 1; j < len(params) && len(vals) < 4; j++ {
			// 遇到非数值参数（如 background）即停止
			if params[j].Type != "Number" {
				break
			}
			vals = append(vals, parseLength(params[j].Value))
		}
		switch len(vals) {
		case 1:
			v := vals[0]
			padding = Margin{Top: v, Right: v, Bottom: v, Left: v}
		case 2:
			padding = Margin{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}
		case 3:
			padding = Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[1]}
		case 4:
			padding = Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}
		}
	}
	return padding
}

func parseArgs(args []*dsl.Lexeme, allowStyle bool) (string, map[string]string) {
	result := map[string]string{}
	if len(args) == 0 {
		return "", result
	}

	cursor := 0
	var style string
	if allowStyle && args[0].Type == "Ident" && len(args)%2 == 1 {
		style = args[0].Value
		cursor = 1
	}

	for cursor < len(args)-1 {
		key := args[cursor].Value
		val := args[cursor+1].Value
		result[key] = val
		cursor += 2
	}

	return style, result
}

func mergeStyleAttributes(style string, inline map[string]string, styles map[string]Style) map[string]string {
	out := make(map[string]string)
	if style != "" {
		if s, ok := styles[style]; ok {
			for k, v := range s.Props {
				out[k] = v
			}
		}
	}
	for k, v := range inline {
		out[k] = v
	}
	return out
}

// labelText 拼接文本块中的字符串与 ruby(...) 语句。ruby 关闭时 ruby(...) 只保留本文。
func (b *builder) labelText(block *dsl.Block, rubyEnabled bool) (string, error) {
	if block == nil {
		return "", nil
	}
	var builder strings.Builder
	for _, stmt := range block.Statements {
		switch {
		case stmt.Text != nil:
			builder.WriteString(string(stmt.Text.Value))
		case stmt.Ruby != nil && !rubyEnabled:
			builder.WriteString(string(stmt.Ruby.Base))
		case stmt.Ruby != nil:
			marker, err := b.rubyMarker(stmt.Ruby)
			if err != nil {
				return "", fmt.Errorf("%s: ruby 语句无效: %w", stmt.Ruby.Pos, err)
			}
			builder.WriteString(marker)
		}
	}
	return builder.String(), nil
}

// rubyMarker 将 ruby(...) 语句转换为注音标记。rb / rt 先完成数据绑定，
// 标记会转义其中的花括号，之后对整段文本的绑定不会再改写它们。
func (b *builder) rubyMarker(r *dsl.RubyLiteral) (string, error) {
	var opts ruby.RubyOptions
	for _, opt := range r.Options {
		v := string(opt.Value)
		switch strings.ToLower(opt.Key) {
		case "size", "rubyfontsize":
			size := parseLength(v)
			opts.FontSize = &size
		case "gap", "rubygap":
			gap := parseLength(v)
			opts.Gap = &gap
		case "align", "rubyalign":
			align, err := parseRubyAlign(v)
			if err != nil {
				return "", err
			}
			opts.Align = &align
		case "font", "rubyfont":
			if _, ok := b.res.Fonts[v]; !ok {
				return "", fmt.Errorf("ruby 字体 %s 未定义", v)
			}
			opts.FontName = &v
		default:
			return "", fmt.Errorf("未知的 ruby 选项 %s", opt.Key)
		}
	}
	base := binding.Interpolate(string(r.Base), b.data)
	reading := binding.Interpolate(string(r.Reading), b.data)
	return ruby.Marker(base, reading, opts)
}

func resolveFontResource(name string, res ResourceSet) (FontResource, error) {
	if font, ok := res.Fonts[name]; ok {
		return font, nil
	}
	if font, ok := res.Fonts[defaultFontName]; ok {
		return font, nil
	}
	for _, font := range res.Fonts {
		return font, nil
	}
	return FontResource{}, fmt.Errorf("字体 %s 未定义，且没有可用的默认字体", name)
}

func resolveColor(value string, res ResourceSet) Color {
	if value == "" {
		return Color{}
	}
	if c, ok := res.Colors[value]; ok {
		return c
	}
	if strings.HasPrefix(value, "#") {
		if c, err := parseColor(value); err == nil {
			return c
		}
	}
	return Color{}
}

func parseColor(value string) (Color, error) {
	value = strings.TrimPrefix(value, "#")
	switch len(value) {
	case 3:
		r := strings.Repeat(string(value[0]), 2)
		g := strings.Repeat(string(value[1]), 2)
		b := strings.Repeat(string(value[2]), 2)
		return Color{
			R: mustHex(r),
			G: mustHex(g),
			B: mustHex(b),
		}, nil
	case 6, 8:
		return Color{
			R: mustHex(value[0:2]),
			G: mustHex(value[2:4]),
			B: mustHex(value[4:6]),
		}, nil
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
}

// --- Shapes parsing helpers ---

// parseLineShape supports both full form (x1/y1/x2/y2) and simplified form:
//
//	line x <len> y <len> length <len> [dir h|v] [color <..>] [width <len>]
func parseLineShape(attrs map[string]string, res ResourceSet) (Line, bool) {
	var ln Line
	x1 := parseLength(attrs["x1"])
	y1 := parseLength(attrs["y1"])
	x2 := parseLength(attrs["x2"])
	y2 := parseLength(attrs["y2"])
	switch {
	case x1 != 0 || y1 != 0 || x2 != 0 || y2 != 0:
		ln.X1, ln.Y1, ln.X2, ln.Y2 = x1, y1, x2, y2
	case parseLength(attrs["length"]) > 0:
		x := parseLength(attrs["x"])
		y := parseLength(attrs["y"])
		length := parseLength(attrs["length"])
		switch strings.ToLower(strings.TrimSpace(attrs["dir"])) {
		case "", "h", "hor", "horizontal":
			ln.X1, ln.Y1, ln.X2, ln.Y2 = x, y, x+length, y
		case "v", "ver", "vertical":
			ln.X1, ln.Y1, ln.X2, ln.Y2 = x, y, x, y+length
		default:
			return Line{}, false
		}
	default:
		return Line{}, false
	}
	ln.Color = resolveColor(attrs["color"], res)
	ln.Width = parseLength(attrs["width"])
	return ln, true
}

func parseRectShape(attrs map[string]string, res ResourceSet) (Rect, bool) {
	rc := Rect{
		X:      parseLength(attrs["x"]),
		Y:      parseLength(attrs["y"]),
		Width:  parseLength(attrs["width"]),
		Height: parseLength(attrs["height"]),
	}
	if rc.Width <= 0 || rc.Height <= 0 {
		return Rect{}, false
	}
	rc.StrokeColor = resolveColor(attrs["stroke"], res)
	rc.StrokeWidth = parseLength(attrs["stroke-width"])
	if v := attrs["fill"]; v != "" {
		c := resolveColor(v, res)
		rc.FillColor = &c
	}
	return rc, true
}

func mustHex(s string) int {
	v, _ := strconv.ParseInt(s, 16, 64)
	return int(v)
}

// parseLength 将 DSL 长度换算为 px，无单位数值按 px 处理。
func parseLength(value string) float64 {
	if value == "" {
		return 0
	}
	return ParseRawLengthStr(value).ToPX()
}

func parseDimension(value string, reference float64) float64 {
	if value == "" {
		return 0
	}
	if strings.HasSuffix(value, "%") {
		num := strings.TrimSuffix(value, "%")
		if f, err := strconv.ParseFloat(num, 64); err == nil {
			return reference * f / 100
		}
		return 0
	}
	return parseLength(value)
}

func valueToString(val *dsl.Value) string {
	if val == nil {
		return ""
	}
	switch {
	case val.String != nil:
		return string(*val.String)
	case val.Number != nil:
		return *val.Number
	case val.Color != nil:
		return *val.Color
	case val.Expr != nil:
		var builder strings.Builder
		for _, part := range val.Expr.Parts {
			builder.WriteString(part.Value)
		}
		return builder.String()
	default:
		return ""
	}
}

func valueToStringSlice(val *dsl.Value) []string {
	if val == nil {
		return nil
	}
	if val.Array != nil {
		out := make([]string, 0, len(val.Array.Values))
		for _, item := range val.Array.Values {
			if s := valueToString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := valueToString(val); s != "" {
		return []string{s}
	}
	return nil
}
