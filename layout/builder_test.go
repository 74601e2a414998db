package layout

import (
	"errors"
	"strings"
	"testing"

	"github.com/ByLCY/rubytext/dsl"
	"github.com/ByLCY/rubytext/label"
	"github.com/ByLCY/rubytext/renderer/raster"
)

// fixedFont 是等宽的测试字体：每个字符 10x10，前进宽度 10。
type fixedFont struct {
	name string
	size float64
}

func (f *fixedFont) GlyphForCharacter(code rune) *label.Glyph {
	return &label.Glyph{Code: code, Width: f.size, Height: f.size, AdvanceWidth: f.size}
}

func (f *fixedFont) Size() float64 { return f.size }

// stubLoader 记录加载过的字体资源，避免测试依赖真实字体文件。
type stubLoader struct {
	loaded []FontResource
	fail   map[string]bool
}

func (l *stubLoader) LoadFont(res FontResource) (label.Font, error) {
	if l.fail[res.Name] {
		return nil, errors.New("boom")
	}
	l.loaded = append(l.loaded, res)
	size := res.Size
	if size == 0 {
		size = 10
	}
	return &fixedFont{name: res.Name, size: size}, nil
}

func build(t *testing.T, dslText string, data any) (*Result, *stubLoader) {
	t.Helper()
	doc, err := dsl.ParseString(dslText)
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	loader := &stubLoader{}
	res, err := Build(doc, data, BuildOptions{Fonts: loader, Surfaces: raster.Factory{}})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	t.Cleanup(res.Close)
	return res, loader
}

func lineSources(lb LabelBox) []string {
	out := make([]string, 0, len(lb.Lines))
	for _, ln := range lb.Lines {
		out = append(out, ln.Source)
	}
	return out
}

func TestBuildStacksLabels(t *testing.T) {
	dslText := `doc T v1 {
  resources {
    font Body { src: "builtin:goregular" size: 10 }
  }
  canvas 100px 200px padding 5px background #eeeeee {
    label Body width 50px { "abcdefgh" }
    label Body { "xyz" }
    label Body x 60 y 150 { "abs" }
    label Body { "last" }
  }
}`
	res, loader := build(t, dslText, nil)
	if len(res.Pages) != 1 {
		t.Fatalf("期望 1 个画布，实际 %d", len(res.Pages))
	}
	page := res.Pages[0]
	if page.Width != 100 || page.Height != 200 {
		t.Fatalf("画布尺寸错误: %vx%v", page.Width, page.Height)
	}
	if page.Background == nil || page.Background.R != 0xee {
		t.Fatalf("背景色错误: %+v", page.Background)
	}
	if len(page.Labels) != 4 {
		t.Fatalf("期望 4 个标签，实际 %d", len(page.Labels))
	}

	first := page.Labels[0]
	if first.X != 5 || first.Y != 5 {
		t.Fatalf("第一个标签应位于内边距处: (%v,%v)", first.X, first.Y)
	}
	if got := lineSources(first); strings.Join(got, "|") != "abcde|fgh" {
		t.Fatalf("分行错误: %v", got)
	}
	if first.Height != 20 || first.Width != 50 {
		t.Fatalf("标签尺寸错误: %vx%v", first.Width, first.Height)
	}

	second := page.Labels[1]
	if second.Y != first.Y+first.Height+labelSpacing {
		t.Fatalf("标签应纵向排列，实际 y=%v", second.Y)
	}
	if second.Width != 90 {
		t.Fatalf("未指定 width 时应使用内容区宽度，实际 %v", second.Width)
	}

	abs := page.Labels[2]
	if abs.X != 60 || abs.Y != 150 {
		t.Fatalf("绝对定位错误: (%v,%v)", abs.X, abs.Y)
	}
	if last := page.Labels[3]; last.Y != second.Y+second.Height+labelSpacing {
		t.Fatalf("绝对定位的标签不应占用纵向位置，实际 y=%v", last.Y)
	}
	if len(loader.loaded) != 1 {
		t.Fatalf("同名字体应只加载一次，实际 %d 次", len(loader.loaded))
	}
}

func TestBuildLabelAttributes(t *testing.T) {
	dslText := `doc T v1 {
  resources {
    font Body { src: "builtin:goregular" size: 10 }
    font Small { src: "builtin:gomono" size: 5 }
    color Accent = #ff0000
  }
  canvas 200px 200px {
    label Body size 20 align center color Accent ruby-size 8 ruby-gap 2 ruby-align center ruby-font Small kinsoku ja {
      "{\"rb\":\"漢\",\"rt\":\"かん\"}字。"
    }
  }
}`
	res, _ := build(t, dslText, nil)
	lb := res.Pages[0].Labels[0]
	if lb.FontSize != 20 || lb.Align != "center" {
		t.Fatalf("属性未生效: %+v", lb)
	}
	if lb.Color == nil || lb.Color.R != 255 {
		t.Fatalf("颜色应解析为资源 Accent: %+v", lb.Color)
	}
	l := lb.Label
	if l.TextColor == nil || l.LineBreakRule == nil || !l.RubyEnabled {
		t.Fatalf("标签选项未传递")
	}
	ro := l.RubyOptions
	if ro.FontSize == nil || *ro.FontSize != 8 || ro.Gap == nil || *ro.Gap != 2 || ro.Align == nil {
		t.Fatalf("注音选项错误: %+v", ro)
	}
	if f, ok := ro.Font.(*fixedFont); !ok || f.name != "Small" {
		t.Fatalf("ruby-font 应加载 Small: %+v", ro.Font)
	}
	if len(lb.Lines) != 1 || !lb.Lines[0].Ruby {
		t.Fatalf("应有一行含注音的文本: %+v", lb.Lines)
	}
}

func TestBuildStylesAndInterpolation(t *testing.T) {
	dslText := `doc T v1 {
  resources {
    font Body { src: "builtin:goregular" size: 10 }
    font Title { src: "builtin:gobold" size: 12 }
    style Base { font: Title; ruby: off }
    style Heading extends Base { size: 24 }
  }
  canvas 300px 100px {
    label Heading { "Hi ${user.name}" }
    label Body { "Hi ${user.name}" }
  }
}`
	data := map[string]any{"user": map[string]any{"name": "{a}"}}
	res, _ := build(t, dslText, data)
	lb := res.Pages[0].Labels[0]
	if lb.Font != "Title" || lb.FontSize != 24 {
		t.Fatalf("样式继承未生效: font=%s size=%v", lb.Font, lb.FontSize)
	}
	if lb.Label.RubyEnabled {
		t.Fatalf("样式中的 ruby: off 应关闭注音")
	}
	if lb.Text != "Hi {a}" {
		t.Fatalf("关闭注音时注入值应原样保留，实际 %q", lb.Text)
	}

	withRuby := res.Pages[0].Labels[1]
	if withRuby.Text != `Hi \{a\}` {
		t.Fatalf("注入值中的花括号应被转义，实际 %q", withRuby.Text)
	}
	if got := lineSources(withRuby); len(got) != 1 || got[0] != "Hi {a}" {
		t.Fatalf("转义后的花括号应按原文显示: %v", got)
	}
}

func TestBuildRubyStatements(t *testing.T) {
	dslText := `doc T v1 {
  resources {
    font Body { src: "builtin:goregular" size: 10 }
    font Small { src: "builtin:goregular" size: 5 }
  }
  canvas 300px 100px {
    label Body {
      "A"
      ruby("漢${x}", "かん", size: 4, align: "center", font: "Small")
      "B"
    }
    label Body ruby off { ruby("漢", "かん") }
  }
}`
	res, _ := build(t, dslText, map[string]any{"x": "{z}"})
	lb := res.Pages[0].Labels[0]
	want := `A{"rb":"漢\{z\}","rt":"かん","rubyFontSize":4,"rubyAlign":0,"rubyFont":"Small"}B`
	if lb.Text != want {
		t.Fatalf("ruby 语句应转换为注音标记:\n got %s\nwant %s", lb.Text, want)
	}
	if lb.Label.LineCount() != 1 || lb.Label.Lines()[0].Height <= 10 {
		t.Fatalf("注音应占用额外的行高: %+v", lb.Label.Lines())
	}
	if plain := res.Pages[0].Labels[1]; plain.Text != "漢" {
		t.Fatalf("关闭注音时只保留本文，实际 %q", plain.Text)
	}

	opts := BuildOptions{Fonts: &stubLoader{}, Surfaces: raster.Factory{}}
	for _, src := range []string{
		`label Body { ruby("a", "b", bogus: 1) }`,
		`label Body { ruby("a", "b", font: "Nope") }`,
		`label Body { ruby("a", "b", align: "left") }`,
		"label Body { ruby(`say \"hi\"`, \"b\") }",
	} {
		doc, err := dsl.ParseString(`doc T v1 { resources { font Body { src: "a" } } canvas 10 10 { ` + src + ` } }`)
		if err != nil {
			t.Fatalf("解析 DSL 失败: %v", err)
		}
		if _, err := Build(doc, nil, opts); err == nil {
			t.Fatalf("无效的 ruby 语句应报错: %s", src)
		}
	}
}

func TestBuildShapes(t *testing.T) {
	dslText := `doc T v1 {
  canvas 100px 100px {
    line x 0 y 10 length 50 color #00ff00 width 2
    line x1 1 y1 2 x2 3 y2 4
    line x 0 y 0 length 10 dir diagonal
    rect x 1 y 2 width 3 height 4 stroke #000 fill #fff
    rect x 1 y 2 width 0 height 4
  }
}`
	res, _ := build(t, dslText, nil)
	page := res.Pages[0]
	if len(page.Lines) != 2 {
		t.Fatalf("期望 2 条线，实际 %d", len(page.Lines))
	}
	if ln := page.Lines[0]; ln.X2 != 50 || ln.Y2 != 10 || ln.Color.G != 255 || ln.Width != 2 {
		t.Fatalf("简写线段解析错误: %+v", ln)
	}
	if len(page.Rects) != 1 || page.Rects[0].FillColor == nil {
		t.Fatalf("矩形解析错误: %+v", page.Rects)
	}
	if len(page.Labels) != 0 {
		t.Fatalf("不应生成标签")
	}
}

func TestBuildDefaultFontAndMeta(t *testing.T) {
	dslText := `doc T v1 {
  meta { title: "Ruby"; keywords: ["a", "b"] }
  canvas 10cm 5cm { label { "x" } }
}`
	res, loader := build(t, dslText, nil)
	if len(loader.loaded) != 1 || loader.loaded[0].Src != "builtin:goregular" {
		t.Fatalf("未定义字体时应使用内置默认字体: %+v", loader.loaded)
	}
	if res.Meta.Title != "Ruby" || res.Meta.Creator != "rubytext" || len(res.Meta.Keywords) != 2 {
		t.Fatalf("元信息错误: %+v", res.Meta)
	}
	if w := res.Pages[0].Width; w < 377 || w > 378 {
		t.Fatalf("10cm 应换算为约 378px，实际 %v", w)
	}
}

func TestResolvePadding(t *testing.T) {
	cases := []struct {
		src  string
		want Margin
	}{
		{`canvas 10 10 { }`, Margin{}},
		{`canvas 10 10 padding 1 { }`, Margin{1, 1, 1, 1}},
		{`canvas 10 10 padding 1 2 { }`, Margin{1, 2, 1, 2}},
		{`canvas 10 10 padding 1 2 3 background #fff { }`, Margin{1, 2, 3, 2}},
		{`canvas 10 10 padding 1 2 3 4 { }`, Margin{1, 2, 3, 4}},
	}
	for _, c := range cases {
		doc, err := dsl.ParseString(`doc T v1 { ` + c.src + ` }`)
		if err != nil {
			t.Fatalf("%s: %v", c.src, err)
		}
		got := resolvePadding(doc.Sections[0].Canvas.Spec.Params)
		if got != c.want {
			t.Fatalf("%s: 期望 %+v，实际 %+v", c.src, c.want, got)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	parse := func(src string) *dsl.Document {
		doc, err := dsl.ParseString(src)
		if err != nil {
			t.Fatalf("解析 DSL 失败: %v", err)
		}
		return doc
	}
	opts := BuildOptions{Fonts: &stubLoader{}, Surfaces: raster.Factory{}}

	if _, err := Build(nil, nil, opts); err == nil {
		t.Fatalf("空文档应报错")
	}
	ok := parse(`doc T v1 { canvas 10 10 { } }`)
	if _, err := Build(ok, nil, BuildOptions{Surfaces: raster.Factory{}}); err == nil {
		t.Fatalf("缺少字体加载器应报错")
	}
	if _, err := Build(ok, nil, BuildOptions{Fonts: &stubLoader{}}); err == nil {
		t.Fatalf("缺少 Surface 后端应报错")
	}
	if _, err := Build(parse(`doc T v1 { meta { title: "x" } }`), nil, opts); err == nil {
		t.Fatalf("缺少 canvas 应报错")
	}
	if _, err := Build(parse(`doc T v1 { canvas 0 10 { } }`), nil, opts); err == nil {
		t.Fatalf("零尺寸画布应报错")
	}
	cyclic := `doc T v1 { resources { style A extends B { size: 1 } style B extends A { size: 2 } } canvas 10 10 { } }`
	if _, err := Build(parse(cyclic), nil, opts); err == nil || !strings.Contains(err.Error(), "循环") {
		t.Fatalf("循环继承应报错，实际 %v", err)
	}
	if _, err := Build(parse(`doc T v1 { canvas 10 10 { label kinsoku zh { "x" } } }`), nil, opts); err == nil {
		t.Fatalf("未知 kinsoku 规则应报错")
	}
	if _, err := Build(parse(`doc T v1 { canvas 10 10 { label ruby-font Nope { "x" } } }`), nil, opts); err == nil {
		t.Fatalf("未定义的 ruby-font 应报错")
	}

	// 出错时已创建的标签会被销毁
	failing := &stubLoader{fail: map[string]bool{"Bad": true}}
	doc := parse(`doc T v1 {
  resources { font Body { src: "a" } font Bad { src: "b" } }
  canvas 10 10 { label Body { "x" } }
  canvas 10 10 { label Bad { "y" } }
}`)
	if _, err := Build(doc, nil, BuildOptions{Fonts: failing, Surfaces: raster.Factory{}}); err == nil {
		t.Fatalf("字体加载失败应报错")
	}
}

func TestResultClose(t *testing.T) {
	doc, err := dsl.ParseString(`doc T v1 { canvas 100 100 { label { "a" } label { "b" } } }`)
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	res, err := Build(doc, nil, BuildOptions{Fonts: &stubLoader{}, Surfaces: raster.Factory{}})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	res.Close()
	for _, lb := range res.Pages[0].Labels {
		if !lb.Label.Destroyed() {
			t.Fatalf("Close 后标签应被销毁")
		}
	}
	var nilResult *Result
	nilResult.Close()
}
