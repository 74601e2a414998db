package label

import (
	"strings"
	"testing"

	"github.com/ByLCY/rubytext/kinsoku"
	"github.com/ByLCY/rubytext/ruby"
)

// divide 以 fontSize 10、换行宽度 105 的默认配置划分 text（启用注音）。
func divide(t *testing.T, text string, mutate func(*Options)) []*LineInfo {
	t.Helper()
	opts := Options{Text: text, FontSize: 10, Width: 105, RubyEnabled: true}
	if mutate != nil {
		mutate(&opts)
	}
	l, _ := newTestLabel(t, opts)
	return l.Lines()
}

type wantLine struct {
	source string
	width  float64
	height float64
}

func checkLines(t *testing.T, got []*LineInfo, want []wantLine) {
	t.Helper()
	if len(got) != len(want) {
		var sources []string
		for _, l := range got {
			sources = append(sources, l.SourceText)
		}
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(got), sources)
	}
	for i, w := range want {
		g := got[i]
		if g.SourceText != w.source || g.Width != w.width || g.Height != w.height {
			t.Fatalf("line %d = {%q %v %v}, want {%q %v %v}",
				i, g.SourceText, g.Width, g.Height, w.source, w.width, w.height)
		}
		if g.MinMinusOffsetY != 0 {
			t.Fatalf("line %d minMinusOffsetY = %v", i, g.MinMinusOffsetY)
		}
	}
}

func TestDivideSingleLine(t *testing.T) {
	lines := divide(t, "1234567890", nil)
	checkLines(t, lines, []wantLine{{"1234567890", 100, 10}})
	s, ok := lines[0].Fragments[0].(*StringDrawInfo)
	if !ok || len(lines[0].Fragments) != 1 || s.Text != "1234567890" || len(s.Glyphs) != 10 {
		t.Fatalf("unexpected fragments: %#v", lines[0].Fragments)
	}
}

func TestDivideWrapsAtWidth(t *testing.T) {
	lines := divide(t, strings.Repeat("1234567890", 3), nil)
	checkLines(t, lines, []wantLine{
		{"1234567890", 100, 10},
		{"1234567890", 100, 10},
		{"1234567890", 100, 10},
	})
}

func TestDivideRubyWrapsAsAUnit(t *testing.T) {
	marker := `{"rb": "1234567890", "rt": "number"}`
	lines := divide(t, "12345"+marker+"1234567890", nil)
	checkLines(t, lines, []wantLine{
		{"12345", 50, 10},
		{marker, 100, 10 + 5 + 0},
		{"1234567890", 100, 10},
	})
	ri, ok := lines[1].Fragments[0].(*RubyDrawInfo)
	if !ok {
		t.Fatalf("expected ruby fragment, got %#v", lines[1].Fragments[0])
	}
	if ri.Width != 100 || ri.BaseWidth != 100 || ri.ReadingWidth != 30 {
		t.Fatalf("unexpected ruby widths: %v %v %v", ri.Width, ri.BaseWidth, ri.ReadingWidth)
	}
	if ri.Unit.Base != "1234567890" || ri.Unit.Reading != "number" || len(ri.ReadingGlyphs) != 6 {
		t.Fatalf("unexpected ruby unit: %+v", ri.Unit)
	}
}

func TestDivideRubyInsideLine(t *testing.T) {
	marker := `{"rb": "45678", "rt": "fiv"}`
	lines := divide(t, "123"+marker+"901234567890", nil)
	checkLines(t, lines, []wantLine{
		{"123" + marker + "90", 100, 15},
		{"1234567890", 100, 10},
	})
	frags := lines[0].Fragments
	if len(frags) != 3 {
		t.Fatalf("expected 3 fragments, got %d", len(frags))
	}
	if frags[0].SourceText() != "123" || frags[0].DrawWidth() != 30 {
		t.Fatalf("unexpected head: %#v", frags[0])
	}
	if ri := frags[1].(*RubyDrawInfo); ri.Width != 50 || ri.ReadingWidth != 15 {
		t.Fatalf("unexpected ruby: %+v", ri)
	}
	if frags[2].SourceText() != "90" || frags[2].DrawWidth() != 20 {
		t.Fatalf("unexpected tail: %#v", frags[2])
	}
}

func TestDivideConsecutiveRuby(t *testing.T) {
	one := `{"rb": "123", "rt": "ruby one"}`
	two := `{"rb": "45", "rt": "ruby two"}`
	lines := divide(t, one+two+"6789012", nil)
	checkLines(t, lines, []wantLine{
		{one + two + "67", 100, 15},
		{"89012", 50, 10},
	})
	first := lines[0].Fragments[0].(*RubyDrawInfo)
	if first.Width != 40 || first.BaseWidth != 30 || first.ReadingWidth != 40 {
		t.Fatalf("unexpected widths: %+v", first)
	}
}

func TestDivideHardBreaks(t *testing.T) {
	lines := divide(t, "01234\r56789\n01234\r\n56789", nil)
	checkLines(t, lines, []wantLine{
		{"01234", 50, 10},
		{"56789", 50, 10},
		{"01234", 50, 10},
		{"56789", 50, 10},
	})
}

func TestDivideEmptyInputs(t *testing.T) {
	checkLines(t, divide(t, "", nil), []wantLine{{"", 0, 10}})
	checkLines(t, divide(t, `{"rb": "", "rt": ""}`, nil), []wantLine{{"", 0, 10}})

	lines := divide(t, `123{"rb": "", "rt": ""}456`, nil)
	checkLines(t, lines, []wantLine{{"123456", 60, 10}})
	if len(lines[0].Fragments) != 1 {
		t.Fatalf("zero width ruby must not split the text run: %d fragments", len(lines[0].Fragments))
	}
}

func TestDivideWithRubyOptions(t *testing.T) {
	text := `12345{"rb": "1234567890", "rt": "number", "rubyFontSize": 5}`
	lines := divide(t, text, func(o *Options) {
		size, gap, align := 5.0, 2.0, ruby.Center
		o.DisableLineBreak = true
		o.LineGap = 2
		o.FixLineGap = true
		o.RubyOptions = RubyOptions{FontSize: &size, Gap: &gap, Align: &align}
	})
	checkLines(t, lines, []wantLine{{text, 150, 10 + 5 + 2}})
}

func TestFixLineGapWithoutRuby(t *testing.T) {
	lines := divide(t, "abc", func(o *Options) {
		gap := 2.0
		o.FixLineGap = true
		o.RubyOptions.Gap = &gap
	})
	checkLines(t, lines, []wantLine{{"abc", 30, 10 + 5 + 2}})
}

func TestPerUnitRubyFontSizeRaisesBand(t *testing.T) {
	lines := divide(t, `{"rb": "ab", "rt": "x", "rubyFontSize": 8, "rubyGap": 3}c`, nil)
	checkLines(t, lines, []wantLine{{`{"rb": "ab", "rt": "x", "rubyFontSize": 8, "rubyGap": 3}c`, 30, 10 + 8 + 3}})
}

func TestRubyFontResolver(t *testing.T) {
	small := newStubFont()
	small.size = 100
	lines := divide(t, `{"rb": "a", "rt": "xyz", "rubyFont": "small"}`, func(o *Options) {
		o.FontResolver = func(name string) Font {
			if name == "small" {
				return small
			}
			return nil
		}
	})
	ri := lines[0].Fragments[0].(*RubyDrawInfo)
	// 5 / 100 * 50 * 3
	if ri.ReadingWidth != 7.5 {
		t.Fatalf("reading width = %v", ri.ReadingWidth)
	}

	lines = divide(t, `{"rb": "a", "rt": "xyz", "rubyFont": "unknown"}`, nil)
	if ri := lines[0].Fragments[0].(*RubyDrawInfo); ri.ReadingWidth != 15 {
		t.Fatalf("unknown ruby font should fall back, reading width = %v", ri.ReadingWidth)
	}
}

func TestGraphemeUnits(t *testing.T) {
	cluster := "e\u0301"
	lines := divide(t, cluster+cluster, func(o *Options) {
		o.UnitSplitter = ruby.SplitGraphemes
		o.Width = 30
	})
	// 每个字素簇占两个字形
	checkLines(t, lines, []wantLine{{cluster, 20, 10}, {cluster, 20, 10}})
}

func textRule(at string, delta int) ruby.LineBreakRule {
	return func(fragments []ruby.Fragment, index int) int {
		if fragments[index] == ruby.Text(at) {
			return index + delta
		}
		return index
	}
}

func TestLineBreakRuleRollback(t *testing.T) {
	l, _ := newTestLabel(t, Options{
		Text: "0123456", FontSize: 10, Width: 30, LineGap: 2,
		LineBreakRule: textRule("3", -1),
	})
	got := sourceTexts(l)
	if len(got) != 2 || got[0] != "01" || got[1] != "234" {
		t.Fatalf("unexpected lines: %q", got)
	}
}

func TestLineBreakRuleDefer(t *testing.T) {
	l, _ := newTestLabel(t, Options{
		Text: "0123456", FontSize: 10, Width: 30, LineGap: 2,
		LineBreakRule: textRule("3", 1),
	})
	got := sourceTexts(l)
	if len(got) != 2 || got[0] != "0123" || got[1] != "456" {
		t.Fatalf("unexpected lines: %q", got)
	}
}

func TestDeferredBreakOnHardBreak(t *testing.T) {
	l, _ := newTestLabel(t, Options{
		Text: "0123\n45", FontSize: 10, Width: 30,
		LineBreakRule: textRule("3", 1),
	})
	got := sourceTexts(l)
	if len(got) != 2 || got[0] != "0123" || got[1] != "45" {
		t.Fatalf("unexpected lines: %q", got)
	}
}

func TestRollbackPastLineStartBreaksInPlace(t *testing.T) {
	l, _ := newTestLabel(t, Options{
		Text: "0123456", FontSize: 10, Width: 30,
		LineBreakRule: func(_ []ruby.Fragment, index int) int { return index - 5 },
	})
	got := sourceTexts(l)
	if strings.Join(got, "") != "0123456" {
		t.Fatalf("rollback lost text: %q", got)
	}
	want := []string{"012", "345", "6"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("lines = %q, want %q", got, want)
	}
}

func TestUAX14WithOverlongWord(t *testing.T) {
	l, _ := newTestLabel(t, Options{
		Text: "ab cdefghijklmnop", FontSize: 10, Width: 50,
		LineBreakRule: kinsoku.UAX14(0),
	})
	want := []string{"ab ", "cdefg", "hijkl", "mnop"}
	if got := sourceTexts(l); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("lines = %q, want %q", got, want)
	}

	l, _ = newTestLabel(t, Options{
		Text: "hello worldwide web", FontSize: 10, Width: 80,
		LineBreakRule: kinsoku.UAX14(0),
	})
	want = []string{"hello ", "worldwid", "e web"}
	if got := sourceTexts(l); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("lines = %q, want %q", got, want)
	}
}

func TestLineBreakRuleWithRuby(t *testing.T) {
	marker := `{"rb": "hij", "rt": "hij"}`
	rule := func(fragments []ruby.Fragment, index int) int {
		if fragments[index] == ruby.Text("]") {
			return index + 1
		}
		if index > 0 {
			switch fragments[index-1] {
			case ruby.Text("]"):
				return index
			case ruby.Text("["):
				return index - 1
			}
		}
		return index
	}
	l, _ := newTestLabel(t, Options{
		Text: "abcdefg[" + marker + "]klmn", FontSize: 10, Width: 80, LineGap: 2,
		RubyEnabled: true, LineBreakRule: rule,
	})
	got := sourceTexts(l)
	if len(got) != 2 || got[0] != "abcdefg" || got[1] != "["+marker+"]klm" {
		t.Fatalf("width 80: %q", got)
	}

	l.Width = 110
	if err := l.Invalidate(); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	got = sourceTexts(l)
	if len(got) != 2 || got[0] != "abcdefg["+marker+"]" || got[1] != "klmn" {
		t.Fatalf("width 110: %q", got)
	}
}

func TestSplitTail(t *testing.T) {
	s := &StringDrawInfo{}
	font := newStubFont()
	for _, r := range "abc" {
		s.appendUnit(string(r), []*Glyph{font.GlyphForCharacter(r)}, 10)
	}
	tail := s.splitTail(2)
	if s.Text != "a" || s.Width != 10 || len(s.Glyphs) != 1 || s.unitCount() != 1 {
		t.Fatalf("unexpected head: %+v", s)
	}
	if tail.Text != "bc" || tail.Width != 20 || len(tail.Glyphs) != 2 || tail.Glyphs[0].Code != 'b' {
		t.Fatalf("unexpected tail: %+v", tail)
	}
}
