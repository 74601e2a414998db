// Package kinsoku 提供可直接用于 label.Options.LineBreakRule 的改行规则。
package kinsoku

import (
	"strings"

	"golang.org/x/text/width"

	"github.com/ByLCY/rubytext/ruby"
)

// Rule 是基于禁则字符表的改行规则。字符在比较前经过宽度折叠，
// 因此全角与半角写法（如 "）" 与 ")"）只需登记一种。
type Rule struct {
	// NotAtStart 中的字符不能出现在行首，遇到时推迟改行（悬挂）。
	NotAtStart string
	// NotAtEnd 中的字符不能出现在行末，遇到时回溯改行。
	NotAtEnd string
	// MaxHang 限制一次最多推迟的单位数，0 表示不限制。
	MaxHang int
}

// Japanese 是常用的日文禁则（行首禁则含句读点、闭括号、小写假名与长音符）。
var Japanese = Rule{
	NotAtStart: ",)]}、。〉》」』】〕〗〙〟’”»ゝゞーァィゥェォッャュョヮヵヶぁぃぅぇぉっゃゅょゎゕゖㇰㇱㇲㇳㇴㇵㇶㇷㇸㇹㇺㇻㇼㇽㇾㇿ々〻‐゠–〜?!‼⁇⁈⁉・:;.",
	NotAtEnd:   "([{〈《「『【〔〖〘〝‘“«",
	MaxHang:    2,
}

func fold(s string) string {
	return width.Fold.String(s)
}

// contains 报告片段是否为 set 中的单个字符。注音单元总是返回 false。
func contains(set string, f ruby.Fragment) bool {
	t, ok := f.(ruby.Text)
	if !ok || t == "" || t == ruby.HardBreak {
		return false
	}
	return strings.Contains(fold(set), fold(string(t)))
}

// Func 返回对应的 ruby.LineBreakRule。
func (r Rule) Func() ruby.LineBreakRule {
	return r.Apply
}

// Apply 计算修正后的改行位置：index 处的行首禁则字符连同其后连续的禁则字符一起留在上一行；
// 否则若 index 之前是行末禁则字符，则把它们移到下一行。
func (r Rule) Apply(fragments []ruby.Fragment, index int) int {
	if index < 0 || index >= len(fragments) {
		return index
	}
	hang := 0
	for i := index; i < len(fragments) && contains(r.NotAtStart, fragments[i]); i++ {
		hang++
		if r.MaxHang > 0 && hang == r.MaxHang {
			break
		}
	}
	if hang > 0 {
		return index + hang
	}

	k := index
	for k > 0 && contains(r.NotAtEnd, fragments[k-1]) {
		k--
	}
	return k
}

// Chain 依次尝试各规则，返回第一个改变改行位置的结果。
func Chain(rules ...ruby.LineBreakRule) ruby.LineBreakRule {
	return func(fragments []ruby.Fragment, index int) int {
		for _, rule := range rules {
			if rule == nil {
				continue
			}
			if got := rule(fragments, index); got != index {
				return got
			}
		}
		return index
	}
}
