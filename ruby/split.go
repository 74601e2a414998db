package ruby

import (
	"strings"

	"github.com/rivo/uniseg"
)

// UnitSplitter 将一段纯文本拆分为行划分使用的原子单位。
type UnitSplitter func(text string) []string

var newlineNormalizer = strings.NewReplacer("\r\n", "\r", "\n", "\r")

// NormalizeNewlines 将 "\r\n" 与 "\n" 统一为 "\r"。
func NormalizeNewlines(text string) string {
	return newlineNormalizer.Replace(text)
}

// SplitUnits 将所有 Text 片段拆为单个单位，RubyUnit 原样保留，顺序不变。
// splitter 为 nil 时按码点拆分。
func SplitUnits(fragments []Fragment, splitter UnitSplitter) []Fragment {
	if splitter == nil {
		splitter = SplitCodePoints
	}
	out := make([]Fragment, 0, len(fragments))
	for _, f := range fragments {
		text, ok := f.(Text)
		if !ok {
			out = append(out, f)
			continue
		}
		for _, unit := range splitter(NormalizeNewlines(string(text))) {
			out = append(out, Text(unit))
		}
	}
	return out
}

// SplitCodePoints 每个码点一个单位；非法 UTF-8 字节各自成为 U+FFFD。
func SplitCodePoints(text string) []string {
	units := make([]string, 0, len(text))
	for _, r := range text {
		units = append(units, string(r))
	}
	return units
}

// SplitGraphemes 按扩展字素簇拆分（组合字符、多码点 emoji 视为一个单位）。
// "\r" 总是单独成为一个单位。
func SplitGraphemes(text string) []string {
	var units []string
	state := -1
	for len(text) > 0 {
		var cluster string
		cluster, text, _, state = uniseg.FirstGraphemeClusterInString(text, state)
		units = append(units, cluster)
	}
	return units
}
