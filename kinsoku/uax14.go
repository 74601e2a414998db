package kinsoku

import (
	"github.com/rivo/uniseg"

	"github.com/ByLCY/rubytext/ruby"
)

// objectReplacement 在断行分析中代替注音单元（UAX #14 中属于 CB 类，前后均可断行）。
const objectReplacement = "\uFFFC"

// UAX14 返回按 Unicode 断行算法（UAX #14）回溯到最近断行机会的规则，
// 适合以空格分词的文本。回溯超过 maxLookback 个单位时放弃，按原位置改行。
func UAX14(maxLookback int) ruby.LineBreakRule {
	return func(fragments []ruby.Fragment, index int) int {
		if index <= 0 || index >= len(fragments) {
			return index
		}
		start := paragraphStart(fragments, index)
		if maxLookback > 0 {
			start = max(start, index-maxLookback-1)
		}
		if k := lastOpportunity(fragments, start, index); k > start {
			return k
		}
		return index
	}
}

// paragraphStart 返回 index 之前最后一个强制换行之后的片段下标。
// 断行机会不会跨越强制换行，分析从这里开始即可。
func paragraphStart(fragments []ruby.Fragment, index int) int {
	for i := index - 1; i >= 0; i-- {
		if fragments[i] == ruby.HardBreak {
			return i + 1
		}
	}
	return 0
}

// lastOpportunity 返回 (start, index] 内最靠后的断行机会所在的片段下标，没有时返回 start。
// 断行机会位于该下标的片段之前。
func lastOpportunity(fragments []ruby.Fragment, start, index int) int {
	// starts[off] 为拼接文本中字节偏移 off 处开始的片段下标。
	starts := make(map[int]int, index-start+1)
	var text []byte
	appendFragment := func(f ruby.Fragment) {
		if t, ok := f.(ruby.Text); ok {
			text = append(text, t...)
		} else {
			text = append(text, objectReplacement...)
		}
	}
	for i := start; i <= index; i++ {
		starts[len(text)] = i
		appendFragment(fragments[i])
	}
	// 追加下一个片段使 index 之前的断行机会可被判断。
	if index+1 < len(fragments) {
		appendFragment(fragments[index+1])
	}

	best := start
	offset := 0
	state := -1
	str := string(text)
	for len(str) > 0 {
		var segment string
		segment, str, _, state = uniseg.FirstLineSegmentInString(str, state)
		offset += len(segment)
		if i, ok := starts[offset]; ok && i <= index && i > best {
			best = i
		}
	}
	return best
}
