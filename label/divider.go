package label

import (
	"slices"

	"github.com/ByLCY/rubytext/ruby"
)

// breakMode 是行划分的状态：正常，或已由改行规则推迟改行。
type breakMode int

const (
	modeNormal breakMode = iota
	modeDeferred
)

// divider 逐个消费片段，维护当前行与尚未并入当前行的连续文本。
type divider struct {
	cfg       *layoutConfig
	fragments []ruby.Fragment

	lines   []*LineInfo
	line    *LineInfo
	pending *StringDrawInfo

	mode      breakMode
	countdown int
}

// divideLines 将片段划分为行。至少返回一行（空输入得到一个空行）。
func divideLines(fragments []ruby.Fragment, cfg *layoutConfig) ([]*LineInfo, error) {
	d := &divider{
		cfg:       cfg,
		fragments: fragments,
		line:      &LineInfo{},
		pending:   &StringDrawInfo{},
	}
	for i := range fragments {
		if err := d.add(i); err != nil {
			return nil, err
		}
	}
	d.flushAndFeed()
	return d.lines, nil
}

func (d *divider) add(index int) error {
	if d.mode == modeDeferred {
		d.countdown--
		if d.countdown == 0 {
			d.mode = modeNormal
			// 推迟的改行恰好落在硬换行上时只换一次行。
			if d.fragments[index] != ruby.HardBreak {
				d.flushAndFeed()
			}
		}
	}

	switch f := d.fragments[index].(type) {
	case ruby.Text:
		if f == ruby.HardBreak {
			// 硬换行不询问改行规则，已推迟的改行随之完成。
			d.flushAndFeed()
			d.mode = modeNormal
			return nil
		}
		glyphs := d.cfg.glyphsFor(d.cfg.font, string(f))
		if len(glyphs) == 0 {
			return nil
		}
		width := advance(glyphs, d.cfg.scale())
		if d.needBreak(width) {
			d.breakLine(index)
		}
		d.pending.appendUnit(string(f), glyphs, width)
	case *ruby.RubyUnit:
		info, err := d.cfg.measureRuby(f)
		if err != nil {
			return err
		}
		if info.Width <= 0 {
			return nil
		}
		d.flush()
		if d.needBreak(info.Width) {
			d.breakLine(index)
		}
		d.line.append(info)
	}
	return nil
}

// needBreak 报告追加宽度为 width 的单位是否会超出换行宽度。行首单位永远不触发改行。
func (d *divider) needBreak(width float64) bool {
	used := d.line.Width + d.pending.Width
	return d.cfg.lineBreak &&
		width > 0 &&
		d.mode == modeNormal &&
		used+width > d.cfg.wrapWidth &&
		used > 0
}

func (d *divider) breakLine(index int) {
	if d.cfg.rule == nil {
		d.flushAndFeed()
		return
	}
	diff := d.cfg.rule(d.fragments, index) - index
	switch {
	case diff == 0:
		d.flushAndFeed()
	case diff > 0:
		d.mode = modeDeferred
		d.countdown = diff
	default:
		d.rollback(-diff)
	}
}

// rollback 从当前行末尾移除 n 个单位后改行，被移除的单位按原顺序成为下一行的开头。
// 回退到行首或更早时（例如单词比行还长）按原位置改行。
func (d *divider) rollback(n int) {
	d.flush()
	total := d.line.unitCount()
	if n >= total {
		d.feed()
		return
	}

	var dropped []FragmentDrawInfo
	for n > 0 {
		last := d.line.Fragments[len(d.line.Fragments)-1]
		if s, ok := last.(*StringDrawInfo); ok && s.unitCount() > n {
			dropped = append(dropped, s.splitTail(n))
			break
		}
		d.line.Fragments = d.line.Fragments[:len(d.line.Fragments)-1]
		dropped = append(dropped, last)
		n -= last.unitCount()
	}
	d.line.recompute()
	d.feed()

	slices.Reverse(dropped)
	for _, f := range dropped {
		d.line.append(f)
	}
}

// flush 将连续文本并入当前行。宽度为 0 的文本被丢弃。
func (d *divider) flush() {
	if d.pending.Width > 0 {
		d.line.append(d.pending)
	}
	d.pending = &StringDrawInfo{}
}

func (d *divider) feed() {
	d.cfg.finishLine(d.line)
	d.lines = append(d.lines, d.line)
	d.line = &LineInfo{}
}

func (d *divider) flushAndFeed() {
	d.flush()
	d.feed()
}
