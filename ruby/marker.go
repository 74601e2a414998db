package ruby

import (
	"fmt"
	"strconv"
	"strings"
)

var braceEscaper = strings.NewReplacer(`{`, `\{`, `}`, `\}`)

// Marker 将一组 rb / rt 及覆盖项写成 Parse 能够解析的标记文本。
// 花括号会被转义；双引号与换行无法出现在标记中，遇到时返回 ErrTypeMismatch。
func Marker(base, reading string, opts RubyOptions) (string, error) {
	var b strings.Builder
	b.WriteString(`{"rb":`)
	if err := writeMarkerString(&b, base); err != nil {
		return "", fmt.Errorf("rb: %w", err)
	}
	b.WriteString(`,"rt":`)
	if err := writeMarkerString(&b, reading); err != nil {
		return "", fmt.Errorf("rt: %w", err)
	}
	if opts.FontSize != nil {
		b.WriteString(`,"rubyFontSize":`)
		b.WriteString(strconv.FormatFloat(*opts.FontSize, 'g', -1, 64))
	}
	if opts.Gap != nil {
		b.WriteString(`,"rubyGap":`)
		b.WriteString(strconv.FormatFloat(*opts.Gap, 'g', -1, 64))
	}
	if opts.Align != nil {
		b.WriteString(`,"rubyAlign":`)
		b.WriteString(strconv.Itoa(int(*opts.Align)))
	}
	if opts.FontName != nil {
		b.WriteString(`,"rubyFont":`)
		if err := writeMarkerString(&b, *opts.FontName); err != nil {
			return "", fmt.Errorf("rubyFont: %w", err)
		}
	}
	b.WriteByte('}')
	return b.String(), nil
}

// writeMarkerString 写出带双引号的字符串。反斜杠保持原样，Parse 会在解码前将其加倍。
func writeMarkerString(b *strings.Builder, s string) error {
	for _, r := range s {
		if r == '"' || r < 0x20 || r == '\u2028' || r == '\u2029' {
			return fmt.Errorf("%w: 不能包含 %q", ErrTypeMismatch, r)
		}
	}
	b.WriteByte('"')
	b.WriteString(braceEscaper.Replace(s))
	b.WriteByte('"')
	return nil
}
