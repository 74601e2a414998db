package ruby

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// 默认注音语法：文本中可以嵌入 JSON 对象形式的标记，例如
//
//	これは{"rb":"本文","rt":"ルビ","rubyFontSize":2}です。
//
// 解析结果为 ["これは", {rb:"本文", rt:"ルビ"}, "です。"]。
// 字面量的 `{` 与 `}` 需写作 `\{` 与 `\}`；对象的键必须使用双引号。

// ErrTypeMismatch 表示注音标记不是合法的 JSON，或缺少 rb / rt。
var ErrTypeMismatch = errors.New("ruby: type mismatch")

// ParseError 记录出错的标记原文。
type ParseError struct {
	Marker string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ruby: 无法解析注音标记 %s: %v", e.Marker, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// anyChar 与 JS 正则的 `.` 一致：不匹配行终止符。
const anyChar = `[^\n\r\x{2028}\x{2029}]`

// markerPattern 分为三段：标记之前的文本、最靠前的标记、标记之后的全部内容。
// Go 的 regexp 采用 leftmost-first 语义，子匹配结果与回溯实现一致。
var markerPattern = regexp.MustCompile(
	`^((?:[^\\{]|\\+` + anyChar + `)*?)(\{(?:[^\\}]|\\+` + anyChar + `)*?\})([\s\S]*)`,
)

var braceUnescaper = strings.NewReplacer(`\{`, `{`, `\}`, `}`)

// Parse 是默认的注音解析器。空文本返回空切片。
// 缺少完整 `{...}` 的文本按字面量处理，不视为错误。
func Parse(text string) ([]Fragment, error) {
	var result []Fragment
	for len(text) > 0 {
		groups := markerPattern.FindStringSubmatch(text)
		if groups == nil {
			result = append(result, Text(unescapeBraces(text)))
			break
		}
		head, marker := groups[1], groups[2]
		text = groups[3]
		if head != "" {
			result = append(result, Text(unescapeBraces(head)))
		}
		unit, err := parseMarker(marker)
		if err != nil {
			return nil, err
		}
		result = append(result, unit)
	}
	if result == nil {
		result = []Fragment{}
	}
	return result, nil
}

func unescapeBraces(s string) string {
	return braceUnescaper.Replace(s)
}

// parseMarker 将反斜杠加倍后按 JSON 解析，使 `\{` 等写法能通过 JSON 解码。
func parseMarker(marker string) (*RubyUnit, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.ReplaceAll(marker, `\`, `\\`)), &fields); err != nil {
		return nil, &ParseError{Marker: marker, Err: fmt.Errorf("%w: %v", ErrTypeMismatch, err)}
	}
	rawBase, okBase := fields["rb"]
	rawReading, okReading := fields["rt"]
	if !okBase || !okReading {
		return nil, &ParseError{Marker: marker, Err: fmt.Errorf("%w: 需要 rb 与 rt", ErrTypeMismatch)}
	}

	unit := &RubyUnit{Source: marker}
	if err := decodeField(rawBase, &unit.Base); err != nil {
		return nil, &ParseError{Marker: marker, Err: fmt.Errorf("%w: rb: %v", ErrTypeMismatch, err)}
	}
	if err := decodeField(rawReading, &unit.Reading); err != nil {
		return nil, &ParseError{Marker: marker, Err: fmt.Errorf("%w: rt: %v", ErrTypeMismatch, err)}
	}
	unit.Base = unescapeBraces(unit.Base)
	unit.Reading = unescapeBraces(unit.Reading)

	if err := decodeOptions(fields, &unit.Options); err != nil {
		return nil, &ParseError{Marker: marker, Err: err}
	}
	return unit, nil
}

func decodeOptions(fields map[string]json.RawMessage, opts *RubyOptions) error {
	if raw, ok := fields["rubyFontSize"]; ok {
		var v float64
		if err := decodeField(raw, &v); err != nil {
			return fmt.Errorf("%w: rubyFontSize: %v", ErrTypeMismatch, err)
		}
		opts.FontSize = &v
	}
	if raw, ok := fields["rubyGap"]; ok {
		var v float64
		if err := decodeField(raw, &v); err != nil {
			return fmt.Errorf("%w: rubyGap: %v", ErrTypeMismatch, err)
		}
		opts.Gap = &v
	}
	if raw, ok := fields["rubyAlign"]; ok {
		var v int
		if err := decodeField(raw, &v); err != nil {
			return fmt.Errorf("%w: rubyAlign: %v", ErrTypeMismatch, err)
		}
		align := RubyAlign(v)
		opts.Align = &align
	}
	if raw, ok := fields["rubyFont"]; ok {
		var v string
		if err := decodeField(raw, &v); err != nil {
			return fmt.Errorf("%w: rubyFont: %v", ErrTypeMismatch, err)
		}
		opts.FontName = &v
	}
	return nil
}

// decodeField 拒绝 null，其余类型错误由 encoding/json 报告。
func decodeField(raw json.RawMessage, dst any) error {
	if string(raw) == "null" {
		return fmt.Errorf("不允许为 null")
	}
	return json.Unmarshal(raw, dst)
}
