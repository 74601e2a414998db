// Package fonts 提供 label.Font 的实现：位图字体 BitmapFont 与基于 TrueType/OpenType 的 DynamicFont，
// 以及按 layout.FontResource 加载字体的 Loader。
package fonts

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

var builtin = map[string][]byte{
	"goregular": goregular.TTF,
	"gobold":    gobold.TTF,
	"goitalic":  goitalic.TTF,
	"gomedium":  gomedium.TTF,
	"gomono":    gomono.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:goregular" 或直接 "goregular"。
func Load(name string) ([]byte, error) {
	name = strings.TrimPrefix(name, "embed:")
	name = strings.TrimSuffix(strings.ToLower(name), ".ttf")
	data, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 可用字体为 %s", name, strings.Join(BuiltinNames(), ", "))
	}
	return data, nil
}

// BuiltinNames 返回全部内置字体名。
func BuiltinNames() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
