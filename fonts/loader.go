package fonts

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ByLCY/rubytext/label"
	"github.com/ByLCY/rubytext/layout"
)

// DefaultSize 是动态字体未指定 size 时的原生字号（px）。
const DefaultSize = 32

// Loader 按 layout.FontResource 加载字体，同名资源只加载一次。
//
// src 的写法：
//   - "builtin:<name>" / "built-in:<name>"：先查 Blobs，再查内置 gofont；
//   - "embed:<name>"：内置 gofont；
//   - 其他：文件路径，相对路径基于 BaseDir。
type Loader struct {
	BaseDir string
	// Blobs 是注入的资源数据（字体、图集或字形定义），按名称索引。
	Blobs map[string][]byte

	mu    sync.Mutex
	cache map[string]label.Font
}

var _ layout.FontLoader = (*Loader)(nil)

// NewLoader 创建以 baseDir 解析相对路径的 Loader。
func NewLoader(baseDir string) *Loader {
	return &Loader{BaseDir: baseDir}
}

// LoadFont 实现 layout.FontLoader。
func (l *Loader) LoadFont(res layout.FontResource) (label.Font, error) {
	key := fontCacheKey(res)
	l.mu.Lock()
	defer l.mu.Unlock()
	if f, ok := l.cache[key]; ok {
		return f, nil
	}

	var (
		f   label.Font
		err error
	)
	switch res.Kind {
	case layout.FontBitmap:
		f, err = l.loadBitmap(res)
	case layout.FontDynamic, "":
		f, err = l.loadDynamic(res)
	default:
		err = fmt.Errorf("字体 %s 的类型 %q 无法识别", res.Name, res.Kind)
	}
	if err != nil {
		return nil, err
	}
	if l.cache == nil {
		l.cache = map[string]label.Font{}
	}
	l.cache[key] = f
	return f, nil
}

func (l *Loader) loadDynamic(res layout.FontResource) (label.Font, error) {
	data, err := l.readResource(res.Src, true)
	if err != nil {
		return nil, fmt.Errorf("加载字体 %s 失败: %w", res.Name, err)
	}
	size := res.Size
	if size <= 0 {
		size = DefaultSize
	}
	return NewDynamicFont(data, size, res.CacheSize)
}

func (l *Loader) loadBitmap(res layout.FontResource) (label.Font, error) {
	if res.Glyphs == "" {
		return nil, fmt.Errorf("位图字体 %s 缺少 glyphs", res.Name)
	}
	atlasData, err := l.readResource(res.Src, false)
	if err != nil {
		return nil, fmt.Errorf("加载位图字体 %s 的图集失败: %w", res.Name, err)
	}
	atlas, _, err := image.Decode(bytes.NewReader(atlasData))
	if err != nil {
		return nil, fmt.Errorf("解码位图字体 %s 的图集失败: %w", res.Name, err)
	}
	glyphData, err := l.readResource(res.Glyphs, false)
	if err != nil {
		return nil, fmt.Errorf("加载位图字体 %s 的字形定义失败: %w", res.Name, err)
	}
	m, err := ParseGlyphMap(glyphData)
	if err != nil {
		return nil, fmt.Errorf("位图字体 %s: %w", res.Name, err)
	}
	return NewBitmapFont(atlas, m)
}

// readResource 读取资源数据；builtinFonts 为 true 时 builtin:/embed: 可回退到内置 gofont。
func (l *Loader) readResource(src string, builtinFonts bool) ([]byte, error) {
	if src == "" {
		return nil, fmt.Errorf("缺少 src")
	}
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		if blob, ok := l.Blobs[name]; ok {
			return blob, nil
		}
		if builtinFonts {
			return Load(name)
		}
		return nil, fmt.Errorf("找不到内置资源 built-in:%s", name)
	}
	if strings.HasPrefix(src, "embed:") {
		if !builtinFonts {
			return nil, fmt.Errorf("资源 %s 未找到（embed 仅支持内置字体）", src)
		}
		return Load(src)
	}
	// Path based
	path := src
	if l.BaseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用路径：%s（请改用 built-in: 或 embed:）", src)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.BaseDir, path)
	}
	return os.ReadFile(path)
}

func fontCacheKey(res layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s|%s|%g", res.Name, res.Kind, res.Src, res.Glyphs, res.Size)
}
