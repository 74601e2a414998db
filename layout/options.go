package layout

import (
	"log/slog"

	"github.com/ByLCY/rubytext/label"
)

// BuildOptions 配置布局阶段所需的依赖：字体加载与离屏 Surface 后端。
type BuildOptions struct {
	Fonts    FontLoader
	Surfaces label.SurfaceFactory
	Logger   *slog.Logger
}

// FontLoader 负责将字体资源加载为标签可用的字体。
type FontLoader interface {
	LoadFont(res FontResource) (label.Font, error)
}
