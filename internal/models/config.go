package models

import (
	"fmt"
	"time"
)

// ExtractMode 图片地址提取模式
type ExtractMode string

const (
	ModeDynamic ExtractMode = "dynamic" // 浏览器渲染(go-rod)
	ModeStatic  ExtractMode = "static"  // 静态抓取(Colly)
)

// BrowserConfig 浏览器会话配置
type BrowserConfig struct {
	Headless        bool   `json:"headless"`
	Bin             string `json:"bin,omitempty"` // 浏览器路径,为空时自动查找
	UserAgent       string `json:"user_agent"`
	ViewportWidth   int    `json:"viewport_width"`
	ViewportHeight  int    `json:"viewport_height"`
	Locale          string `json:"locale"`
	Timezone        string `json:"timezone"`
	MinFreeMemoryMB int    `json:"min_free_memory_mb"` // 启动浏览器前要求的最小可用内存
}

// Validate 验证浏览器配置
func (c *BrowserConfig) Validate() error {
	if c.ViewportWidth <= 0 || c.ViewportHeight <= 0 {
		return fmt.Errorf("视口尺寸必须大于0: %dx%d", c.ViewportWidth, c.ViewportHeight)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("User-Agent不能为空")
	}
	if c.MinFreeMemoryMB < 0 {
		return fmt.Errorf("最小可用内存不能为负数")
	}
	return nil
}

// DiscoveryConfig 章节发现配置
type DiscoveryConfig struct {
	RootDir         string        `json:"root_dir"`
	Language        string        `json:"language"`
	SiteBase        string        `json:"site_base"`    // 相对链接前缀,如 https://comick.io
	ChapterPath     string        `json:"chapter_path"` // 章节链接必须包含的路径片段
	GotoTimeout     time.Duration `json:"goto_timeout"`
	Settle          time.Duration `json:"settle"`
	ScrollStep      int           `json:"scroll_step"`
	ScrollAttempts  int           `json:"scroll_attempts"`
	ScrollPause     time.Duration `json:"scroll_pause"`
	MaxPages        int           `json:"max_pages"` // 0表示不限制
	SeriesDelay     time.Duration `json:"series_delay"`
	ContinueOnError bool          `json:"continue_on_error"`
}

// Validate 验证发现配置
func (c *DiscoveryConfig) Validate() error {
	if c.RootDir == "" {
		return fmt.Errorf("根目录不能为空")
	}
	if c.Language == "" {
		return fmt.Errorf("语言代码不能为空")
	}
	if err := ValidateURL(c.SiteBase); err != nil {
		return fmt.Errorf("站点地址无效: %w", err)
	}
	if c.ScrollStep <= 0 {
		return fmt.Errorf("滚动步长必须大于0")
	}
	if c.ScrollAttempts < 0 || c.ScrollAttempts > 1000 {
		return fmt.Errorf("滚动次数必须在0-1000之间")
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("最大页数不能为负数")
	}
	return nil
}

// ImageConfig 图片地址提取配置
type ImageConfig struct {
	Mode              ExtractMode   `json:"mode"`
	Host              string        `json:"host"`               // 图片主机(不区分大小写的子串匹配)
	PlaceholderMarker string        `json:"placeholder_marker"` // 低清占位图标记
	MaxAttempts       int           `json:"max_attempts"`
	Settle            time.Duration `json:"settle"`
	GotoTimeout       time.Duration `json:"goto_timeout"`
}

// Validate 验证图片提取配置
func (c *ImageConfig) Validate() error {
	if c.Mode != ModeDynamic && c.Mode != ModeStatic {
		return fmt.Errorf("无效的提取模式: %s (有效值: dynamic, static)", c.Mode)
	}
	if c.Host == "" {
		return fmt.Errorf("图片主机不能为空")
	}
	if c.MaxAttempts < 1 || c.MaxAttempts > 10 {
		return fmt.Errorf("重试次数必须在1-10之间")
	}
	return nil
}

// DownloadConfig 图片下载配置
type DownloadConfig struct {
	Timeout       time.Duration `json:"timeout"`
	ChunkSize     int           `json:"chunk_size"`
	NormalizeJPEG bool          `json:"normalize_jpeg"`
	JPEGQuality   int           `json:"jpeg_quality"`
	Progress      bool          `json:"progress"`
}

// Validate 验证下载配置
func (c *DownloadConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("下载超时必须大于0")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("分块大小必须大于0")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("JPEG质量必须在1-100之间")
	}
	return nil
}

// MaterializeConfig 章节物化配置
type MaterializeConfig struct {
	RootDir    string         `json:"root_dir"`
	ErrorLog   string         `json:"error_log"` // 相对根目录的错误日志文件名
	OnlySeries []string       `json:"only_series,omitempty"`
	Images     ImageConfig    `json:"images"`
	Download   DownloadConfig `json:"download"`
}

// Validate 验证物化配置
func (c *MaterializeConfig) Validate() error {
	if c.RootDir == "" {
		return fmt.Errorf("根目录不能为空")
	}
	if err := c.Images.Validate(); err != nil {
		return err
	}
	return c.Download.Validate()
}
