package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/comicshelf/internal/models"
	"github.com/RecoveryAshes/comicshelf/internal/utils"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀,如 COMICSHELF_LIBRARY_ROOT_DIR
const EnvPrefix = "COMICSHELF"

// Config 应用程序配置
type Config struct {
	Library   LibraryConfig    `mapstructure:"library"`
	Discovery DiscoverySection `mapstructure:"discovery"`
	Browser   BrowserSection   `mapstructure:"browser"`
	Images    ImagesSection    `mapstructure:"images"`
	Download  DownloadSection  `mapstructure:"download"`
	Logging   LoggingConfig    `mapstructure:"logging"`
	Report    ReportConfig     `mapstructure:"report"`
}

// LibraryConfig 漫画库目录
type LibraryConfig struct {
	RootDir    string `mapstructure:"root_dir"`
	UpdateFile string `mapstructure:"update_file"` // 相对根目录
	ErrorLog   string `mapstructure:"error_log"`   // 相对根目录
}

// DiscoverySection 章节发现
type DiscoverySection struct {
	Language        string `mapstructure:"language"`
	SiteBase        string `mapstructure:"site_base"`
	ChapterPath     string `mapstructure:"chapter_path"`
	GotoTimeoutMs   int    `mapstructure:"goto_timeout_ms"`
	SettleMs        int    `mapstructure:"settle_ms"`
	ScrollStep      int    `mapstructure:"scroll_step"`
	ScrollAttempts  int    `mapstructure:"scroll_attempts"`
	ScrollPauseMs   int    `mapstructure:"scroll_pause_ms"`
	MaxPages        int    `mapstructure:"max_pages"`
	SeriesDelay     int    `mapstructure:"series_delay"` // 秒
	ContinueOnError bool   `mapstructure:"continue_on_error"`
}

// BrowserSection 浏览器
type BrowserSection struct {
	Headless        bool   `mapstructure:"headless"`
	Bin             string `mapstructure:"bin"`
	UserAgent       string `mapstructure:"user_agent"`
	ViewportWidth   int    `mapstructure:"viewport_width"`
	ViewportHeight  int    `mapstructure:"viewport_height"`
	Locale          string `mapstructure:"locale"`
	Timezone        string `mapstructure:"timezone"`
	MinFreeMemoryMB int    `mapstructure:"min_free_memory_mb"`
}

// ImagesSection 图片地址提取
type ImagesSection struct {
	Mode              string `mapstructure:"mode"`
	Host              string `mapstructure:"host"`
	PlaceholderMarker string `mapstructure:"placeholder_marker"`
	MaxAttempts       int    `mapstructure:"max_attempts"`
	SettleMs          int    `mapstructure:"settle_ms"`
	GotoTimeoutMs     int    `mapstructure:"goto_timeout_ms"`
}

// DownloadSection 图片下载
type DownloadSection struct {
	Timeout       int  `mapstructure:"timeout"` // 秒
	ChunkSize     int  `mapstructure:"chunk_size"`
	NormalizeJPEG bool `mapstructure:"normalize_jpeg"`
	JPEGQuality   int  `mapstructure:"jpeg_quality"`
	Progress      bool `mapstructure:"progress"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// ReportConfig 运行报告
type ReportConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"` // 相对工作目录
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".comicshelf"))
		}
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 未找到配置文件时使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &models.ConfigError{FilePath: configPath, Cause: err}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	v.SetDefault("library.root_dir", "/var/www/html/manhwa")
	v.SetDefault("library.update_file", "update-chapters.txt")
	v.SetDefault("library.error_log", "error.log")

	v.SetDefault("discovery.language", "en")
	v.SetDefault("discovery.site_base", "https://comick.io")
	v.SetDefault("discovery.chapter_path", "/comic/")
	v.SetDefault("discovery.goto_timeout_ms", 60000)
	v.SetDefault("discovery.settle_ms", 5000)
	v.SetDefault("discovery.scroll_step", 500)
	v.SetDefault("discovery.scroll_attempts", 50)
	v.SetDefault("discovery.scroll_pause_ms", 300)
	v.SetDefault("discovery.max_pages", 0)
	v.SetDefault("discovery.series_delay", 0)
	v.SetDefault("discovery.continue_on_error", true)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.user_agent", DefaultUserAgent)
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 720)
	v.SetDefault("browser.locale", "en-US")
	v.SetDefault("browser.timezone", "America/New_York")
	v.SetDefault("browser.min_free_memory_mb", 256)

	v.SetDefault("images.mode", string(models.ModeDynamic))
	v.SetDefault("images.host", "comick.pictures")
	v.SetDefault("images.placeholder_marker", "meo3")
	v.SetDefault("images.max_attempts", 3)
	v.SetDefault("images.settle_ms", 3000)
	v.SetDefault("images.goto_timeout_ms", 60000)

	v.SetDefault("download.timeout", 30)
	v.SetDefault("download.chunk_size", 8192)
	v.SetDefault("download.normalize_jpeg", false)
	v.SetDefault("download.jpeg_quality", 90)
	v.SetDefault("download.progress", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	v.SetDefault("report.enabled", true)
	v.SetDefault("report.dir", "reports")
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// UpdateFilePath 系列列表文件的完整路径
func (c *Config) UpdateFilePath() string {
	if filepath.IsAbs(c.Library.UpdateFile) {
		return c.Library.UpdateFile
	}
	return filepath.Join(c.Library.RootDir, c.Library.UpdateFile)
}

// DiscoveryConfig 投影为发现流程配置
func (c *Config) DiscoveryConfig() models.DiscoveryConfig {
	d := c.Discovery
	return models.DiscoveryConfig{
		RootDir:         c.Library.RootDir,
		Language:        d.Language,
		SiteBase:        d.SiteBase,
		ChapterPath:     d.ChapterPath,
		GotoTimeout:     millis(d.GotoTimeoutMs),
		Settle:          millis(d.SettleMs),
		ScrollStep:      d.ScrollStep,
		ScrollAttempts:  d.ScrollAttempts,
		ScrollPause:     millis(d.ScrollPauseMs),
		MaxPages:        d.MaxPages,
		SeriesDelay:     time.Duration(d.SeriesDelay) * time.Second,
		ContinueOnError: d.ContinueOnError,
	}
}

// BrowserConfig 投影为浏览器配置
func (c *Config) BrowserConfig() models.BrowserConfig {
	b := c.Browser
	return models.BrowserConfig{
		Headless:        b.Headless,
		Bin:             b.Bin,
		UserAgent:       b.UserAgent,
		ViewportWidth:   b.ViewportWidth,
		ViewportHeight:  b.ViewportHeight,
		Locale:          b.Locale,
		Timezone:        b.Timezone,
		MinFreeMemoryMB: b.MinFreeMemoryMB,
	}
}

// MaterializeConfig 投影为物化流程配置
func (c *Config) MaterializeConfig(onlySeries []string) models.MaterializeConfig {
	return models.MaterializeConfig{
		RootDir:    c.Library.RootDir,
		ErrorLog:   c.Library.ErrorLog,
		OnlySeries: onlySeries,
		Images: models.ImageConfig{
			Mode:              models.ExtractMode(strings.ToLower(c.Images.Mode)),
			Host:              c.Images.Host,
			PlaceholderMarker: c.Images.PlaceholderMarker,
			MaxAttempts:       c.Images.MaxAttempts,
			Settle:            millis(c.Images.SettleMs),
			GotoTimeout:       millis(c.Images.GotoTimeoutMs),
		},
		Download: models.DownloadConfig{
			Timeout:       time.Duration(c.Download.Timeout) * time.Second,
			ChunkSize:     c.Download.ChunkSize,
			NormalizeJPEG: c.Download.NormalizeJPEG,
			JPEGQuality:   c.Download.JPEGQuality,
			Progress:      c.Download.Progress,
		},
	}
}

// LogConfig 投影为日志配置
func (c *Config) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Logging.Level,
		LogDir:     c.Logging.LogDir,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
	}
}
