package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/RecoveryAshes/comicshelf/internal/core"
	"github.com/RecoveryAshes/comicshelf/internal/crawlers"
	"github.com/RecoveryAshes/comicshelf/internal/models"
	"github.com/RecoveryAshes/comicshelf/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// cpuWarnThreshold 启动浏览器前CPU负载告警阈值(百分比)
const cpuWarnThreshold = 90.0

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string
	rootDir    string
	headless   bool

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	validateConfig bool     // 验证配置文件

	// 发现参数
	seriesURLs []string
	updateFile string

	// 物化参数
	onlySeries  []string
	mode        string
	maxAttempts int
)

// appConfig 由 PersistentPreRunE 加载
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "comicshelf",
	Short: "Comick 漫画章节发现与本地阅读库生成工具",
	Long: `comicshelf - 维护本地漫画阅读库

两个独立的流程:
  • discover    从 update-chapters.txt 中的系列地址发现章节,写入 {系列}/chapters.txt
  • materialize 下载 chapters.txt 中未完成的章节图片并生成离线阅读页面
  • run         依次执行以上两个流程

示例:
  comicshelf discover
  comicshelf discover --url https://comick.io/comic/solo-leveling
  comicshelf materialize --series solo-leveling
  comicshelf materialize -H "Cookie: cf_clearance=..."
  comicshelf --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 命令行参数覆盖配置文件
		if rootDir != "" {
			config.Library.RootDir = rootDir
		}
		if cmd.Flags().Changed("headless") {
			config.Browser.Headless = headless
		}

		logConfig := config.LogConfig()
		switch {
		case logLevel != "":
			logConfig.Level = logLevel
		case verbose:
			logConfig.Level = "debug"
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}
		if verbose {
			utils.Info("详细模式已启用")
		}

		appConfig = config
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if validateConfig {
			return runValidateConfig()
		}
		return cmd.Help()
	},
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "发现系列章节并写入 chapters.txt",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDiscover(cmd.Context())
	},
}

var materializeCmd = &cobra.Command{
	Use:   "materialize",
	Short: "下载未完成章节的图片并生成阅读页面",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMaterialize(cmd.Context())
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "依次执行章节发现和物化",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipelines(cmd.Context(), runDiscover, runMaterialize)
	},
}

// runPipelines 依次执行发现和物化; 发现失败只记录日志,物化照常进行
func runPipelines(ctx context.Context, discover, materialize func(context.Context) error) error {
	if err := discover(ctx); err != nil {
		if ctx.Err() != nil {
			return err
		}
		utils.Errorf("❌ %v, 继续执行物化", err)
	}
	return materialize(ctx)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("comicshelf %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

// runValidateConfig 验证配置和HTTP头部并打印有效值
func runValidateConfig() error {
	utils.Info("🔍 验证配置...")

	dcfg := appConfig.DiscoveryConfig()
	if err := dcfg.Validate(); err != nil {
		return fmt.Errorf("发现配置无效: %w", err)
	}
	bcfg := appConfig.BrowserConfig()
	if err := bcfg.Validate(); err != nil {
		return fmt.Errorf("浏览器配置无效: %w", err)
	}
	mcfg := appConfig.MaterializeConfig(nil)
	if err := mcfg.Validate(); err != nil {
		return fmt.Errorf("物化配置无效: %w", err)
	}

	headerManager, err := newHeaderManager()
	if err != nil {
		return err
	}
	if err := headerManager.LoadConfig(); err != nil {
		return fmt.Errorf("加载头部配置失败: %w", err)
	}
	if err := headerManager.Validate(); err != nil {
		return fmt.Errorf("头部配置验证失败: %w", err)
	}

	safeHeaders := headerManager.GetSafeHeaders()
	utils.Info("✅ 配置验证通过!")
	utils.Infof("漫画库目录: %s", appConfig.Library.RootDir)
	utils.Infof("图片提取模式: %s", mcfg.Images.Mode)
	utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
	for name, value := range safeHeaders {
		utils.Infof("  %s: %s", name, value)
	}
	return nil
}

// runDiscover 执行章节发现
func runDiscover(ctx context.Context) error {
	dcfg := appConfig.DiscoveryConfig()
	if err := dcfg.Validate(); err != nil {
		return fmt.Errorf("发现配置无效: %w", err)
	}
	bcfg := appConfig.BrowserConfig()
	if err := bcfg.Validate(); err != nil {
		return fmt.Errorf("浏览器配置无效: %w", err)
	}

	urls, err := collectSeriesURLs()
	if err != nil {
		return err
	}

	extractor := crawlers.NewComickExtractor(dcfg.SiteBase, dcfg.ChapterPath)
	batch := core.NewDiscoveryBatch(dcfg, newLauncher(), extractor)

	report, runErr := batch.Run(ctx, urls)
	saveReport(report)
	if runErr != nil {
		return fmt.Errorf("章节发现失败: %w", runErr)
	}

	utils.Info("✨ 章节发现完成!")
	return nil
}

// collectSeriesURLs 命令行 --url 优先,否则读取系列列表文件
func collectSeriesURLs() ([]string, error) {
	if len(seriesURLs) > 0 {
		urls := make([]string, 0, len(seriesURLs))
		for _, raw := range seriesURLs {
			normalized, err := NormalizeURL(raw)
			if err != nil {
				return nil, fmt.Errorf("无效的系列地址 %q: %w", raw, err)
			}
			urls = append(urls, normalized)
		}
		if err := ValidateSeriesURLs(urls); err != nil {
			return nil, err
		}
		return urls, nil
	}

	path := updateFile
	if path == "" {
		path = appConfig.UpdateFilePath()
	}
	if err := ValidateUpdateFile(path); err != nil {
		return nil, err
	}
	return utils.ReadSeriesURLs(path)
}

// runMaterialize 执行章节物化
func runMaterialize(ctx context.Context) error {
	mcfg := appConfig.MaterializeConfig(onlySeries)
	if mode != "" {
		mcfg.Images.Mode = models.ExtractMode(strings.ToLower(mode))
	}
	if maxAttempts > 0 {
		mcfg.Images.MaxAttempts = maxAttempts
	}
	if err := ValidateFlags(string(mcfg.Images.Mode), mcfg.Images.MaxAttempts); err != nil {
		return err
	}
	if err := mcfg.Validate(); err != nil {
		return fmt.Errorf("物化配置无效: %w", err)
	}

	headerManager, err := newHeaderManager()
	if err != nil {
		return err
	}
	if _, err := headerManager.GetHeaders(); err != nil {
		return fmt.Errorf("HTTP头部配置无效: %w", err)
	}

	extractor := crawlers.NewComickExtractor(appConfig.Discovery.SiteBase, appConfig.Discovery.ChapterPath)

	var locator crawlers.ImageLocator
	switch mcfg.Images.Mode {
	case models.ModeStatic:
		locator = crawlers.NewStaticImageLocator(extractor, mcfg.Images, headerManager, appConfig.Browser.UserAgent)
	default:
		locator = crawlers.NewDynamicImageLocator(newLauncher(), extractor, mcfg.Images)
	}
	downloader := crawlers.NewImageDownloader(mcfg.Download, headerManager)

	materializer := core.NewMaterializer(mcfg, locator, downloader)
	report, runErr := materializer.Run(ctx)
	if report != nil {
		core.PrintMaterializeSummary(report)
	}
	saveReport(report)
	if runErr != nil {
		return fmt.Errorf("章节物化失败: %w", runErr)
	}

	utils.Info("✨ 章节物化完成!")
	return nil
}

// newLauncher 创建带资源检查的浏览器会话工厂
func newLauncher() *crawlers.RodLauncher {
	monitor := crawlers.NewResourceMonitor(crawlers.ResourceMonitorConfig{
		MinFreeMemoryMB:  appConfig.Browser.MinFreeMemoryMB,
		CPULoadThreshold: cpuWarnThreshold,
	})
	return crawlers.NewRodLauncher(appConfig.BrowserConfig(), monitor)
}

// newHeaderManager 图片请求头部,Referer 默认为站点首页
func newHeaderManager() (*core.HeaderManager, error) {
	referer := strings.TrimRight(appConfig.Discovery.SiteBase, "/") + "/"
	hm, err := core.NewHeaderManager("", headers, appConfig.Browser.UserAgent, referer)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}
	return hm, nil
}

// saveReport 按配置保存运行报告,失败只记录日志; 全部章节已完成时不写报告
func saveReport(report *models.RunReport) {
	if report == nil || !appConfig.Report.Enabled {
		return
	}
	if report.Idle() {
		utils.Info("没有需要处理的章节, 不生成报告")
		return
	}
	if _, err := utils.NewReporter(appConfig.Report.Dir).Save(report); err != nil {
		utils.Warnf("⚠️ 保存报告失败: %v", err)
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "漫画库根目录 (覆盖 library.root_dir)")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", true, "无头浏览器模式")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	// 发现参数
	for _, cmd := range []*cobra.Command{discoverCmd, runCmd} {
		cmd.Flags().StringSliceVarP(&seriesURLs, "url", "u", nil, "系列地址,可多次指定 (默认读取系列列表文件)")
		cmd.Flags().StringVarP(&updateFile, "update-file", "f", "", "系列列表文件 (默认 {root}/update-chapters.txt)")
	}

	// 物化参数
	for _, cmd := range []*cobra.Command{materializeCmd, runCmd} {
		cmd.Flags().StringSliceVarP(&onlySeries, "series", "s", nil, "只处理指定系列目录,可多次指定")
		cmd.Flags().StringVarP(&mode, "mode", "m", "", "图片提取模式 (dynamic|static)")
		cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "图片提取重试次数 (1-10)")
	}

	// 添加子命令
	rootCmd.AddCommand(discoverCmd, materializeCmd, runCmd, versionCmd)
}

func main() {
	// Ctrl+C 取消上下文,流程在章节之间停止
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if ctx.Err() != nil {
			utils.Warn("收到中断信号, 已停止")
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		stop()
		os.Exit(1)
	}
}
