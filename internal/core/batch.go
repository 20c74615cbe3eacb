package core

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/comicshelf/internal/crawlers"
	"github.com/RecoveryAshes/comicshelf/internal/models"
	"github.com/RecoveryAshes/comicshelf/internal/utils"
)

// DiscoveryBatch 批量章节发现
// 整个批次共用一个浏览器会话
type DiscoveryBatch struct {
	config     models.DiscoveryConfig
	launcher   crawlers.Launcher
	discoverer *ChapterDiscoverer
}

// NewDiscoveryBatch 创建批量发现器
func NewDiscoveryBatch(config models.DiscoveryConfig, launcher crawlers.Launcher, extractor crawlers.Extractor) *DiscoveryBatch {
	return &DiscoveryBatch{
		config:     config,
		launcher:   launcher,
		discoverer: NewChapterDiscoverer(config, extractor),
	}
}

// Run 依次发现每个系列
func (b *DiscoveryBatch) Run(ctx context.Context, seriesURLs []string) (*models.RunReport, error) {
	report := models.NewRunReport("discover", b.config.RootDir)
	defer report.Finish()

	utils.Infof("🚀 开始章节发现: %d个系列", len(seriesURLs))
	if len(seriesURLs) == 0 {
		return report, nil
	}

	r, err := b.launcher.Launch(ctx)
	if err != nil {
		return report, fmt.Errorf("启动浏览器失败: %w", err)
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			utils.Debugf("关闭浏览器失败: %v", cerr)
		}
	}()

	for i, seriesURL := range seriesURLs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		utils.Infof("\n==================== [%d/%d] ====================", i+1, len(seriesURLs))
		utils.Infof("📖 处理系列: %s", seriesURL)

		result := b.discoverSingle(ctx, r, seriesURL)
		report.Series = append(report.Series, result)

		if !result.Success {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			utils.Errorf("❌ 系列处理失败: %s", result.ErrorMsg)
			if !b.config.ContinueOnError {
				utils.Warn("批量发现中止 (continue_on_error=false)")
				break
			}
		}

		if i < len(seriesURLs)-1 && b.config.SeriesDelay > 0 {
			utils.Debugf("等待 %.0f 秒后处理下一个系列...", b.config.SeriesDelay.Seconds())
			if err := utils.SleepContext(ctx, b.config.SeriesDelay); err != nil {
				return report, err
			}
		}
	}

	b.printSummary(report)
	return report, nil
}

// discoverSingle 处理单个系列并转换为报告条目
func (b *DiscoveryBatch) discoverSingle(ctx context.Context, r crawlers.Renderer, seriesURL string) models.SeriesResult {
	start := time.Now()
	result := models.SeriesResult{Slug: models.SeriesSlug(seriesURL), URL: seriesURL}

	dr, err := b.discoverer.DiscoverSeries(ctx, r, seriesURL)
	result.Duration = time.Since(start).Seconds()
	if dr != nil {
		result.Pages = dr.Pages
		result.Chapters = len(dr.Chapters)
		if dr.PageErr != nil {
			result.ErrorKind = models.ErrorKindPageLoad
			result.ErrorMsg = dr.PageErr.Error()
		}
	}
	if err != nil {
		result.ErrorKind = models.ErrorKindListFile
		result.ErrorMsg = err.Error()
		return result
	}

	result.Success = true
	return result
}

// printSummary 打印批量发现摘要
func (b *DiscoveryBatch) printSummary(report *models.RunReport) {
	success, failed := report.Counts()
	chapters := 0
	for _, s := range report.Series {
		chapters += s.Chapters
	}

	utils.Info("\n==================================================")
	utils.Info("📊 章节发现摘要")
	utils.Info("==================================================")
	utils.Infof("总系列数: %d", len(report.Series))
	utils.Infof("✅ 成功: %d", success)
	utils.Infof("❌ 失败: %d", failed)
	utils.Infof("📦 章节总数: %d", chapters)
	utils.Info("==================================================")

	if failed > 0 {
		utils.Warn("\n失败的系列:")
		for _, s := range report.Series {
			if !s.Success {
				utils.Warnf("  - %s: %s", s.URL, s.ErrorMsg)
			}
		}
	}
}

// PrintMaterializeSummary 打印物化摘要
func PrintMaterializeSummary(report *models.RunReport) {
	var done, skipped, failed, brokenImages int
	for _, s := range report.Series {
		for _, c := range s.Results {
			switch c.Status {
			case models.ChapterStatusDone:
				done++
			case models.ChapterStatusSkipped:
				skipped++
			case models.ChapterStatusFailed:
				failed++
			}
			brokenImages += len(c.FailedImages)
		}
	}

	utils.Info("\n==================================================")
	utils.Info("📊 物化摘要")
	utils.Info("==================================================")
	utils.Infof("系列数: %d", len(report.Series))
	utils.Infof("✅ 完成章节: %d", done)
	utils.Infof("⏩ 跳过章节: %d", skipped)
	utils.Infof("❌ 失败章节: %d", failed)
	if brokenImages > 0 {
		utils.Warnf("⚠️ 下载失败的图片: %d", brokenImages)
	}
	utils.Infof("⏱️  总耗时: %.2f秒", time.Since(report.StartTime).Seconds())
	utils.Info("==================================================")
}
