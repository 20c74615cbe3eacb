package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/comicshelf/internal/crawlers"
	"github.com/RecoveryAshes/comicshelf/internal/models"
	"github.com/RecoveryAshes/comicshelf/internal/utils"
)

// ErrNoChapterList 系列目录下没有 chapters.txt
var ErrNoChapterList = errors.New("未找到章节列表")

// ImageFetcher 下载单张图片
type ImageFetcher interface {
	Download(ctx context.Context, url string, dest string) (int64, error)
}

// Materializer 把章节列表转换为本地图片和HTML页面
type Materializer struct {
	config     models.MaterializeConfig
	locator    crawlers.ImageLocator
	downloader ImageFetcher
}

// NewMaterializer 创建物化器
func NewMaterializer(config models.MaterializeConfig, locator crawlers.ImageLocator, downloader ImageFetcher) *Materializer {
	return &Materializer{
		config:     config,
		locator:    locator,
		downloader: downloader,
	}
}

// ListSeries 根目录下按名称排序的系列目录; 配置了 OnlySeries 时只返回这些
func (m *Materializer) ListSeries() ([]models.Series, error) {
	entries, err := os.ReadDir(m.config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("读取根目录失败: %w", err)
	}

	only := make(map[string]struct{}, len(m.config.OnlySeries))
	for _, slug := range m.config.OnlySeries {
		only[slug] = struct{}{}
	}

	series := make([]models.Series, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if len(only) > 0 {
			if _, ok := only[e.Name()]; !ok {
				continue
			}
		}
		series = append(series, models.Series{
			Slug: e.Name(),
			Dir:  filepath.Join(m.config.RootDir, e.Name()),
		})
	}
	return series, nil
}

// Run 依次处理所有系列
func (m *Materializer) Run(ctx context.Context) (*models.RunReport, error) {
	report := models.NewRunReport("materialize", m.config.RootDir)
	defer report.Finish()

	series, err := m.ListSeries()
	if err != nil {
		return report, err
	}
	utils.Infof("🚀 开始物化: %d个系列", len(series))

	for _, s := range series {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result, err := m.MaterializeSeries(ctx, s)
		if errors.Is(err, ErrNoChapterList) {
			utils.Warnf("⚠️ 系列 '%s' 没有 %s, 跳过", s.Slug, ChapterListFile)
		} else if err != nil && ctx.Err() == nil {
			utils.Errorf("❌ 系列 %s 处理失败: %v", s.Slug, err)
		}
		report.Series = append(report.Series, result)
	}

	return report, ctx.Err()
}

// MaterializeSeries 处理一个系列中未完成的章节
func (m *Materializer) MaterializeSeries(ctx context.Context, series models.Series) (result models.SeriesResult, err error) {
	start := time.Now()
	result = models.SeriesResult{Slug: series.Slug, URL: series.URL}
	defer func() {
		result.Duration = time.Since(start).Seconds()
	}()

	listPath := filepath.Join(series.Dir, ChapterListFile)
	if !utils.FileExists(listPath) {
		result.ErrorKind = models.ErrorKindListFile
		result.ErrorMsg = ErrNoChapterList.Error()
		return result, ErrNoChapterList
	}

	utils.Infof("📚 处理系列: %s", series.Slug)

	records, err := ReadChapterList(listPath)
	if err != nil {
		result.ErrorKind = models.ErrorKindListFile
		result.ErrorMsg = err.Error()
		return result, err
	}
	ledger, err := OpenLedger(filepath.Join(series.Dir, LedgerFile))
	if err != nil {
		result.ErrorKind = models.ErrorKindListFile
		result.ErrorMsg = err.Error()
		return result, err
	}

	result.Chapters = len(records)
	result.Success = true

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		id := record.ID()
		if ledger.Contains(id) {
			utils.Debugf("跳过已完成章节: %s", id)
			result.Results = append(result.Results, models.ChapterResult{
				ID:     id,
				URL:    record.URL,
				Status: models.ChapterStatusSkipped,
			})
			continue
		}

		chapter := m.MaterializeChapter(ctx, series, record, len(records), ledger)
		if chapter.Status == models.ChapterStatusFailed {
			result.Success = false
		}
		result.Results = append(result.Results, chapter)
	}

	return result, nil
}

// MaterializeChapter 定位图片、下载、生成页面,成功后记入账本
// 单张图片下载失败不影响页面生成,页面仍引用该编号
func (m *Materializer) MaterializeChapter(ctx context.Context, series models.Series, record models.ChapterRecord, total int, ledger *Ledger) models.ChapterResult {
	id := record.ID()
	result := models.ChapterResult{ID: id, URL: record.URL}
	utils.Infof("🔍 处理 %s: %s", id, record.URL)

	urls, err := m.locator.Locate(ctx, record.URL)
	if err != nil || len(urls) == 0 {
		result.Status = models.ChapterStatusFailed
		result.ErrorKind = models.ErrorKindNoImages
		if err != nil && !errors.Is(err, crawlers.ErrNoImagesFound) {
			result.ErrorKind = models.ErrorKindPageLoad
		}
		if err == nil {
			err = crawlers.ErrNoImagesFound
		}
		result.ErrorMsg = err.Error()
		utils.Warnf("⚠️ 获取 %s 图片失败, 跳过", id)
		return result
	}
	result.Images = len(urls)

	imageDir := filepath.Join(series.Dir, filepath.FromSlash(ImageDir(record.Index)))
	if err := os.MkdirAll(imageDir, 0755); err != nil {
		return m.htmlFailure(series, result, err)
	}

	result.FailedImages = m.downloadImages(ctx, id, urls, imageDir)
	if err := ctx.Err(); err != nil {
		return interrupted(result, err)
	}
	if len(result.FailedImages) > 0 {
		utils.Warnf("⚠️ %s 有%d张图片下载失败", id, len(result.FailedImages))
	}

	page := ChapterPage{Index: record.Index, Total: total, ImageCount: len(urls)}
	htmlPath, err := WriteChapterPage(series.Dir, page)
	if err != nil {
		return m.htmlFailure(series, result, err)
	}

	if err := ctx.Err(); err != nil {
		return interrupted(result, err)
	}
	if err := ledger.Mark(id); err != nil {
		result.Status = models.ChapterStatusFailed
		result.ErrorKind = models.ErrorKindListFile
		result.ErrorMsg = err.Error()
		utils.Errorf("❌ 写入账本失败 [%s]: %v", id, err)
		return result
	}

	result.Status = models.ChapterStatusDone
	utils.Infof("✅ 已保存: %s", htmlPath)
	return result
}

// downloadImages 按编号下载,已存在的文件跳过; 返回失败的URL
func (m *Materializer) downloadImages(ctx context.Context, id string, urls []string, imageDir string) []string {
	var failed []string
	bar := utils.NewProgressBar(len(urls), id, m.config.Download.Progress)
	defer bar.Close()

	for i, u := range urls {
		if ctx.Err() != nil {
			break
		}
		dest := filepath.Join(imageDir, models.ImageName(i+1))
		if utils.FileExists(dest) {
			bar.Add(1)
			continue
		}

		utils.Debugf("下载 %s -> %s", u, dest)
		if _, err := m.downloader.Download(ctx, u, dest); err != nil {
			utils.Warnf("    ⚠️ 下载失败 %s: %v", u, err)
			failed = append(failed, u)
		}
		bar.Add(1)
	}
	return failed
}

// interrupted 下载途中被取消: 章节不记入账本,下次运行重新处理
func interrupted(result models.ChapterResult, err error) models.ChapterResult {
	result.Status = models.ChapterStatusFailed
	result.ErrorKind = models.ErrorKindImageDownload
	result.ErrorMsg = err.Error()
	utils.Warnf("⚠️ %s 处理被中断, 未记入账本", result.ID)
	return result
}

// htmlFailure 页面生成失败: 写入 error.log,章节不记入账本
func (m *Materializer) htmlFailure(series models.Series, result models.ChapterResult, err error) models.ChapterResult {
	result.Status = models.ChapterStatusFailed
	result.ErrorKind = models.ErrorKindHTMLGeneration
	result.ErrorMsg = err.Error()

	utils.Errorf("❌ 生成 %s 页面失败: %v", result.ID, err)
	line := fmt.Sprintf("Error generating HTML for %s in %s: %v", result.ID, series.Slug, err)
	if logErr := utils.AppendLine(m.errorLogPath(), line); logErr != nil {
		utils.Errorf("写入错误日志失败: %v", logErr)
	}
	return result
}

func (m *Materializer) errorLogPath() string {
	name := m.config.ErrorLog
	if name == "" {
		name = "error.log"
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(m.config.RootDir, name)
}
