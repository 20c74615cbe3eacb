package core

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/comicshelf/internal/crawlers"
	"github.com/RecoveryAshes/comicshelf/internal/models"
	"github.com/RecoveryAshes/comicshelf/internal/utils"
)

const (
	// ChapterListFile 每个系列目录下的章节列表
	ChapterListFile = "chapters.txt"
	// LedgerFile 每个系列目录下的已完成章节账本
	LedgerFile = "downloaded.txt"
)

// DiscoveryResult 单个系列的发现结果
type DiscoveryResult struct {
	Series   models.Series
	Pages    int                       // 成功加载的列表页数
	Chapters []models.ChapterCandidate // 去重排序后的章节
	Written  bool                      // 是否写入了 chapters.txt
	PageErr  error                     // 中断分页的页面加载错误
}

// ChapterDiscoverer 分页抓取章节列表并去重
type ChapterDiscoverer struct {
	config    models.DiscoveryConfig
	extractor crawlers.Extractor
}

// NewChapterDiscoverer 创建章节发现器
func NewChapterDiscoverer(config models.DiscoveryConfig, extractor crawlers.Extractor) *ChapterDiscoverer {
	return &ChapterDiscoverer{config: config, extractor: extractor}
}

// ListingURL 第page页(从1开始)的列表地址
func (d *ChapterDiscoverer) ListingURL(seriesURL string, page int) string {
	sep := "?"
	if strings.Contains(seriesURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%slang=%s&chap-order=1&page=%d", seriesURL, sep, url.QueryEscape(d.config.Language), page)
}

// DiscoverSeries 发现一个系列的全部章节并写入 chapters.txt
// 页面加载失败时停止分页,使用已累积的结果; 结果为空时不写文件
func (d *ChapterDiscoverer) DiscoverSeries(ctx context.Context, r crawlers.Renderer, seriesURL string) (*DiscoveryResult, error) {
	slug := models.SeriesSlug(seriesURL)
	result := &DiscoveryResult{
		Series: models.Series{
			Slug: slug,
			Dir:  filepath.Join(d.config.RootDir, slug),
			URL:  seriesURL,
		},
	}

	if err := os.MkdirAll(result.Series.Dir, 0755); err != nil {
		return result, fmt.Errorf("创建系列目录失败: %w", err)
	}

	resolver := NewChapterResolver()
	seen := make(map[string]struct{})

	for page := 1; d.config.MaxPages <= 0 || page <= d.config.MaxPages; page++ {
		pageURL := d.ListingURL(seriesURL, page)
		utils.Infof("  加载第%d页...", page)

		links, err := d.scrapePage(ctx, r, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			utils.Warnf("  ⚠️ 第%d页加载失败 [%s]: %v", page, slug, err)
			result.PageErr = err
			break
		}

		fresh := 0
		for _, link := range links {
			if _, ok := seen[link.Href]; ok {
				continue
			}
			seen[link.Href] = struct{}{}
			fresh++
			resolver.Add(link)
		}
		result.Pages++

		if fresh == 0 {
			utils.Infof("  第%d页没有新章节, 停止翻页", page)
			break
		}
		utils.Debugf("  第%d页: %d个链接, 新增%d个, 已解析%d章", page, len(links), fresh, resolver.Len())
	}

	result.Chapters = resolver.Resolved()
	if len(result.Chapters) == 0 {
		utils.Warnf("⚠️ 系列 %s 未找到有效章节, 保留原有章节列表", slug)
		return result, nil
	}

	listPath := filepath.Join(result.Series.Dir, ChapterListFile)
	if err := WriteChapterList(listPath, result.Chapters); err != nil {
		return result, err
	}
	result.Written = true

	utils.Infof("✅ 写入%d个章节到 %s", len(result.Chapters), listPath)
	return result, nil
}

// scrapePage 加载一页并提取章节链接
func (d *ChapterDiscoverer) scrapePage(ctx context.Context, r crawlers.Renderer, pageURL string) ([]models.ChapterLink, error) {
	if err := r.Navigate(ctx, pageURL, d.config.GotoTimeout); err != nil {
		return nil, err
	}
	if err := r.Wait(ctx, d.config.Settle); err != nil {
		return nil, err
	}
	if err := crawlers.AutoScroll(ctx, r, d.config.ScrollStep, d.config.ScrollAttempts, d.config.ScrollPause); err != nil {
		return nil, err
	}

	doc, err := r.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return d.extractor.ExtractChapterLinks(doc, pageURL)
}

// WriteChapterList 覆盖写入章节列表,每行一个URL
func WriteChapterList(path string, chapters []models.ChapterCandidate) error {
	lines := make([]string, len(chapters))
	for i, c := range chapters {
		lines[i] = c.URL
	}
	if err := utils.WriteLines(path, lines); err != nil {
		return fmt.Errorf("写入章节列表失败: %w", err)
	}
	return nil
}

// ReadChapterList 读取章节列表,行号(从1开始)即章节序号
func ReadChapterList(path string) ([]models.ChapterRecord, error) {
	lines, err := utils.ReadLines(path)
	if err != nil {
		return nil, err
	}
	records := make([]models.ChapterRecord, len(lines))
	for i, line := range lines {
		records[i] = models.ChapterRecord{Index: i + 1, URL: line}
	}
	return records, nil
}
