package core

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RecoveryAshes/comicshelf/internal/crawlers"
	"github.com/RecoveryAshes/comicshelf/internal/models"
)

const seriesURL = "https://comick.io/comic/solo-leveling"

func testDiscoveryConfig(root string) models.DiscoveryConfig {
	return models.DiscoveryConfig{
		RootDir:         root,
		Language:        "en",
		SiteBase:        "https://comick.io",
		ChapterPath:     "/comic/",
		GotoTimeout:     time.Minute,
		Settle:          5 * time.Second,
		ScrollStep:      500,
		ScrollAttempts:  50,
		ScrollPause:     300 * time.Millisecond,
		ContinueOnError: true,
	}
}

// threePageListing 第1、2页有内容,第3页重复第2页
func threePageListing(d *ChapterDiscoverer) map[string]string {
	page1 := listingPage(
		models.ChapterLink{Href: "/comic/solo-leveling/aa-chapter-2-en", Upvotes: 3},
		models.ChapterLink{Href: "/comic/solo-leveling/bb-chapter-1-en", Upvotes: 5},
	)
	page2 := listingPage(
		models.ChapterLink{Href: "/comic/solo-leveling/cc-chapter-2-en", Upvotes: 10},
		models.ChapterLink{Href: "/comic/solo-leveling/dd-chapter-3-en", Upvotes: 0},
		models.ChapterLink{Href: "/comic/solo-leveling/ee-chapter-3-en", Upvotes: 0},
	)
	return map[string]string{
		d.ListingURL(seriesURL, 1): page1,
		d.ListingURL(seriesURL, 2): page2,
		d.ListingURL(seriesURL, 3): page2,
	}
}

func TestChapterDiscoverer_ListingURL(t *testing.T) {
	d := NewChapterDiscoverer(testDiscoveryConfig(t.TempDir()), crawlers.NewComickExtractor("", ""))

	if got := d.ListingURL(seriesURL, 1); got != seriesURL+"?lang=en&chap-order=1&page=1" {
		t.Errorf("列表地址错误: %s", got)
	}
	if got := d.ListingURL(seriesURL+"?tab=chapters", 2); got != seriesURL+"?tab=chapters&lang=en&chap-order=1&page=2" {
		t.Errorf("已有查询参数时应使用&: %s", got)
	}
}

func TestChapterDiscoverer_DiscoverSeries(t *testing.T) {
	root := t.TempDir()
	d := NewChapterDiscoverer(testDiscoveryConfig(root), crawlers.NewComickExtractor("", ""))
	session := &fakeSession{pages: threePageListing(d)}

	result, err := d.DiscoverSeries(context.Background(), session, seriesURL)
	if err != nil {
		t.Fatalf("发现失败: %v", err)
	}

	if result.Series.Slug != "solo-leveling" {
		t.Errorf("系列目录名错误: %s", result.Series.Slug)
	}
	if result.Pages != 3 {
		t.Errorf("加载页数 = %d, 期望 3", result.Pages)
	}
	if len(session.visited) != 3 {
		t.Errorf("第3页没有新链接后应停止, 实际访问 %v", session.visited)
	}
	if !result.Written {
		t.Fatal("应写入章节列表")
	}

	listPath := filepath.Join(root, "solo-leveling", ChapterListFile)
	got, err := os.ReadFile(listPath)
	if err != nil {
		t.Fatalf("读取章节列表失败: %v", err)
	}
	want := "https://comick.io/comic/solo-leveling/bb-chapter-1-en\n" +
		"https://comick.io/comic/solo-leveling/cc-chapter-2-en\n" +
		"https://comick.io/comic/solo-leveling/dd-chapter-3-en\n"
	if string(got) != want {
		t.Errorf("章节列表内容:\n%s\n期望:\n%s", got, want)
	}

	t.Run("重复运行结果字节一致", func(t *testing.T) {
		session := &fakeSession{pages: threePageListing(d)}
		if _, err := d.DiscoverSeries(context.Background(), session, seriesURL); err != nil {
			t.Fatalf("第二次发现失败: %v", err)
		}
		again, _ := os.ReadFile(listPath)
		if !bytes.Equal(got, again) {
			t.Errorf("两次结果不一致:\n%s\n%s", got, again)
		}
	})
}

func TestChapterDiscoverer_PageLoadFailure(t *testing.T) {
	root := t.TempDir()
	d := NewChapterDiscoverer(testDiscoveryConfig(root), crawlers.NewComickExtractor("", ""))
	pages := threePageListing(d)
	session := &fakeSession{
		pages:  pages,
		failOn: map[string]bool{d.ListingURL(seriesURL, 2): true},
	}

	result, err := d.DiscoverSeries(context.Background(), session, seriesURL)
	if err != nil {
		t.Fatalf("页面加载失败不应返回错误: %v", err)
	}
	if !errors.Is(result.PageErr, crawlers.ErrPageLoad) {
		t.Errorf("应记录页面加载错误, 实际 %v", result.PageErr)
	}
	if result.Pages != 1 || len(result.Chapters) != 2 {
		t.Errorf("应保留第1页结果: pages=%d chapters=%d", result.Pages, len(result.Chapters))
	}
	if !result.Written {
		t.Error("已有结果时应写入章节列表")
	}
}

func TestChapterDiscoverer_EmptyKeepsExistingList(t *testing.T) {
	root := t.TempDir()
	d := NewChapterDiscoverer(testDiscoveryConfig(root), crawlers.NewComickExtractor("", ""))

	seriesDir := filepath.Join(root, "solo-leveling")
	os.MkdirAll(seriesDir, 0755)
	listPath := filepath.Join(seriesDir, ChapterListFile)
	previous := []byte("https://comick.io/comic/solo-leveling/old-chapter-1\n")
	os.WriteFile(listPath, previous, 0644)

	session := &fakeSession{pages: map[string]string{}}
	result, err := d.DiscoverSeries(context.Background(), session, seriesURL)
	if err != nil {
		t.Fatalf("发现失败: %v", err)
	}
	if result.Written || len(result.Chapters) != 0 {
		t.Errorf("空结果不应写入: %+v", result)
	}
	got, _ := os.ReadFile(listPath)
	if !bytes.Equal(got, previous) {
		t.Errorf("原有章节列表被修改: %s", got)
	}
}

func TestChapterDiscoverer_CreatesSeriesDir(t *testing.T) {
	root := t.TempDir()
	d := NewChapterDiscoverer(testDiscoveryConfig(root), crawlers.NewComickExtractor("", ""))

	session := &fakeSession{failOn: map[string]bool{d.ListingURL(seriesURL+"/", 1): true}}
	result, err := d.DiscoverSeries(context.Background(), session, seriesURL+"/")
	if err != nil {
		t.Fatalf("发现失败: %v", err)
	}
	if result.Series.Slug != "solo-leveling" {
		t.Errorf("末尾斜杠应被忽略: %s", result.Series.Slug)
	}
	if info, err := os.Stat(filepath.Join(root, "solo-leveling")); err != nil || !info.IsDir() {
		t.Error("处理开始时应创建系列目录")
	}
	if _, err := os.Stat(filepath.Join(root, "solo-leveling", ChapterListFile)); !os.IsNotExist(err) {
		t.Error("没有章节时不应创建章节列表")
	}
}

func TestChapterDiscoverer_MaxPages(t *testing.T) {
	cfg := testDiscoveryConfig(t.TempDir())
	cfg.MaxPages = 1
	d := NewChapterDiscoverer(cfg, crawlers.NewComickExtractor("", ""))
	session := &fakeSession{pages: threePageListing(d)}

	result, err := d.DiscoverSeries(context.Background(), session, seriesURL)
	if err != nil {
		t.Fatalf("发现失败: %v", err)
	}
	if len(session.visited) != 1 || result.Pages != 1 {
		t.Errorf("应只加载1页, 实际访问 %v", session.visited)
	}
}

func TestChapterDiscoverer_Cancelled(t *testing.T) {
	d := NewChapterDiscoverer(testDiscoveryConfig(t.TempDir()), crawlers.NewComickExtractor("", ""))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session := &fakeSession{pages: threePageListing(d)}
	if _, err := d.DiscoverSeries(ctx, session, seriesURL); !errors.Is(err, context.Canceled) {
		t.Fatalf("期望 context.Canceled, 实际 %v", err)
	}
}
