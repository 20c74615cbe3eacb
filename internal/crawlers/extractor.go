package crawlers

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/comicshelf/internal/models"
)

const (
	// DefaultSiteBase 以 / 开头的相对链接补全前缀
	DefaultSiteBase = "https://comick.io"
	// DefaultChapterPath 章节链接必须包含的路径片段
	DefaultChapterPath = "/comic/"

	upvoteMarkerClass = "no-link"
)

var leadingIntPattern = regexp.MustCompile(`^[+-]?\d+`)

// Extractor 从渲染后的HTML中提取数据
type Extractor interface {
	// ExtractChapterLinks 提取列表页上的章节链接及点赞数,按文档顺序
	ExtractChapterLinks(doc string, pageURL string) ([]models.ChapterLink, error)
	// ExtractImageSources 提取所有 <img> 的src(已解析为绝对地址),不做过滤
	ExtractImageSources(doc string, pageURL string) ([]string, error)
}

// ComickExtractor comick 页面结构的提取器
type ComickExtractor struct {
	siteBase    string
	chapterPath string
}

// NewComickExtractor 创建提取器,参数为空时使用默认值
func NewComickExtractor(siteBase string, chapterPath string) *ComickExtractor {
	if siteBase == "" {
		siteBase = DefaultSiteBase
	}
	if chapterPath == "" {
		chapterPath = DefaultChapterPath
	}
	return &ComickExtractor{
		siteBase:    strings.TrimRight(siteBase, "/"),
		chapterPath: chapterPath,
	}
}

// ExtractChapterLinks 实现 Extractor
func (e *ComickExtractor) ExtractChapterLinks(doc string, pageURL string) ([]models.ChapterLink, error) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}
	base, _ := url.Parse(pageURL)

	links := make([]models.ChapterLink, 0)
	d.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if href == "" || strings.HasPrefix(href, "#") || !strings.Contains(href, e.chapterPath) {
			return
		}
		links = append(links, models.ChapterLink{
			Href:    e.resolveHref(base, href),
			Upvotes: parseUpvotes(a),
		})
	})
	return links, nil
}

// ExtractImageSources 实现 Extractor
func (e *ComickExtractor) ExtractImageSources(doc string, pageURL string) ([]string, error) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}
	base, _ := url.Parse(pageURL)

	srcs := make([]string, 0)
	d.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" {
			return
		}
		srcs = append(srcs, resolveAgainst(base, src))
	})
	return srcs, nil
}

// resolveHref 以 / 开头的链接补全站点前缀,其余相对链接按页面地址解析
func (e *ComickExtractor) resolveHref(base *url.URL, href string) string {
	if strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//") {
		return e.siteBase + href
	}
	return resolveAgainst(base, href)
}

func resolveAgainst(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// parseUpvotes 读取链接内第一个 class 含 no-link 的 div.text-sm
// 缺失或无法解析时为0
func parseUpvotes(a *goquery.Selection) int {
	counter := a.Find("div.text-sm").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.AttrOr("class", ""), upvoteMarkerClass)
	}).First()
	if counter.Length() == 0 {
		return 0
	}
	return ParseCount(counter.Text())
}

// ParseCount 解析 "1,234" 形式的计数,取开头的整数部分
func ParseCount(text string) int {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	m := leadingIntPattern.FindString(text)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}
