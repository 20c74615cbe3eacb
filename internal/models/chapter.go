package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// chapterNumberPattern 章节号匹配: chapter-<数字> 后接非数字或结尾
var chapterNumberPattern = regexp.MustCompile(`chapter-(\d+)(?:[^0-9]|$)`)

// ChapterLink 列表页上提取到的原始章节链接
type ChapterLink struct {
	Href    string `json:"href"`    // 解析后的绝对URL
	Upvotes int    `json:"upvotes"` // 点赞数(缺失或无法解析时为0)
}

// ChapterCandidate 去重前的章节候选
type ChapterCandidate struct {
	Number  int    `json:"number"`
	URL     string `json:"url"`
	Upvotes int    `json:"upvotes"`
}

// ChapterRecord 写入chapters.txt的章节记录
// Index 为1开始的行号,下游以此编号
type ChapterRecord struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
}

// ID 返回账本中使用的章节标识
func (r ChapterRecord) ID() string {
	return ChapterID(r.Index)
}

// HTMLName 返回章节页面文件名
func (r ChapterRecord) HTMLName() string {
	return ChapterHTMLName(r.Index)
}

// ParseChapterNumber 从URL中提取章节号
func ParseChapterNumber(rawURL string) (int, bool) {
	m := chapterNumberPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ChapterID 章节账本标识 chapter_001
func ChapterID(index int) string {
	return fmt.Sprintf("chapter_%03d", index)
}

// ChapterHTMLName 章节页面文件名 chapter_001.html
func ChapterHTMLName(index int) string {
	return ChapterID(index) + ".html"
}

// ImageName 图片文件名 01.jpg
func ImageName(index int) string {
	return fmt.Sprintf("%02d.jpg", index)
}

// SeriesSlug 从系列URL提取目录名(去除末尾斜杠后的最后一段)
func SeriesSlug(seriesURL string) string {
	trimmed := strings.TrimRight(seriesURL, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// Series 一个漫画系列及其目录
type Series struct {
	Slug string `json:"slug"`
	Dir  string `json:"dir"`
	URL  string `json:"url,omitempty"` // 仅发现阶段已知
}
