package core

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/comicshelf/internal/models"
	"golang.org/x/net/html"
)

// SourceDir 系列目录下存放图片的子目录
const SourceDir = "source"

const pageStyle = "body { background: #000; text-align: center; color: white; font-family: Arial, sans-serif; }\n" +
	"img { width: 100%; max-width: 1000px; margin: 0 auto; display: block; }\n" +
	"a.button { display: inline-block; padding: 10px 20px; margin: 5px; background: #444; color: white; text-decoration: none; font-size: 1.2em; border-radius: 6px; }\n" +
	"a.button:hover { background: #666; }\n" +
	".topnav { display: flex; justify-content: space-between; align-items: center; margin: 10px; }\n" +
	"select { font-size: 1.1em; padding: 5px; border-radius: 6px; }\n"

// ChapterPage 一个章节页面的渲染参数
type ChapterPage struct {
	Index      int // 章节序号,从1开始
	Total      int // 系列章节总数
	ImageCount int // 图片数量(含下载失败的)
}

// ImageDir 章节图片目录(相对系列目录)
func ImageDir(index int) string {
	return path.Join(SourceDir, models.ChapterID(index))
}

// prevHref 上一章页面,首章为空
func (p ChapterPage) prevHref() string {
	if p.Index <= 1 {
		return ""
	}
	return models.ChapterHTMLName(p.Index - 1)
}

// nextHref 下一章页面,末章为空
func (p ChapterPage) nextHref() string {
	if p.Index >= p.Total {
		return ""
	}
	return models.ChapterHTMLName(p.Index + 1)
}

// Render 生成完整HTML
func (p ChapterPage) Render() string {
	var b strings.Builder
	prev, next := p.prevHref(), p.nextHref()

	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset='utf-8'>\n<style>\n")
	b.WriteString(pageStyle)
	b.WriteString("</style>\n</head>\n<body>\n")

	b.WriteString("<div class=\"topnav\">\n")
	if prev != "" {
		writeButton(&b, prev, "⬅ Previous")
	} else {
		b.WriteString("<span></span>\n")
	}
	p.writeJumpList(&b)
	if next != "" {
		writeButton(&b, next, "Next ➡")
	} else {
		b.WriteString("<span></span>\n")
	}
	b.WriteString("</div>\n<hr>\n")

	dir := ImageDir(p.Index)
	for i := 1; i <= p.ImageCount; i++ {
		src := path.Join(dir, models.ImageName(i))
		fmt.Fprintf(&b, "<img src=\"%s\" loading=\"lazy\">\n", html.EscapeString(src))
	}

	b.WriteString("<div class='bottomnav'>\n")
	if prev != "" {
		writeButton(&b, prev, "⬅ Previous")
	}
	if next != "" {
		writeButton(&b, next, "Next ➡")
	}
	b.WriteString("</div>\n")

	b.WriteString("</body>\n</html>\n")
	return b.String()
}

func writeButton(b *strings.Builder, href string, label string) {
	fmt.Fprintf(b, "<a class=\"button\" href=\"%s\">%s</a>\n", html.EscapeString(href), label)
}

// writeJumpList 章节跳转下拉框,当前章节预选
func (p ChapterPage) writeJumpList(b *strings.Builder) {
	b.WriteString("<select onchange=\"if(this.value) window.location.href=this.value;\">\n")
	b.WriteString("<option value=\"\" selected>Jump to chapter</option>\n")
	for i := 1; i <= p.Total; i++ {
		sel := ""
		if i == p.Index {
			sel = " selected"
		}
		fmt.Fprintf(b, "<option value=\"%s\"%s>Chapter %d</option>\n", html.EscapeString(models.ChapterHTMLName(i)), sel, i)
	}
	b.WriteString("</select>\n")
}

// WriteChapterPage 写入 {seriesDir}/chapter_NNN.html,返回文件路径
func WriteChapterPage(seriesDir string, page ChapterPage) (string, error) {
	htmlPath := filepath.Join(seriesDir, models.ChapterHTMLName(page.Index))
	if err := os.WriteFile(htmlPath, []byte(page.Render()), 0644); err != nil {
		return "", fmt.Errorf("写入章节页面失败: %w", err)
	}
	return htmlPath, nil
}
