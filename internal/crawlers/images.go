package crawlers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/RecoveryAshes/comicshelf/internal/models"
	"github.com/RecoveryAshes/comicshelf/internal/utils"
)

var imageExtPattern = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp)$`)

// FilterImageURLs 保留来自图片主机、扩展名有效且不含占位标记的地址,保持原顺序
// host 与 marker 均按不区分大小写的子串匹配; marker 为空时不排除
func FilterImageURLs(srcs []string, host string, marker string) []string {
	host = strings.ToLower(host)
	marker = strings.ToLower(marker)

	result := make([]string, 0, len(srcs))
	for _, src := range srcs {
		lower := strings.ToLower(src)
		if !strings.Contains(lower, host) {
			continue
		}
		if !imageExtPattern.MatchString(src) {
			continue
		}
		if marker != "" && strings.Contains(lower, marker) {
			continue
		}
		result = append(result, src)
	}
	return result
}

// ImageLocator 获取章节页面上的有序图片地址
type ImageLocator interface {
	Locate(ctx context.Context, chapterURL string) ([]string, error)
}

// DynamicImageLocator 通过浏览器渲染提取图片地址
// 每次尝试启动新的浏览器会话,结果为空时整体重试
type DynamicImageLocator struct {
	launcher  Launcher
	extractor Extractor
	config    models.ImageConfig
}

// NewDynamicImageLocator 创建动态图片定位器
func NewDynamicImageLocator(launcher Launcher, extractor Extractor, config models.ImageConfig) *DynamicImageLocator {
	return &DynamicImageLocator{
		launcher:  launcher,
		extractor: extractor,
		config:    config,
	}
}

// Locate 实现 ImageLocator; 重试耗尽后返回 ErrNoImagesFound
func (l *DynamicImageLocator) Locate(ctx context.Context, chapterURL string) ([]string, error) {
	attempts := l.config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		utils.Infof("  第%d次尝试: 加载 %s", attempt, chapterURL)

		urls, err := l.attempt(ctx, chapterURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, ErrInsufficientMemory) {
				return nil, err
			}
			utils.Warnf("    ⚠️ 加载失败: %v, 重试中...", err)
			continue
		}
		if len(urls) > 0 {
			return urls, nil
		}
		utils.Warnf("    ⚠️ 未找到有效图片地址, 重试中...")
	}

	utils.Warnf("    ⏩ 跳过: 重试%d次后仍未找到图片", attempts)
	return nil, fmt.Errorf("%w: %s", ErrNoImagesFound, chapterURL)
}

// attempt 单次渲染+提取+过滤,会话在返回前关闭
func (l *DynamicImageLocator) attempt(ctx context.Context, chapterURL string) ([]string, error) {
	r, err := l.launcher.Launch(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			utils.Debugf("关闭浏览器失败: %v", cerr)
		}
	}()

	if err := r.Navigate(ctx, chapterURL, l.config.GotoTimeout); err != nil {
		return nil, err
	}
	if err := r.Wait(ctx, l.config.Settle); err != nil {
		return nil, err
	}

	doc, err := r.HTML(ctx)
	if err != nil {
		return nil, err
	}
	srcs, err := l.extractor.ExtractImageSources(doc, chapterURL)
	if err != nil {
		return nil, err
	}
	utils.Infof("    页面共有 %d 个 <img> 标签", len(srcs))

	return FilterImageURLs(srcs, l.config.Host, l.config.PlaceholderMarker), nil
}
