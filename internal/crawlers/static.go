package crawlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/RecoveryAshes/comicshelf/internal/models"
	"github.com/RecoveryAshes/comicshelf/internal/utils"
	"github.com/gocolly/colly/v2"
)

// StaticImageLocator 不启动浏览器,直接抓取章节HTML提取图片地址(使用Colly)
// 仅适用于服务端直出图片列表的页面
type StaticImageLocator struct {
	extractor      Extractor
	config         models.ImageConfig
	headerProvider models.HeaderProvider
	userAgent      string
}

// NewStaticImageLocator 创建静态图片定位器
func NewStaticImageLocator(extractor Extractor, config models.ImageConfig, headerProvider models.HeaderProvider, userAgent string) *StaticImageLocator {
	return &StaticImageLocator{
		extractor:      extractor,
		config:         config,
		headerProvider: headerProvider,
		userAgent:      userAgent,
	}
}

// newCollector 每次定位使用独立的collector,绑定调用方的ctx
func (l *StaticImageLocator) newCollector(ctx context.Context) *colly.Collector {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	)
	if l.userAgent != "" {
		c.UserAgent = l.userAgent
	}
	timeout := l.config.GotoTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c.SetRequestTimeout(timeout)
	return c
}

// Locate 实现 ImageLocator
func (l *StaticImageLocator) Locate(ctx context.Context, chapterURL string) ([]string, error) {
	attempts := l.config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		utils.Infof("  第%d次尝试: 抓取 %s", attempt, chapterURL)

		urls, err := l.fetch(ctx, chapterURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			utils.Warnf("    ⚠️ 抓取失败: %v, 重试中...", err)
		} else if len(urls) > 0 {
			return urls, nil
		} else {
			utils.Warnf("    ⚠️ 未找到有效图片地址, 重试中...")
		}

		if attempt < attempts {
			if err := utils.SleepContext(ctx, l.config.Settle); err != nil {
				return nil, err
			}
		}
	}

	utils.Warnf("    ⏩ 跳过: 重试%d次后仍未找到图片", attempts)
	return nil, fmt.Errorf("%w: %s", ErrNoImagesFound, chapterURL)
}

// fetch 单次抓取
func (l *StaticImageLocator) fetch(ctx context.Context, chapterURL string) ([]string, error) {
	c := l.newCollector(ctx)

	var (
		result   []string
		parseErr error
		reqErr   error
	)

	c.OnRequest(func(r *colly.Request) {
		if l.headerProvider == nil {
			return
		}
		headers, err := l.headerProvider.GetHeaders()
		if err != nil {
			utils.Warnf("获取HTTP头部失败: %v", err)
			return
		}
		for name, values := range headers {
			if len(values) > 0 {
				r.Headers.Set(name, values[0])
			}
		}
		utils.Debugf("访问: %s", r.URL.String())
	})

	c.OnResponse(func(r *colly.Response) {
		body, err := decodeBody(r.Headers.Get("Content-Encoding"), r.Body)
		if err != nil {
			utils.Warnf("解压响应失败 [%s]: %v", r.Request.URL, err)
		}

		srcs, err := l.extractor.ExtractImageSources(string(body), r.Request.URL.String())
		if err != nil {
			parseErr = err
			return
		}
		utils.Infof("    页面共有 %d 个 <img> 标签", len(srcs))
		result = FilterImageURLs(srcs, l.config.Host, l.config.PlaceholderMarker)
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 && r.StatusCode != http.StatusOK {
			reqErr = fmt.Errorf("%w: %d: %v", ErrUnexpectedStatus, r.StatusCode, err)
			return
		}
		reqErr = err
	})

	if err := c.Visit(chapterURL); err != nil && reqErr == nil {
		reqErr = err
	}
	c.Wait()

	if reqErr != nil {
		return nil, fmt.Errorf("%w [%s]: %v", ErrPageLoad, chapterURL, reqErr)
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return result, nil
}
