package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/RecoveryAshes/comicshelf/internal/crawlers"
	"github.com/RecoveryAshes/comicshelf/internal/models"
)

// fakeSession 以URL为键返回预设HTML的渲染会话
type fakeSession struct {
	pages    map[string]string
	failOn   map[string]bool
	current  string
	visited  []string
	closed   bool
	evaluate int
}

func (s *fakeSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	s.visited = append(s.visited, url)
	if s.failOn[url] {
		return fmt.Errorf("%w [%s]: timeout", crawlers.ErrPageLoad, url)
	}
	s.current = url
	return ctx.Err()
}

func (s *fakeSession) Evaluate(ctx context.Context, js string, out interface{}, args ...interface{}) error {
	s.evaluate++
	// 页面高度为0,第一次读取位置后即停止滚动
	if p, ok := out.(*[2]float64); ok {
		*p = [2]float64{0, 0}
	}
	return nil
}

func (s *fakeSession) HTML(ctx context.Context) (string, error) {
	html, ok := s.pages[s.current]
	if !ok {
		return "<html><body></body></html>", nil
	}
	return html, nil
}

func (s *fakeSession) Wait(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeLauncher struct {
	session  *fakeSession
	launches int
	err      error
}

func (l *fakeLauncher) Launch(ctx context.Context) (crawlers.Renderer, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.launches++
	return l.session, nil
}

// stubLocator 按章节URL返回预设图片地址并记录调用次数
type stubLocator struct {
	mu    sync.Mutex
	urls  map[string][]string
	calls int
}

func (l *stubLocator) Locate(ctx context.Context, chapterURL string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	urls, ok := l.urls[chapterURL]
	if !ok || len(urls) == 0 {
		return nil, fmt.Errorf("%w: %s", crawlers.ErrNoImagesFound, chapterURL)
	}
	return urls, nil
}

// listingPage 生成列表页HTML
func listingPage(links ...models.ChapterLink) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, l := range links {
		fmt.Fprintf(&b, `<a href="%s"><div class="text-sm no-link">%d</div></a>`, l.Href, l.Upvotes)
	}
	b.WriteString("</body></html>")
	return b.String()
}

var errBoom = errors.New("boom")
