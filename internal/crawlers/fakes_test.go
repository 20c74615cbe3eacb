package crawlers

import (
	"context"
	"errors"
	"time"
)

// fakeRenderer 按脚本返回页面内容和滚动位置
type fakeRenderer struct {
	pages      map[string]string // url -> html
	navErr     error
	current    string
	y          float64
	height     float64
	maxY       float64 // 大于0时滚动位置不会超过该值
	scrolls    int
	evalErr    error
	waits      []time.Duration
	closed     bool
	navigation []string
}

func (f *fakeRenderer) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	f.navigation = append(f.navigation, url)
	if f.navErr != nil {
		return f.navErr
	}
	if _, ok := f.pages[url]; !ok && f.pages != nil {
		return ErrPageLoad
	}
	f.current = url
	f.y = 0
	return nil
}

func (f *fakeRenderer) Evaluate(ctx context.Context, js string, out interface{}, args ...interface{}) error {
	if f.evalErr != nil {
		return f.evalErr
	}
	switch js {
	case scrollPositionJS:
		if p, ok := out.(*[2]float64); ok {
			*p = [2]float64{f.y, f.height}
		}
	case scrollByJS:
		f.scrolls++
		step, _ := args[0].(int)
		f.y += float64(step)
		if f.maxY > 0 && f.y > f.maxY {
			f.y = f.maxY
		}
	default:
		return errors.New("unexpected script")
	}
	return nil
}

func (f *fakeRenderer) HTML(ctx context.Context) (string, error) {
	return f.pages[f.current], nil
}

func (f *fakeRenderer) Wait(ctx context.Context, d time.Duration) error {
	f.waits = append(f.waits, d)
	return ctx.Err()
}

func (f *fakeRenderer) Close() error {
	f.closed = true
	return nil
}

// fakeLauncher 每次Launch依次返回预设的会话
type fakeLauncher struct {
	sessions []*fakeRenderer
	launches int
	err      error
}

func (l *fakeLauncher) Launch(ctx context.Context) (Renderer, error) {
	if l.err != nil {
		return nil, l.err
	}
	i := l.launches
	l.launches++
	if i >= len(l.sessions) {
		i = len(l.sessions) - 1
	}
	return l.sessions[i], nil
}
