package crawlers

import (
	"context"
	"errors"
	"time"
)

// 错误类型定义
var (
	ErrPageLoad           = errors.New("页面加载失败")
	ErrNoImagesFound      = errors.New("未找到有效图片")
	ErrInsufficientMemory = errors.New("可用内存不足,拒绝启动浏览器")
	ErrUnexpectedStatus   = errors.New("HTTP状态码异常")
)

// Renderer 一个浏览器渲染会话
// 同一会话内的调用按顺序执行,不支持并发
type Renderer interface {
	// Navigate 打开URL,等待load与网络空闲,超时返回 ErrPageLoad
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// Evaluate 执行函数形式的JS (如 `() => 1`),结果按JSON解码到out(可为nil)
	Evaluate(ctx context.Context, js string, out interface{}, args ...interface{}) error
	// HTML 当前渲染后的DOM快照
	HTML(ctx context.Context) (string, error)
	// Wait 固定等待,ctx取消时提前返回
	Wait(ctx context.Context, d time.Duration) error
	Close() error
}

// Launcher 创建渲染会话
type Launcher interface {
	Launch(ctx context.Context) (Renderer, error)
}
