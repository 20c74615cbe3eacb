package crawlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RecoveryAshes/comicshelf/internal/models"
	"github.com/RecoveryAshes/comicshelf/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// stealthScript 隐藏 navigator.webdriver
const stealthScript = `Object.defineProperty(navigator, 'webdriver', { get: () => undefined });`

// networkIdleWindow 无网络请求持续该时长视为空闲
const networkIdleWindow = 500 * time.Millisecond

// RodLauncher 基于go-rod的渲染会话工厂
type RodLauncher struct {
	config  models.BrowserConfig
	monitor *ResourceMonitor
}

// NewRodLauncher 创建会话工厂; monitor 为nil时跳过资源检查
func NewRodLauncher(config models.BrowserConfig, monitor *ResourceMonitor) *RodLauncher {
	return &RodLauncher{config: config, monitor: monitor}
}

// Launch 启动浏览器并创建一个已配置好的标签页
func (rl *RodLauncher) Launch(ctx context.Context) (Renderer, error) {
	if rl.monitor != nil {
		if err := rl.monitor.Preflight(); err != nil {
			return nil, err
		}
	}

	l := launcher.New().
		Context(ctx).
		Headless(rl.config.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-gpu")
	if rl.config.Bin != "" {
		l = l.Bin(rl.config.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("创建标签页失败: %w", err)
	}

	session := &rodSession{launcher: l, browser: browser, page: page}
	if err := session.configure(rl.config); err != nil {
		_ = session.Close()
		return nil, err
	}

	utils.Debugf("浏览器已启动: %s (headless=%v)", controlURL, rl.config.Headless)
	return session, nil
}

// rodSession 单标签页会话
type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// configure 设置UA、视口、语言、时区和反检测脚本
func (s *rodSession) configure(cfg models.BrowserConfig) error {
	if err := s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: cfg.Locale,
	}); err != nil {
		return fmt.Errorf("设置User-Agent失败: %w", err)
	}

	if err := s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.ViewportWidth,
		Height:            cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("设置视口失败: %w", err)
	}

	if cfg.Locale != "" {
		if err := (proto.EmulationSetLocaleOverride{Locale: cfg.Locale}).Call(s.page); err != nil {
			return fmt.Errorf("设置语言失败: %w", err)
		}
	}

	if cfg.Timezone != "" {
		if err := (proto.EmulationSetTimezoneOverride{TimezoneID: cfg.Timezone}).Call(s.page); err != nil {
			return fmt.Errorf("设置时区失败: %w", err)
		}
	}

	if _, err := s.page.EvalOnNewDocument(stealthScript); err != nil {
		return fmt.Errorf("注入初始化脚本失败: %w", err)
	}
	return nil
}

// Navigate 打开页面并等待load和网络空闲
func (s *rodSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	p := s.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	waitIdle := p.WaitRequestIdle(networkIdleWindow, nil, nil, nil)

	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("%w [%s]: %v", ErrPageLoad, url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("%w [%s]: 等待load失败: %v", ErrPageLoad, url, err)
	}
	waitIdle()

	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// Evaluate 执行JS并解码结果
func (s *rodSession) Evaluate(ctx context.Context, js string, out interface{}, args ...interface{}) error {
	res, err := s.page.Context(ctx).Evaluate(rod.Eval(js, args...))
	if err != nil {
		return fmt.Errorf("执行JavaScript失败: %w", err)
	}
	return decodeValue(res.Value, out)
}

// HTML 渲染后的DOM
func (s *rodSession) HTML(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("获取页面HTML失败: %w", err)
	}
	return html, nil
}

// Wait 固定等待
func (s *rodSession) Wait(ctx context.Context, d time.Duration) error {
	return utils.SleepContext(ctx, d)
}

// Close 关闭浏览器并清理用户数据目录
func (s *rodSession) Close() error {
	err := s.browser.Close()
	s.launcher.Cleanup()
	utils.Debugf("浏览器已关闭")
	return err
}

// decodeValue gson值转为Go值
func decodeValue(v gson.JSON, out interface{}) error {
	if out == nil {
		return nil
	}
	raw, err := v.MarshalJSON()
	if err != nil {
		return fmt.Errorf("序列化JS结果失败: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("解析JS结果失败: %w", err)
	}
	return nil
}
