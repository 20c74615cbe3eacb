// Package crawlers 提供浏览器渲染会话、页面数据提取、图片地址定位和图片下载
//
// # 概述
//
// 漫画站点的章节列表和图片都依赖JavaScript渲染,crawlers包把浏览器操作收敛到
// Renderer 接口上,提取逻辑只处理HTML快照,便于脱离浏览器测试。
//
// # 核心组件
//
// ## Renderer / Launcher
//
// 渲染会话抽象。RodLauncher 基于go-rod实现,每次 Launch 启动独立的浏览器进程,
// 并设置User-Agent、视口、语言、时区,注入隐藏 navigator.webdriver 的脚本。
//
//	launcher := NewRodLauncher(browserConfig, NewResourceMonitor(monitorConfig))
//	r, err := launcher.Launch(ctx)
//	defer r.Close()
//
// ## AutoScroll
//
// 分步滚动触发懒加载,位置不变或接近底部时停止。
//
// ## ComickExtractor
//
// 基于goquery从HTML快照中提取章节链接(含点赞数)和图片地址。
//
// ## ImageLocator
//
//   - DynamicImageLocator: 每次尝试新开浏览器,渲染后等待固定时间再提取,结果为空时重试
//   - StaticImageLocator: 使用Colly直接抓取HTML,适用于不依赖渲染的页面
//
// 两者都通过 FilterImageURLs 过滤: 图片主机、扩展名、低清占位标记。
//
// ## ImageDownloader
//
// 流式下载,先写 .part 文件再重命名,支持 gzip/deflate/br 响应解压,
// 可选把PNG/WEBP/GIF转码为JPEG。
//
// ## ResourceMonitor
//
// 启动浏览器前检查可用内存,不足时返回 ErrInsufficientMemory。
package crawlers
