package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/RecoveryAshes/comicshelf/internal/core"
	"github.com/go-rod/rod/lib/launcher"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  comicshelf 环境验证")
	fmt.Println("==============================================")
	fmt.Println()

	allOK := true

	// 检查Go版本
	goVersion := runtime.Version()
	fmt.Printf("✅ Go版本: %s\n", goVersion)
	if strings.HasPrefix(goVersion, "go1.21") || strings.HasPrefix(goVersion, "go1.22") {
		fmt.Println("⚠️  警告: 建议使用Go 1.23+版本")
	}

	// 检查操作系统
	fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	// 检查浏览器
	if path, found := launcher.LookPath(); found {
		fmt.Printf("✅ Chromium已安装: %s\n", path)
	} else {
		fmt.Println("⚠️  未找到本地Chromium - 首次启动时将自动下载")
		fmt.Println("   或在配置中设置 browser.bin, 或使用 images.mode=static")
	}

	// 检查配置
	fmt.Println()
	fmt.Println("检查配置...")
	config, err := core.LoadConfig("")
	if err != nil {
		fmt.Printf("❌ 加载配置失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✅ 配置加载成功")

	// 检查漫画库目录
	root := config.Library.RootDir
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		fmt.Printf("❌ 漫画库目录不存在: %s\n", root)
		allOK = false
	} else if err := checkWritable(root); err != nil {
		fmt.Printf("❌ 漫画库目录不可写: %s (%v)\n", root, err)
		allOK = false
	} else {
		fmt.Printf("✅ 漫画库目录: %s\n", root)
	}

	if _, err := os.Stat(config.UpdateFilePath()); err == nil {
		fmt.Printf("✅ 系列列表: %s\n", config.UpdateFilePath())
	} else {
		fmt.Printf("⚠️  系列列表不存在: %s - discover 需要 --url 参数\n", config.UpdateFilePath())
	}

	fmt.Println()
	fmt.Println("==============================================")
	if allOK {
		fmt.Println("✅ 环境验证通过!")
		fmt.Println()
		fmt.Println("下一步:")
		fmt.Println("  1. 运行 'comicshelf --validate-config' 检查配置")
		fmt.Println("  2. 运行 'comicshelf discover' 发现章节")
		fmt.Println("  3. 运行 'comicshelf materialize' 生成阅读页面")
		os.Exit(0)
	} else {
		fmt.Println("❌ 环境验证失败,请解决上述问题。")
		os.Exit(1)
	}
}

// checkWritable 在目录中创建并删除临时文件
func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".comicshelf-check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(filepath.Clean(name))
}
