package main

import (
	"fmt"
	"net/url"
	"os"

	"github.com/RecoveryAshes/comicshelf/internal/models"
)

// ValidateFlags 验证物化相关命令行标志
func ValidateFlags(mode string, maxAttempts int) error {
	// 验证模式
	validModes := map[string]bool{
		string(models.ModeDynamic): true,
		string(models.ModeStatic):  true,
	}
	if !validModes[mode] {
		return fmt.Errorf("无效的图片提取模式: %s (有效值: dynamic, static)", mode)
	}

	// 验证重试次数
	if maxAttempts < 1 || maxAttempts > 10 {
		return fmt.Errorf("重试次数必须在1-10之间,当前值: %d", maxAttempts)
	}

	return nil
}

// ValidateSeriesURLs 验证系列地址
func ValidateSeriesURLs(urls []string) error {
	for _, u := range urls {
		if err := models.ValidateURL(u); err != nil {
			return fmt.Errorf("无效的系列地址: %w", err)
		}
	}
	return nil
}

// ValidateUpdateFile 验证系列列表文件存在且不是目录
func ValidateUpdateFile(path string) error {
	if path == "" {
		return fmt.Errorf("系列列表文件路径不能为空")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("无法读取系列列表文件 [%s]: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("系列列表路径是目录: %s", path)
	}
	return nil
}

// NormalizeURL 规范化URL
func NormalizeURL(urlStr string) (string, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	// 如果没有协议,默认使用https
	if parsed.Scheme == "" {
		urlStr = "https://" + urlStr
		parsed, err = url.Parse(urlStr)
		if err != nil {
			return "", err
		}
	}

	return parsed.String(), nil
}
