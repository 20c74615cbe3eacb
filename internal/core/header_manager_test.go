package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHeaderManager_Precedence(t *testing.T) {
	headersFile := filepath.Join(t.TempDir(), "headers.yaml")
	content := `headers:
  Referer: "https://config.example/"
  Cookie: "cf_clearance=abcdef123456"
  X-Config: "yes"
`
	if err := os.WriteFile(headersFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	hm, err := NewHeaderManager(headersFile, []string{"X-Config: cli"}, "", "https://comick.io/")
	if err != nil {
		t.Fatalf("创建头部管理器失败: %v", err)
	}

	headers, err := hm.GetHeaders()
	if err != nil {
		t.Fatalf("获取头部失败: %v", err)
	}

	tests := []struct {
		name string
		key  string
		want string
	}{
		{"默认User-Agent", "User-Agent", DefaultUserAgent},
		{"配置文件覆盖默认Referer", "Referer", "https://config.example/"},
		{"命令行覆盖配置文件", "X-Config", "cli"},
		{"默认Accept-Encoding", "Accept-Encoding", "gzip, deflate, br"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := headers.Get(tt.key); got != tt.want {
				t.Errorf("%s = %q, 期望 %q", tt.key, got, tt.want)
			}
		})
	}

	t.Run("脱敏输出", func(t *testing.T) {
		safe := hm.GetSafeHeaders()
		if safe["Cookie"] != "cf_c***3456" {
			t.Errorf("Cookie 应被脱敏: %q", safe["Cookie"])
		}
		if safe["Referer"] != "https://config.example/" {
			t.Errorf("非敏感头部不应脱敏: %q", safe["Referer"])
		}
	})
}

func TestHeaderManager_GeneratesTemplate(t *testing.T) {
	headersFile := filepath.Join(t.TempDir(), "configs", "headers.yaml")

	hm, err := NewHeaderManager(headersFile, nil, "custom-agent", "")
	if err != nil {
		t.Fatalf("创建头部管理器失败: %v", err)
	}
	headers, err := hm.GetHeaders()
	if err != nil {
		t.Fatalf("获取头部失败: %v", err)
	}
	if _, err := os.Stat(headersFile); err != nil {
		t.Error("缺少配置文件时应生成模板")
	}
	if headers.Get("User-Agent") != "custom-agent" {
		t.Errorf("User-Agent = %q", headers.Get("User-Agent"))
	}
	if headers.Get("Referer") != "" {
		t.Error("未指定Referer时不应设置")
	}
}

func TestHeaderManager_InvalidCLIHeader(t *testing.T) {
	tests := []struct {
		name string
		cli  []string
	}{
		{"缺少冒号", []string{"X-Broken"}},
		{"名称为空", []string{": value"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewHeaderManager(filepath.Join(t.TempDir(), "h.yaml"), tt.cli, "", ""); err == nil {
				t.Error("期望解析错误")
			}
		})
	}
}

func TestHeaderManager_ForbiddenHeader(t *testing.T) {
	hm, err := NewHeaderManager(filepath.Join(t.TempDir(), "h.yaml"), []string{"Host: evil.example"}, "", "")
	if err != nil {
		t.Fatalf("创建头部管理器失败: %v", err)
	}
	if _, err := hm.GetHeaders(); err == nil {
		t.Error("禁止的头部应验证失败")
	}
}
