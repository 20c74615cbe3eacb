package crawlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RecoveryAshes/comicshelf/internal/models"
	"github.com/andybalholm/brotli"
)

func testDownloadConfig() models.DownloadConfig {
	return models.DownloadConfig{
		Timeout:     5 * time.Second,
		ChunkSize:   8192,
		JPEGQuality: 90,
	}
}

func TestImageDownloader_Download(t *testing.T) {
	payload := bytes.Repeat([]byte{0xFF, 0xD8, 0xFF, 0xE0}, 5000)

	var brBody bytes.Buffer
	bw := brotli.NewWriter(&brBody)
	bw.Write(payload)
	bw.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/ok.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	})
	mux.HandleFunc("/br.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		w.Write(brBody.Bytes())
	})
	mux.HandleFunc("/missing.jpg", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/truncated.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100000")
		w.Write(payload[:100])
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	d := NewImageDownloader(testDownloadConfig(), models.StaticHeaders{"Accept-Encoding": {"gzip, deflate, br"}})

	t.Run("正常下载", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "source", "chapter_001", "01.jpg")
		n, err := d.Download(context.Background(), srv.URL+"/ok.jpg", dest)
		if err != nil {
			t.Fatalf("下载失败: %v", err)
		}
		if n != int64(len(payload)) {
			t.Errorf("写入字节数 = %d, 期望 %d", n, len(payload))
		}
		got, _ := os.ReadFile(dest)
		if !bytes.Equal(got, payload) {
			t.Error("文件内容不一致")
		}
		if _, err := os.Stat(dest + partSuffix); !os.IsNotExist(err) {
			t.Error("不应残留 .part 文件")
		}
	})

	t.Run("brotli解压", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "01.jpg")
		if _, err := d.Download(context.Background(), srv.URL+"/br.jpg", dest); err != nil {
			t.Fatalf("下载失败: %v", err)
		}
		got, _ := os.ReadFile(dest)
		if !bytes.Equal(got, payload) {
			t.Error("解压后内容不一致")
		}
	})

	t.Run("404返回DownloadError且不创建文件", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "02.jpg")
		_, err := d.Download(context.Background(), srv.URL+"/missing.jpg", dest)

		var dlErr *DownloadError
		if !errors.As(err, &dlErr) {
			t.Fatalf("期望 DownloadError, 实际 %v", err)
		}
		if dlErr.StatusCode != http.StatusNotFound {
			t.Errorf("状态码 = %d, 期望 404", dlErr.StatusCode)
		}
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Error("应可匹配 ErrUnexpectedStatus")
		}
		if _, err := os.Stat(dest); !os.IsNotExist(err) {
			t.Error("失败时不应创建文件")
		}
	})

	t.Run("连接中断时清理残留文件", func(t *testing.T) {
		dir := t.TempDir()
		dest := filepath.Join(dir, "03.jpg")
		if _, err := d.Download(context.Background(), srv.URL+"/truncated.jpg", dest); err == nil {
			t.Fatal("期望下载失败")
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Errorf("目录应为空, 实际 %d 个文件", len(entries))
		}
	})
}
