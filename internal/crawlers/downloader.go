package crawlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/comicshelf/internal/models"
	"github.com/RecoveryAshes/comicshelf/internal/utils"
)

const partSuffix = ".part"

// DownloadError 单张图片下载失败
type DownloadError struct {
	URL        string
	StatusCode int // 0 表示非HTTP状态错误
	Err        error
}

// Error 实现error接口
func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("下载失败 [%s]: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("下载失败 [%s]: %v", e.URL, e.Err)
}

// Unwrap 支持errors.Is/As
func (e *DownloadError) Unwrap() error {
	return e.Err
}

// ImageDownloader 流式下载图片到本地文件
type ImageDownloader struct {
	client         *http.Client
	headerProvider models.HeaderProvider
	config         models.DownloadConfig
}

// NewImageDownloader 创建下载器; config.Timeout 为整个请求(含读取响应体)的超时
func NewImageDownloader(config models.DownloadConfig, headerProvider models.HeaderProvider) *ImageDownloader {
	return &ImageDownloader{
		client:         &http.Client{Timeout: config.Timeout},
		headerProvider: headerProvider,
		config:         config,
	}
}

// Download 下载到 dest,返回写入字节数
// 先写入 dest.part,完成后重命名; 失败时删除残留文件
func (d *ImageDownloader) Download(ctx context.Context, url string, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, &DownloadError{URL: url, Err: err}
	}
	if d.headerProvider != nil {
		headers, err := d.headerProvider.GetHeaders()
		if err != nil {
			return 0, &DownloadError{URL: url, Err: err}
		}
		for name, values := range headers {
			if len(values) > 0 {
				req.Header.Set(name, values[0])
			}
		}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, &DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &DownloadError{URL: url, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
	}

	body, err := decodeReader(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return 0, &DownloadError{URL: url, Err: err}
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, &DownloadError{URL: url, Err: err}
	}

	part := dest + partSuffix
	f, err := os.Create(part)
	if err != nil {
		return 0, &DownloadError{URL: url, Err: err}
	}

	// 包装后 CopyBuffer 按 ChunkSize 分块读写
	chunkSize := d.config.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 8192
	}
	written, err := io.CopyBuffer(struct{ io.Writer }{f}, struct{ io.Reader }{body}, make([]byte, chunkSize))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(part)
		return 0, &DownloadError{URL: url, Err: err}
	}

	if err := os.Rename(part, dest); err != nil {
		os.Remove(part)
		return 0, &DownloadError{URL: url, Err: err}
	}

	if d.config.NormalizeJPEG {
		if converted, err := NormalizeJPEG(dest, d.config.JPEGQuality); err != nil {
			utils.Warnf("    ⚠️ 转换JPEG失败 [%s]: %v", dest, err)
		} else if converted {
			utils.Debugf("已转换为JPEG: %s", dest)
		}
	}

	return written, nil
}
