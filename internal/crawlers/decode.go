package crawlers

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/RecoveryAshes/comicshelf/internal/utils"
	"github.com/andybalholm/brotli"
)

var gzipMagic = []byte{0x1f, 0x8b}

// decodeReader 按 Content-Encoding 包装解压流
// 支持 gzip, deflate, br; gzip 流若已被上游解压(无魔数)则原样返回
// 调用方负责 Close,关闭的只是解压器,不会关闭 body
func decodeReader(contentEncoding string, body io.Reader) (io.ReadCloser, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "", "identity":
		return io.NopCloser(body), nil

	case "gzip", "x-gzip":
		br := bufio.NewReader(body)
		head, _ := br.Peek(len(gzipMagic))
		if !bytes.Equal(head, gzipMagic) {
			return io.NopCloser(br), nil
		}
		reader, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		return reader, nil

	case "deflate":
		return flate.NewReader(body), nil

	case "br":
		return io.NopCloser(brotli.NewReader(body)), nil

	default:
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return io.NopCloser(body), nil
	}
}

// decodeBody 解压完整响应体,失败时返回原始内容和错误
func decodeBody(contentEncoding string, body []byte) ([]byte, error) {
	reader, err := decodeReader(contentEncoding, bytes.NewReader(body))
	if err != nil {
		return body, err
	}
	defer reader.Close()
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return body, fmt.Errorf("%s读取失败: %w", contentEncoding, err)
	}
	return decoded, nil
}
