package crawlers

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"golang.org/x/image/webp"
)

// ImageFormat 根据魔数判断的图片格式
type ImageFormat string

const (
	FormatJPEG    ImageFormat = "jpeg"
	FormatPNG     ImageFormat = "png"
	FormatGIF     ImageFormat = "gif"
	FormatWEBP    ImageFormat = "webp"
	FormatUnknown ImageFormat = ""
)

// DetectImageFormat 读取魔数判断格式
func DetectImageFormat(data []byte) ImageFormat {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return FormatJPEG
	case len(data) >= 4 && data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47:
		return FormatPNG
	case len(data) >= 6 && (string(data[0:6]) == "GIF87a" || string(data[0:6]) == "GIF89a"):
		return FormatGIF
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return FormatWEBP
	}
	return FormatUnknown
}

// NormalizeJPEG 把非JPEG图片原地转码为JPEG
// 已是JPEG时不改动并返回 false
func NormalizeJPEG(path string, quality int) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	format := DetectImageFormat(data)
	switch format {
	case FormatJPEG:
		return false, nil
	case FormatUnknown:
		return false, errors.New("无法识别的图片格式")
	}

	var img image.Image
	if format == FormatWEBP {
		img, err = webp.Decode(bytes.NewReader(data))
	} else {
		img, err = imaging.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return false, fmt.Errorf("解码%s图片失败: %w", format, err)
	}

	if quality < 1 || quality > 100 {
		quality = 90
	}

	tmp := path + partSuffix
	f, err := os.Create(tmp)
	if err != nil {
		return false, err
	}
	err = imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(quality))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return false, fmt.Errorf("编码JPEG失败: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return false, err
	}
	return true, nil
}
