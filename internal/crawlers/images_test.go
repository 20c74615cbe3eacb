package crawlers

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/RecoveryAshes/comicshelf/internal/models"
)

func TestFilterImageURLs(t *testing.T) {
	tests := []struct {
		name   string
		srcs   []string
		marker string
		want   []string
	}{
		{
			name: "主机、扩展名和占位标记",
			srcs: []string{
				"https://x.comick.pictures/a.jpg",
				"https://x.comick.pictures/meo3-b.jpg",
				"https://other.com/c.jpg",
			},
			marker: "meo3",
			want:   []string{"https://x.comick.pictures/a.jpg"},
		},
		{
			name: "大小写不敏感",
			srcs: []string{
				"https://X.COMICK.PICTURES/A.JPG",
				"https://x.comick.pictures/MEO3.png",
				"https://x.comick.pictures/c.WebP",
			},
			marker: "meo3",
			want:   []string{"https://X.COMICK.PICTURES/A.JPG", "https://x.comick.pictures/c.WebP"},
		},
		{
			name: "扩展名必须在末尾",
			srcs: []string{
				"https://x.comick.pictures/a.jpg?w=100",
				"https://x.comick.pictures/a.gif",
				"https://x.comick.pictures/b.jpeg",
			},
			marker: "meo3",
			want:   []string{"https://x.comick.pictures/b.jpeg"},
		},
		{
			name:   "标记为空时不排除",
			srcs:   []string{"https://x.comick.pictures/meo3-b.jpg"},
			marker: "",
			want:   []string{"https://x.comick.pictures/meo3-b.jpg"},
		},
		{
			name:   "空输入",
			srcs:   nil,
			marker: "meo3",
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterImageURLs(tt.srcs, "comick.pictures", tt.marker)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("过滤结果 = %v, 期望 %v", got, tt.want)
			}
		})
	}
}

func testImageConfig() models.ImageConfig {
	return models.ImageConfig{
		Mode:              models.ModeDynamic,
		Host:              "comick.pictures",
		PlaceholderMarker: "meo3",
		MaxAttempts:       3,
		Settle:            3 * time.Second,
		GotoTimeout:       time.Minute,
	}
}

const chapterURL = "https://comick.io/comic/solo/abc-chapter-1-en"

func TestDynamicImageLocator_Locate(t *testing.T) {
	t.Run("空结果后重试成功", func(t *testing.T) {
		empty := &fakeRenderer{pages: map[string]string{
			chapterURL: `<img src="https://x.comick.pictures/meo3-low.jpg">`,
		}}
		full := &fakeRenderer{pages: map[string]string{
			chapterURL: `<img src="https://x.comick.pictures/01.jpg"><img src="https://x.comick.pictures/02.webp">`,
		}}
		launcher := &fakeLauncher{sessions: []*fakeRenderer{empty, full}}

		l := NewDynamicImageLocator(launcher, NewComickExtractor("", ""), testImageConfig())
		urls, err := l.Locate(context.Background(), chapterURL)
		if err != nil {
			t.Fatalf("定位失败: %v", err)
		}
		want := []string{"https://x.comick.pictures/01.jpg", "https://x.comick.pictures/02.webp"}
		if !reflect.DeepEqual(urls, want) {
			t.Errorf("图片地址 = %v, 期望 %v", urls, want)
		}
		if launcher.launches != 2 {
			t.Errorf("应启动2次浏览器, 实际 %d", launcher.launches)
		}
		if !empty.closed || !full.closed {
			t.Error("每次尝试后都应关闭会话")
		}
		if len(full.waits) != 1 || full.waits[0] != 3*time.Second {
			t.Errorf("渲染后应等待固定时间, 实际 %v", full.waits)
		}
	})

	t.Run("重试耗尽返回ErrNoImagesFound", func(t *testing.T) {
		r := &fakeRenderer{pages: map[string]string{chapterURL: `<p>nothing</p>`}}
		launcher := &fakeLauncher{sessions: []*fakeRenderer{r}}

		l := NewDynamicImageLocator(launcher, NewComickExtractor("", ""), testImageConfig())
		urls, err := l.Locate(context.Background(), chapterURL)
		if !errors.Is(err, ErrNoImagesFound) {
			t.Fatalf("期望 ErrNoImagesFound, 实际 %v", err)
		}
		if len(urls) != 0 {
			t.Errorf("不应返回图片: %v", urls)
		}
		if launcher.launches != 3 {
			t.Errorf("应尝试3次, 实际 %d", launcher.launches)
		}
	})

	t.Run("导航失败计为一次空结果", func(t *testing.T) {
		broken := &fakeRenderer{navErr: ErrPageLoad}
		ok := &fakeRenderer{pages: map[string]string{
			chapterURL: `<img src="https://x.comick.pictures/01.jpg">`,
		}}
		launcher := &fakeLauncher{sessions: []*fakeRenderer{broken, ok}}

		l := NewDynamicImageLocator(launcher, NewComickExtractor("", ""), testImageConfig())
		urls, err := l.Locate(context.Background(), chapterURL)
		if err != nil {
			t.Fatalf("定位失败: %v", err)
		}
		if len(urls) != 1 {
			t.Errorf("图片数量 = %d, 期望 1", len(urls))
		}
		if !broken.closed {
			t.Error("失败的会话也应关闭")
		}
	})

	t.Run("内存不足不重试", func(t *testing.T) {
		launcher := &fakeLauncher{err: ErrInsufficientMemory}

		l := NewDynamicImageLocator(launcher, NewComickExtractor("", ""), testImageConfig())
		if _, err := l.Locate(context.Background(), chapterURL); !errors.Is(err, ErrInsufficientMemory) {
			t.Fatalf("期望 ErrInsufficientMemory, 实际 %v", err)
		}
	})
}
