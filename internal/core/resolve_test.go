package core

import (
	"reflect"
	"testing"

	"github.com/RecoveryAshes/comicshelf/internal/models"
)

func TestChapterResolver(t *testing.T) {
	tests := []struct {
		name  string
		links []models.ChapterLink
		want  []models.ChapterCandidate
	}{
		{
			name: "保留点赞数更高的版本",
			links: []models.ChapterLink{
				{Href: "https://comick.io/comic/x/a-chapter-2-en", Upvotes: 3},
				{Href: "https://comick.io/comic/x/b-chapter-2-en", Upvotes: 10},
				{Href: "https://comick.io/comic/x/c-chapter-2-en", Upvotes: 7},
			},
			want: []models.ChapterCandidate{
				{Number: 2, URL: "https://comick.io/comic/x/b-chapter-2-en", Upvotes: 10},
			},
		},
		{
			name: "点赞数相同保留先出现的",
			links: []models.ChapterLink{
				{Href: "https://comick.io/comic/x/first-chapter-5", Upvotes: 4},
				{Href: "https://comick.io/comic/x/second-chapter-5", Upvotes: 4},
			},
			want: []models.ChapterCandidate{
				{Number: 5, URL: "https://comick.io/comic/x/first-chapter-5", Upvotes: 4},
			},
		},
		{
			name: "按章节号升序且丢弃无章节号的链接",
			links: []models.ChapterLink{
				{Href: "https://comick.io/comic/x/chapter-10-en", Upvotes: 1},
				{Href: "https://comick.io/comic/x/about", Upvotes: 99},
				{Href: "https://comick.io/comic/x/chapter-2-en", Upvotes: 1},
				{Href: "https://comick.io/comic/x/chapter-1", Upvotes: 0},
			},
			want: []models.ChapterCandidate{
				{Number: 1, URL: "https://comick.io/comic/x/chapter-1", Upvotes: 0},
				{Number: 2, URL: "https://comick.io/comic/x/chapter-2-en", Upvotes: 1},
				{Number: 10, URL: "https://comick.io/comic/x/chapter-10-en", Upvotes: 1},
			},
		},
		{
			name:  "空输入",
			links: nil,
			want:  []models.ChapterCandidate{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewChapterResolver()
			for _, l := range tt.links {
				r.Add(l)
			}
			got := r.Resolved()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("去重结果:\n实际 %+v\n期望 %+v", got, tt.want)
			}
		})
	}
}

func TestChapterResolver_Invariants(t *testing.T) {
	links := []models.ChapterLink{
		{Href: "https://comick.io/comic/x/a-chapter-3", Upvotes: 1},
		{Href: "https://comick.io/comic/x/b-chapter-1", Upvotes: 8},
		{Href: "https://comick.io/comic/x/c-chapter-3", Upvotes: 9},
		{Href: "https://comick.io/comic/x/d-chapter-1", Upvotes: 2},
		{Href: "https://comick.io/comic/x/e-chapter-2", Upvotes: 0},
		{Href: "https://comick.io/comic/x/f-chapter-3", Upvotes: 9},
		{Href: "https://comick.io/comic/x/g-chapter-12.5", Upvotes: 3},
	}

	r := NewChapterResolver()
	maxByNumber := make(map[int]int)
	for _, l := range links {
		if !r.Add(l) {
			continue
		}
		n, _ := models.ParseChapterNumber(l.Href)
		if l.Upvotes > maxByNumber[n] {
			maxByNumber[n] = l.Upvotes
		}
	}

	resolved := r.Resolved()
	seen := make(map[int]bool)
	for i, c := range resolved {
		if seen[c.Number] {
			t.Errorf("章节号重复: %d", c.Number)
		}
		seen[c.Number] = true
		if i > 0 && resolved[i-1].Number >= c.Number {
			t.Errorf("未严格升序: %d 在 %d 之后", c.Number, resolved[i-1].Number)
		}
		if c.Upvotes < maxByNumber[c.Number] {
			t.Errorf("章节%d保留的点赞数 %d 小于最大值 %d", c.Number, c.Upvotes, maxByNumber[c.Number])
		}
	}
	if resolved[len(resolved)-1].Number != 12 {
		t.Errorf("chapter-12.5 应按12计, 实际最后一章为 %d", resolved[len(resolved)-1].Number)
	}
}
