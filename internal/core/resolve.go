package core

import (
	"sort"

	"github.com/RecoveryAshes/comicshelf/internal/models"
)

// ChapterResolver 按章节号去重,保留点赞数最高的候选
// 点赞数相同时保留最先出现的
type ChapterResolver struct {
	best map[int]models.ChapterCandidate
}

// NewChapterResolver 创建去重器
func NewChapterResolver() *ChapterResolver {
	return &ChapterResolver{best: make(map[int]models.ChapterCandidate)}
}

// Add 加入一个章节链接; URL中没有章节号时丢弃并返回 false
func (r *ChapterResolver) Add(link models.ChapterLink) bool {
	number, ok := models.ParseChapterNumber(link.Href)
	if !ok {
		return false
	}

	candidate := models.ChapterCandidate{Number: number, URL: link.Href, Upvotes: link.Upvotes}
	if existing, found := r.best[number]; !found || candidate.Upvotes > existing.Upvotes {
		r.best[number] = candidate
	}
	return true
}

// Len 已解析的章节数
func (r *ChapterResolver) Len() int {
	return len(r.best)
}

// Resolved 按章节号升序返回
func (r *ChapterResolver) Resolved() []models.ChapterCandidate {
	result := make([]models.ChapterCandidate, 0, len(r.best))
	for _, c := range r.best {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Number < result[j].Number
	})
	return result
}
