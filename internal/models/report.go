package models

import (
	"encoding/json"
	"time"
)

// ChapterStatus 单个章节的处理结果
type ChapterStatus string

const (
	ChapterStatusDone    ChapterStatus = "done"    // 图片下载+页面生成完成,已记入账本
	ChapterStatusSkipped ChapterStatus = "skipped" // 账本中已存在
	ChapterStatusFailed  ChapterStatus = "failed"  // 失败,未记入账本
)

// ErrorKind 失败类型
type ErrorKind string

const (
	ErrorKindPageLoad       ErrorKind = "page_load"
	ErrorKindNoImages       ErrorKind = "no_images"
	ErrorKindImageDownload  ErrorKind = "image_download"
	ErrorKindHTMLGeneration ErrorKind = "html_generation"
	ErrorKindListFile       ErrorKind = "list_file"
)

// RunReport 一次运行的报告
type RunReport struct {
	RunID     string         `json:"run_id"`
	Pipeline  string         `json:"pipeline"` // discover | materialize
	RootDir   string         `json:"root_dir"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Duration  float64        `json:"duration"` // 秒
	Series    []SeriesResult `json:"series"`
}

// SeriesResult 单个系列的结果
type SeriesResult struct {
	Slug      string          `json:"slug"`
	URL       string          `json:"url,omitempty"`
	Success   bool            `json:"success"`
	ErrorKind ErrorKind       `json:"error_kind,omitempty"`
	ErrorMsg  string          `json:"error_msg,omitempty"`
	Pages     int             `json:"pages,omitempty"`   // 发现阶段加载的列表页数
	Chapters  int             `json:"chapters"`          // 发现: 写入的章节数; 物化: 章节总数
	Results   []ChapterResult `json:"results,omitempty"` // 物化阶段逐章结果
	Duration  float64         `json:"duration"`
}

// ChapterResult 单个章节的物化结果
type ChapterResult struct {
	ID           string        `json:"id"`
	URL          string        `json:"url"`
	Status       ChapterStatus `json:"status"`
	Images       int           `json:"images"`
	FailedImages []string      `json:"failed_images,omitempty"`
	ErrorKind    ErrorKind     `json:"error_kind,omitempty"`
	ErrorMsg     string        `json:"error_msg,omitempty"`
}

// NewRunReport 创建运行报告
func NewRunReport(pipeline string, rootDir string) *RunReport {
	return &RunReport{
		RunID:     generateID(),
		Pipeline:  pipeline,
		RootDir:   rootDir,
		StartTime: time.Now(),
		Series:    make([]SeriesResult, 0),
	}
}

// Finish 记录结束时间
func (r *RunReport) Finish() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime).Seconds()
}

// Counts 返回成功/失败系列数
func (r *RunReport) Counts() (success int, failed int) {
	for _, s := range r.Series {
		if s.Success {
			success++
		} else {
			failed++
		}
	}
	return success, failed
}

// Idle 物化运行中所有系列成功且每个章节都因已完成而跳过
func (r *RunReport) Idle() bool {
	if r.Pipeline != "materialize" {
		return false
	}
	for _, s := range r.Series {
		if !s.Success {
			return false
		}
		for _, c := range s.Results {
			if c.Status != ChapterStatusSkipped {
				return false
			}
		}
	}
	return true
}

// ToJSON 序列化为JSON
func (r *RunReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *RunReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
