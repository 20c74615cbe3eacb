package core

import (
	"github.com/RecoveryAshes/comicshelf/internal/utils"
)

// Ledger 已完成章节账本(downloaded.txt),只追加
type Ledger struct {
	path string
	done map[string]struct{}
}

// OpenLedger 读取账本; 文件不存在视为空账本,读取时不创建文件
func OpenLedger(path string) (*Ledger, error) {
	lines, err := utils.ReadLines(path)
	if err != nil {
		return nil, err
	}
	l := &Ledger{path: path, done: make(map[string]struct{}, len(lines))}
	for _, id := range lines {
		l.done[id] = struct{}{}
	}
	return l, nil
}

// Contains 章节是否已完成
func (l *Ledger) Contains(id string) bool {
	_, ok := l.done[id]
	return ok
}

// Mark 追加一条完成记录
func (l *Ledger) Mark(id string) error {
	if err := utils.AppendLine(l.path, id); err != nil {
		return err
	}
	l.done[id] = struct{}{}
	return nil
}

// Len 已完成章节数
func (l *Ledger) Len() int {
	return len(l.done)
}
