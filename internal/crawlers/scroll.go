package crawlers

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/comicshelf/internal/utils"
)

const (
	scrollPositionJS = `() => [window.scrollY, document.body.scrollHeight]`
	scrollByJS       = `(step) => window.scrollBy(0, step)`
)

// AutoScroll 分步向下滚动以触发懒加载
// 满足以下任一条件即停止: 达到最大次数、滚动位置不再变化、即将到达页面底部
func AutoScroll(ctx context.Context, r Renderer, step int, attempts int, pause time.Duration) error {
	prev := -1.0
	for i := 0; i < attempts; i++ {
		var pos [2]float64
		if err := r.Evaluate(ctx, scrollPositionJS, &pos); err != nil {
			return fmt.Errorf("读取滚动位置失败: %w", err)
		}
		y, height := pos[0], pos[1]

		if y == prev || y+float64(step) >= height {
			utils.Debugf("滚动结束: 第%d次, 位置=%.0f, 高度=%.0f", i+1, y, height)
			return nil
		}
		prev = y

		if err := r.Evaluate(ctx, scrollByJS, nil, step); err != nil {
			return fmt.Errorf("滚动失败: %w", err)
		}
		if err := r.Wait(ctx, pause); err != nil {
			return err
		}
	}
	return nil
}
