package crawlers

import (
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v3/mem"
)

func newTestMonitor(cfg ResourceMonitorConfig, available uint64, memErr error) *ResourceMonitor {
	rm := NewResourceMonitor(cfg)
	rm.sampleMem = func() (*mem.VirtualMemoryStat, error) {
		if memErr != nil {
			return nil, memErr
		}
		return &mem.VirtualMemoryStat{Total: 8192 * mb, Available: available, UsedPercent: 50}, nil
	}
	rm.sampleLoad = func() (float64, error) { return 95, nil }
	return rm
}

func TestResourceMonitor_Preflight(t *testing.T) {
	tests := []struct {
		name      string
		minFree   int
		available uint64
		memErr    error
		wantErr   bool
	}{
		{"内存充足", 512, 2048 * mb, nil, false},
		{"内存不足", 512, 256 * mb, nil, true},
		{"阈值为0不检查", 0, 1 * mb, nil, false},
		{"采样失败不阻塞", 512, 0, errors.New("no /proc"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := newTestMonitor(ResourceMonitorConfig{MinFreeMemoryMB: tt.minFree, CPULoadThreshold: 90}, tt.available, tt.memErr)
			err := rm.Preflight()
			if tt.wantErr {
				if !errors.Is(err, ErrInsufficientMemory) {
					t.Fatalf("期望 ErrInsufficientMemory, 实际 %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("不应返回错误: %v", err)
			}
		})
	}
}

func TestResourceMonitor_GetMemoryStatus(t *testing.T) {
	rm := newTestMonitor(ResourceMonitorConfig{}, 1024*mb, nil)
	status, err := rm.GetMemoryStatus()
	if err != nil {
		t.Fatalf("获取内存状态失败: %v", err)
	}
	if status.AvailableMemory != 1024*mb || status.TotalMemory != 8192*mb {
		t.Errorf("内存状态错误: %+v", status)
	}
}
