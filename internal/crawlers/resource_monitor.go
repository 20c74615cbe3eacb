package crawlers

import (
	"fmt"

	"github.com/RecoveryAshes/comicshelf/internal/utils"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const mb = 1024 * 1024

// ResourceMonitorConfig 资源检查配置
type ResourceMonitorConfig struct {
	MinFreeMemoryMB  int     // 启动浏览器要求的最小可用内存,0表示不检查
	CPULoadThreshold float64 // 超过该CPU占用率(%)时仅告警
}

// MemoryStatus 内存状态
type MemoryStatus struct {
	TotalMemory     uint64
	AvailableMemory uint64
	UsedPercent     float64
}

// ResourceMonitor 浏览器启动前的系统资源检查
// 每次重试都会新开浏览器,内存不足时直接拒绝比等待崩溃更可控
type ResourceMonitor struct {
	config     ResourceMonitorConfig
	sampleMem  func() (*mem.VirtualMemoryStat, error)
	sampleLoad func() (float64, error)
}

// NewResourceMonitor 创建资源监控器
func NewResourceMonitor(config ResourceMonitorConfig) *ResourceMonitor {
	return &ResourceMonitor{
		config:     config,
		sampleMem:  mem.VirtualMemory,
		sampleLoad: sampleCPUPercent,
	}
}

// sampleCPUPercent 自上次调用以来的整体CPU占用率
func sampleCPUPercent() (float64, error) {
	percents, err := cpu.Percent(0, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, fmt.Errorf("未获取到CPU占用率")
	}
	return percents[0], nil
}

// GetMemoryStatus 当前内存状态
func (rm *ResourceMonitor) GetMemoryStatus() (MemoryStatus, error) {
	vm, err := rm.sampleMem()
	if err != nil {
		return MemoryStatus{}, fmt.Errorf("获取系统内存失败: %w", err)
	}
	return MemoryStatus{
		TotalMemory:     vm.Total,
		AvailableMemory: vm.Available,
		UsedPercent:     vm.UsedPercent,
	}, nil
}

// Preflight 检查可用内存,低于阈值返回 ErrInsufficientMemory
// 采样失败时只告警不阻塞
func (rm *ResourceMonitor) Preflight() error {
	if load, err := rm.sampleLoad(); err == nil && rm.config.CPULoadThreshold > 0 && load > rm.config.CPULoadThreshold {
		utils.Warnf("⚠️ CPU负载较高: %.1f%% (阈值 %.0f%%)", load, rm.config.CPULoadThreshold)
	}

	if rm.config.MinFreeMemoryMB <= 0 {
		return nil
	}

	status, err := rm.GetMemoryStatus()
	if err != nil {
		utils.Warnf("%v, 跳过内存检查", err)
		return nil
	}

	required := uint64(rm.config.MinFreeMemoryMB) * mb
	utils.Debugf("可用内存: %.0f MB / 总内存: %.0f MB",
		float64(status.AvailableMemory)/mb, float64(status.TotalMemory)/mb)

	if status.AvailableMemory < required {
		return fmt.Errorf("%w: 可用 %d MB, 需要 %d MB",
			ErrInsufficientMemory, status.AvailableMemory/mb, rm.config.MinFreeMemoryMB)
	}
	return nil
}
