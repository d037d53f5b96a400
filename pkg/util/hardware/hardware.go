package hardware

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
)

// GetCPUNum 返回主机的逻辑 CPU 核心数。
// gopsutil 读取失败时退回 runtime.NumCPU。
func GetCPUNum() int {
	count, err := cpu.Counts(true)
	if err != nil || count <= 0 {
		return runtime.NumCPU()
	}
	return count
}
