package system

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Stats is the host snapshot reported by the health endpoint
type Stats struct {
	Hostname  string      `json:"hostname"`
	CPU       CPUStats    `json:"cpu"`
	Memory    MemoryStats `json:"memory"`
	Disk      DiskStats   `json:"disk"`
	Accounts  int         `json:"accounts"`
	Uptime    string      `json:"uptime"`
	Timestamp time.Time   `json:"timestamp"`
}

// CPUStats represents CPU usage statistics
type CPUStats struct {
	UsagePercent float64 `json:"usage_percent"`
	Cores        int     `json:"cores"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Total        uint64  `json:"total_bytes"`
	Used         uint64  `json:"used_bytes"`
	Available    uint64  `json:"available_bytes"`
	UsagePercent float64 `json:"usage_percent"`
}

// DiskStats represents usage of the volume holding uploaded photos
type DiskStats struct {
	Total        uint64  `json:"total_bytes"`
	Used         uint64  `json:"used_bytes"`
	Free         uint64  `json:"free_bytes"`
	UsagePercent float64 `json:"usage_percent"`
	Path         string  `json:"path"`
}

// AccountCounter reports how many accounts exist
type AccountCounter interface {
	CountUsers(ctx context.Context) (int, error)
}

// Collector gathers host statistics
type Collector struct {
	uploadsDir string
	accounts   AccountCounter
	started    time.Time
}

// NewCollector creates a new system stats collector
func NewCollector(uploadsDir string, accounts AccountCounter) *Collector {
	return &Collector{
		uploadsDir: uploadsDir,
		accounts:   accounts,
		started:    time.Now(),
	}
}

// GetStats retrieves host statistics. Individual probe failures are logged
// and reported as zero values.
func (c *Collector) GetStats(ctx context.Context) *Stats {
	var (
		cpuStats  CPUStats
		memStats  MemoryStats
		diskStats DiskStats
		accounts  int
	)

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		cpuStats = c.getCPUStats()
	}()

	go func() {
		defer wg.Done()
		memStats = c.getMemoryStats()
	}()

	go func() {
		defer wg.Done()
		diskStats = c.getDiskStats(c.uploadsDir)
	}()

	go func() {
		defer wg.Done()
		accounts = c.countAccounts(ctx)
	}()

	wg.Wait()

	return &Stats{
		Hostname:  hostname(),
		CPU:       cpuStats,
		Memory:    memStats,
		Disk:      diskStats,
		Accounts:  accounts,
		Uptime:    time.Since(c.started).Round(time.Second).String(),
		Timestamp: time.Now(),
	}
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		slog.Warn("failed to get hostname", "error", err)
		return "unknown"
	}
	return name
}

// getCPUStats retrieves CPU usage statistics
func (c *Collector) getCPUStats() CPUStats {
	cores, err := cpu.Counts(true)
	if err != nil {
		slog.Warn("failed to get CPU count", "error", err)
		cores = 1
	}

	// 0 interval compares against the previous call instead of blocking
	percentages, err := cpu.Percent(0, false)
	if err != nil {
		slog.Warn("failed to get CPU usage", "error", err)
		return CPUStats{Cores: cores}
	}

	usagePercent := 0.0
	if len(percentages) > 0 {
		usagePercent = percentages[0]
	}

	return CPUStats{
		UsagePercent: usagePercent,
		Cores:        cores,
	}
}

// getMemoryStats retrieves memory usage statistics
func (c *Collector) getMemoryStats() MemoryStats {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		slog.Warn("failed to get memory stats", "error", err)
		return MemoryStats{}
	}

	return MemoryStats{
		Total:        vmStat.Total,
		Used:         vmStat.Used,
		Available:    vmStat.Available,
		UsagePercent: vmStat.UsedPercent,
	}
}

// getDiskStats retrieves disk usage statistics for a given path
func (c *Collector) getDiskStats(path string) DiskStats {
	usage, err := disk.Usage(path)
	if err != nil {
		slog.Warn("failed to get disk stats", "path", path, "error", err)
		return DiskStats{Path: path}
	}

	return DiskStats{
		Total:        usage.Total,
		Used:         usage.Used,
		Free:         usage.Free,
		UsagePercent: usage.UsedPercent,
		Path:         path,
	}
}

func (c *Collector) countAccounts(ctx context.Context) int {
	if c.accounts == nil {
		return 0
	}
	n, err := c.accounts.CountUsers(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to count accounts", "error", err)
		return 0
	}
	return n
}
