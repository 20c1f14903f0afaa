// Package system samples host and process metrics for status reports.
package system

import (
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// GetCPUUsage returns the current CPU usage as a percentage
func GetCPUUsage() (float64, error) {
	percentages, err := cpu.Percent(0, false)
	if err != nil {
		return 0, err
	}
	if len(percentages) == 0 {
		return 0, fmt.Errorf("could not get CPU usage")
	}
	return percentages[0], nil
}

// GetMemoryUsage returns the current memory usage as a percentage
func GetMemoryUsage() (float64, error) {
	virtualMem, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return virtualMem.UsedPercent, nil
}

// GetHostUptime returns how long the host has been up.
func GetHostUptime() (time.Duration, error) {
	secs, err := host.Uptime()
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}

// GetProcessUptime returns how long this process has been running.
func GetProcessUptime() (time.Duration, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	created, err := p.CreateTime()
	if err != nil {
		return 0, err
	}
	return time.Since(time.UnixMilli(created)), nil
}

// Snapshot is a point-in-time view of the host.
type Snapshot struct {
	CPUPercent    float64
	MemoryPercent float64
	HostUptime    time.Duration
	ProcessUptime time.Duration
}

// Sample collects a Snapshot. It returns the first error encountered along
// with whatever was collected.
func Sample() (Snapshot, error) {
	var snap Snapshot
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	var err error
	snap.CPUPercent, err = GetCPUUsage()
	keep(err)
	snap.MemoryPercent, err = GetMemoryUsage()
	keep(err)
	snap.HostUptime, err = GetHostUptime()
	keep(err)
	snap.ProcessUptime, err = GetProcessUptime()
	keep(err)

	return snap, firstErr
}
