package utils

import (
	"log"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
)

// GetCPUUsage samples aggregate CPU utilization over a one-second window,
// surfaced by the admin stats endpoint
func GetCPUUsage() float64 {
	usage, err := cpu.Percent(time.Second, false)
	if err != nil {
		log.Printf("Failed to sample CPU usage: %v", err)
		return 0
	}
	if len(usage) == 0 {
		return 0
	}
	return usage[0]
}
