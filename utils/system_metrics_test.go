package utils

import "testing"

func TestGetCPUUsage(t *testing.T) {
	usage := GetCPUUsage()
	if usage < 0 || usage > 100 {
		t.Errorf("CPU usage out of range: %v", usage)
	}
}
