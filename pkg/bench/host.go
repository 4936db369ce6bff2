package bench

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/host"
)

// HostInfo describes the machine a run executes on, for the run record.
func HostInfo() string {
	info, err := host.Info()
	if err != nil {
		name, _ := os.Hostname()
		return name
	}
	return fmt.Sprintf("%s (%s %s, kernel %s, %s)",
		info.Hostname, info.Platform, info.PlatformVersion, info.KernelVersion, info.KernelArch)
}
