package platform

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/disk"
)

// DiskUsage describes the filesystem holding a path.
type DiskUsage struct {
	Path        string  `json:"path" yaml:"path"`
	Total       uint64  `json:"total" yaml:"total"`
	Free        uint64  `json:"free" yaml:"free"`
	Used        uint64  `json:"used" yaml:"used"`
	UsedPercent float64 `json:"used_percent" yaml:"used_percent"`
}

// GetDiskUsage reports capacity and free space for the volume holding path.
func GetDiskUsage(path string) (*DiskUsage, error) {
	st, err := disk.Usage(path)
	if err != nil {
		return nil, fmt.Errorf("disk usage for %s: %w", path, err)
	}
	return &DiskUsage{
		Path:        path,
		Total:       st.Total,
		Free:        st.Free,
		Used:        st.Used,
		UsedPercent: st.UsedPercent,
	}, nil
}
