package handoffs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// ScanPartitions lists the numeric partition directories under
// root/device/dataDir.  A missing data directory means the device holds no
// data for this ring yet and yields an empty result.  Non-numeric entries
// are skipped; ring files, lock files and tmp directories routinely live
// next to partitions.  Any other listing failure is returned to the caller
// so the whole check aborts instead of under-reporting a device.
func ScanPartitions(root, device, dataDir string) ([]uint64, error) {
	entries, err := os.ReadDir(filepath.Join(root, device, dataDir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list partitions for device %s: %w", device, err)
	}

	parts := make([]uint64, 0, len(entries))
	for _, e := range entries {
		p, err := strconv.ParseUint(e.Name(), 10, 64)
		if err != nil {
			continue
		}
		parts = append(parts, p)
	}
	return parts, nil
}

// ListDevices returns the entries directly under the device mount root.
func ListDevices(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("list device root %s: %w", root, err)
	}
	devices := make([]string, 0, len(entries))
	for _, e := range entries {
		devices = append(devices, e.Name())
	}
	return devices, nil
}
