package ring

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// SplitPolicy splits a ring base name like "object-1" into its base and
// storage policy index.  Names without a numeric suffix are policy 0.
func SplitPolicy(name string) (string, int) {
	if i := strings.LastIndex(name, "-"); i > 0 {
		if policy, err := strconv.Atoi(name[i+1:]); err == nil && policy >= 0 {
			return name[:i], policy
		}
	}
	return name, 0
}

// DataDir returns the on-disk data directory name for a ring.  Object rings
// are split per storage policy; account and container rings pluralize the
// ring base name.
func DataDir(base string, policy int) string {
	if base == "object" {
		if policy == 0 {
			return "objects"
		}
		return fmt.Sprintf("objects-%d", policy)
	}
	return base + "s"
}

// NameAndDataDir derives the ring's logical name and its data directory from
// a ring file path such as /etc/swift/object-1.ring.gz.
func NameAndDataDir(path string) (name, dataDir string) {
	name = filepath.Base(path)
	if i := strings.Index(name, "."); i >= 0 {
		name = name[:i]
	}
	base, policy := SplitPolicy(name)
	return name, DataDir(base, policy)
}
