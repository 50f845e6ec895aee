//go:build linux

package watcher

import (
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// Superblock magic numbers from linux/magic.h.
const (
	magicNFS   = 0x6969
	magicSMB   = 0x517B
	magicCIFS  = 0xFF534D42
	magicSMB2  = 0xFE534D42
	magicFUSE  = 0x65735546
	magicV9FS  = 0x01021997
	magicAFS   = 0x5346414F
	magicCEPH  = 0x00C36400
	magicCODA  = 0x73757245
	magicOCFS2 = 0x7461636F
)

func statFilesystemType(path string) FilesystemType {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return FSTypeUnknown
	}

	switch uint32(st.Type) {
	case magicNFS, magicAFS, magicCEPH, magicCODA, magicOCFS2, magicV9FS:
		return FSTypeNFS
	case magicSMB, magicCIFS, magicSMB2:
		return FSTypeSMB
	case magicFUSE:
		if isSSHFSMount(path) {
			return FSTypeSSHFS
		}
		return FSTypeFUSE
	default:
		return FSTypeLocal
	}
}

// isSSHFSMount looks for a fuse.sshfs mount whose mount point prefixes path.
func isSSHFSMount(path string) bool {
	data, err := os.ReadFile("/proc/self/mounts")
	if err != nil {
		return false
	}
	best := ""
	bestType := ""
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		mnt, typ := fields[1], fields[2]
		if strings.HasPrefix(path, mnt) && len(mnt) > len(best) {
			best, bestType = mnt, typ
		}
	}
	return strings.Contains(bestType, "sshfs")
}
