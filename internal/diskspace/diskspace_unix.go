//go:build unix

package diskspace

import "golang.org/x/sys/unix"

func available(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	// Blocks available to unprivileged users times the fragment size.
	return stat.Bavail * uint64(stat.Bsize), nil
}
