//go:build linux

package term

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ptsName resolves the slave device path for a PTY master opened via
// creack/pty, which hands back the master file only. TIOCGPTN retrieves
// the kernel-assigned pty number backing /dev/pts/<n>.
func ptsName(master *os.File) (string, error) {
	n, err := unix.IoctlGetInt(int(master.Fd()), unix.TIOCGPTN)
	if err != nil {
		return "", fmt.Errorf("TIOCGPTN: %w", err)
	}
	return fmt.Sprintf("/dev/pts/%d", n), nil
}
