//go:build unix

package output

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func checkExecutable(path string) error {
	if err := unix.Access(path, unix.X_OK); err != nil {
		return fmt.Errorf("%s is not executable: %w", path, err)
	}
	return nil
}
