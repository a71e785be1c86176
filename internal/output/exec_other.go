//go:build !unix

package output

func checkExecutable(path string) error {
	return nil
}
