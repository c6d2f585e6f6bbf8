package identity

import (
	"errors"
	"net/url"
	"os"
	"os/exec"
)

// isHelperNotFound reports whether err indicates the helper binary could
// not be found on PATH (as opposed to running and failing).
func isHelperNotFound(err error) bool {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return errors.Is(execErr.Err, exec.ErrNotFound)
	}
	return false
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func parseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
