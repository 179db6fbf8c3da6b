package adapters

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// Lock is the advisory single-instance lock described in spec §5: a
// second instance must fail to acquire it rather than proceed.
type Lock struct {
	path string
}

// Acquire creates path exclusively, writing the current PID into it.
// A pre-existing lock file is fatal: this engine makes no attempt at
// stale-lock detection, matching the reference implementation's
// single-user, single-root assumption (spec Non-goals: no multi-user
// concurrent operation on the same root).
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create lock directory").
			WithCause(err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeAlreadyExists).
				WithMsg("another instance holds the lock: " + path)
		}
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to acquire lock: " + path).
			WithCause(err)
	}
	defer f.Close()
	fmt.Fprintf(f, "%d\n", os.Getpid())
	return &Lock{path: path}, nil
}

// Release removes the lock file.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	return os.Remove(l.path)
}
