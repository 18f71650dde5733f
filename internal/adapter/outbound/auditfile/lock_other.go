//go:build !unix

package auditfile

import "os"

// dirLock on platforms without flock falls back to exclusive creation of
// the sentinel file. Stale sentinels from a crashed process must be removed
// by the operator.
type dirLock struct {
	path string
	f    *os.File
}

func acquireDirLock(path string) (*dirLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}
	return &dirLock{path: path, f: f}, nil
}

func (l *dirLock) release() error {
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
