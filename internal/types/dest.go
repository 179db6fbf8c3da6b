package types

import "path/filepath"

// Dest is a named filesystem root that owns a subset of installed
// packages and a single status file.
type Dest struct {
	Name           string
	RootDir        string
	InfoDir        string
	StatusFileName string
	Dirty          bool
}

// StatusPath returns the full path to the destination's status file.
func (d Dest) StatusPath() string {
	return filepath.Join(d.RootDir, d.StatusFileName)
}

// ListPath returns the path to a package's file-manifest list file.
func (d Dest) ListPath(pkgName string) string {
	return filepath.Join(d.InfoDir, pkgName+".list")
}

// ControlPath returns the path to a package's control metadata file.
func (d Dest) ControlPath(pkgName string) string {
	return filepath.Join(d.InfoDir, pkgName+".control")
}
