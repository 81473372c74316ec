// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package fsutil contains the file system bookkeeping shared by projects, experiments and run records:
// home directory expansion, existence checks, idempotent folder creation and folder path joining.
package fsutil

import (
	"os"
	"os/user"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ErrInvalidName is returned by ValidateName for names that are not a single path element.
var ErrInvalidName = errors.New("name must be a single path element")

var (
	// DirPermMode is the default directory creation permission (before umask) used.
	DirPermMode = os.FileMode(0770)

	// FilePermMode is the default permission (before umask) of the JSON files written.
	FilePermMode = os.FileMode(0664)
)

// FileExists returns whether the file or directory exists or an error if something went wrong in the filesystem.
func FileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, errors.Wrapf(err, "failed to FileExists(%q)", path)
}

// MustReplaceTildeInDir by the user's home directory. Returns dir if it doesn't start with "~".
//
// It may panic with an error if `dir` has an unknown user (e.g: `~unknown/...`)
func MustReplaceTildeInDir(dir string) string {
	dir, err := ReplaceTildeInDir(dir)
	if err != nil {
		panic(err)
	}
	return dir
}

// ReplaceTildeInDir by the user's home directory. Returns dir if it doesn't start with "~".
//
// It returns an error if `dir` has an unknown user or some other filesystem error (e.g: `~unknown/...`)
func ReplaceTildeInDir(dir string) (string, error) {
	if len(dir) == 0 || dir[0] != '~' {
		return dir, nil
	}
	var userName string
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		sepIdx := strings.IndexRune(dir, '/')
		if sepIdx == -1 {
			userName = dir[1:]
		} else {
			userName = dir[1:sepIdx]
		}
	}
	var usr *user.User
	var err error
	if userName == "" {
		usr, err = user.Current()
	} else {
		usr, err = user.Lookup(userName)
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to lookup home directory for user in path %q", dir)
	}
	return path.Join(usr.HomeDir, dir[1+len(userName):]), nil
}

// JoinFolder concatenates the path segments into a folder path, making sure there is exactly
// one separator between consecutive segments, and that the result ends with a separator.
//
// Segments that already end with a separator are not given a second one. Empty segments, and
// segments after the first made only of separators, are skipped.
// It returns an error if no segment is given.
//
// Example:
//
//	JoinFolder("/tmp/runs/", "mnist") == "/tmp/runs/mnist/"
func JoinFolder(segments ...string) (string, error) {
	if len(segments) == 0 {
		return "", errors.New("path lists cannot be empty")
	}
	sep := string(filepath.Separator)
	var sb strings.Builder
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		if sb.Len() > 0 {
			segment = strings.TrimLeft(segment, sep)
			if segment == "" {
				continue
			}
		}
		sb.WriteString(segment)
		if !strings.HasSuffix(segment, sep) {
			sb.WriteString(sep)
		}
	}
	if sb.Len() == 0 {
		return "", errors.Errorf("path segments %q are all empty", segments)
	}
	return sb.String(), nil
}

// ValidateName checks that name can be used as a file or folder name directly inside another
// folder: it can't contain a path separator, and it can't be "." or "..".
// Empty names are accepted, callers report them with their own errors.
func ValidateName(name string) error {
	if name == "." || name == ".." || strings.ContainsAny(name, "/"+string(filepath.Separator)) {
		return errors.Wrapf(ErrInvalidName, "invalid name %q", name)
	}
	return nil
}

// EnsureDir creates the directory `dir` (and its parents) if it doesn't exist yet.
// It is idempotent: an existing directory is not an error, but an existing regular file with
// the same name is.
func EnsureDir(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to os.Stat(%q)", dir)
	}
	if err == nil {
		if !fi.IsDir() {
			return errors.Errorf("directory name %q exists but it's a normal file, not a directory", dir)
		}
		// Directory exists, all fine.
		return nil
	}
	if err = os.MkdirAll(dir, DirPermMode); err != nil {
		return errors.Wrapf(err, "trying to create dir %q", dir)
	}
	klog.V(1).Infof("created directory %q", dir)
	return nil
}

// ListSubdirs returns the names of the immediate subdirectories of dir, in the order returned
// by os.ReadDir. Regular files are ignored.
func ListSubdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list directory %q", dir)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
