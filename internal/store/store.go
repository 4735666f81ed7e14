package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// TreeExt selects the tree-native document format.
	TreeExt = ".solxml"

	// DefaultExt is used for relational stores created without an extension.
	DefaultExt = ".soldb"

	stagingSuffix = ".partial"
)

// Format identifies one of the two on-disk representations.
type Format int

const (
	FormatRelational Format = iota
	FormatTree
)

func (f Format) String() string {
	if f == FormatTree {
		return "tree"
	}
	return "relational"
}

// FormatForPath selects the format from the file extension.
// Anything that isn't a tree-native document is a relational store.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), TreeExt) {
		return FormatTree
	}
	return FormatRelational
}

// CheckExists verifies if a solution file exists at the given path.
// Returns true if the file exists, false otherwise.
func CheckExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check store existence: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("solution path is a directory, expected file: %s", path)
	}
	return true, nil
}

// StagingPath returns the file a save writes to before it is renamed onto path.
func StagingPath(path string) string {
	return path + stagingSuffix
}

// Publish atomically moves a completed staging file onto path.
func Publish(path string) error {
	if err := os.Rename(StagingPath(path), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// DiscardStaging removes a leftover staging file. A missing file is not an error.
func DiscardStaging(path string) error {
	if err := os.Remove(StagingPath(path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove staging file: %w", err)
	}
	return nil
}

// DefaultPath returns dir/name, adding DefaultExt when name has no extension.
func DefaultPath(dir, name string) string {
	if filepath.Ext(name) == "" {
		name += DefaultExt
	}
	return filepath.Join(dir, name)
}
