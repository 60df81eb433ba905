package main

import "path/filepath"

func programDirOf(path string) string {
	return filepath.Dir(path)
}
