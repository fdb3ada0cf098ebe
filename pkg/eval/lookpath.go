package eval

import (
	"os"
	"path/filepath"
	"strings"
)

// Like os/exec.LookPath, but
//
//   - Uses the working directory and PATH given in the argument.
//   - Returns either [StatusCommandNotFound] or [StatusCommandNotExecutable] in
//     the second argument if the search is not successful.
func lookPath(file, wd, paths string) (string, int) {
	found, status := lookPathAll(file, wd, paths, false)
	if len(found) == 0 {
		return "", status
	}
	return found[0], 0
}

// Like lookPath, but returns every match in PATH order when all is true.
func lookPathAll(file, wd, paths string, all bool) ([]string, int) {
	if strings.ContainsAny(file, pathSeparators) {
		if !filepath.IsAbs(file) {
			file = filepath.Join(wd, file)
		}
		path, status := findExecutable(file)
		if status != 0 {
			return nil, status
		}
		return []string{path}, 0
	}
	var found []string
	retStatus := StatusCommandNotFound
	for _, dir := range filepath.SplitList(paths) {
		if !filepath.IsAbs(dir) {
			// Ignore any component that is not absolute for safety. This
			// behavior is slightly different from os/exec.LookPath, which will
			// proceed to check these directories but return exec.ErrDot.
			continue
		}
		path, status := findExecutable(filepath.Join(dir, file))
		if status == 0 {
			found = append(found, path)
			if !all {
				break
			}
		} else if status == StatusCommandNotExecutable {
			retStatus = StatusCommandNotExecutable
		}
	}
	if len(found) > 0 {
		return found, 0
	}
	return nil, retStatus
}

// Tries each platform-specific spelling of file.
func findExecutable(file string) (string, int) {
	retStatus := StatusCommandNotFound
	for _, candidate := range executableCandidates(file) {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if isExecutable(candidate, info) {
			return candidate, 0
		}
		retStatus = StatusCommandNotExecutable
	}
	return "", retStatus
}
