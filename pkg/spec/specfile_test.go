package spec_test

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"
)

// Spec files hold cases in this format:
//
//	#### name of the case
//	code
//	## status: 1
//	## stdout: one line of output
//	## STDOUT:
//	any number of lines
//	## END
//
// The keys are status, stdout, stdout-json, stderr, stderr-json, STDOUT and
// STDERR. Output is only checked when one of its keys is present.
func parseSpecFilesInFS(fsys fs.FS, dir string) []spec {
	var specs []spec
	entries, _ := fs.ReadDir(fsys, dir)
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".test.sh") {
			continue
		}
		filename := path.Join(dir, entry.Name())
		content, _ := fs.ReadFile(fsys, filename)
		specs = append(specs, parseSpecFile(filename, string(content))...)
	}
	return specs
}

const namePrefix = "#### "

func parseSpecFile(filename, content string) []spec {
	var specs []spec
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	i := 0

	warn := func(msg string) {
		fmt.Fprintf(os.Stderr, "%v:%v: %v: %v\n", filename, i+1, msg, lines[i])
	}
	readMultiLine := func() string {
		var b strings.Builder
		for i++; i < len(lines) && lines[i] != "## END"; i++ {
			b.WriteString(lines[i])
			b.WriteByte('\n')
		}
		return b.String()
	}

	// Skip empty and comment lines before the first case
	for ; i < len(lines) && !strings.HasPrefix(lines[i], namePrefix); i++ {
		if lines[i] != "" && !strings.HasPrefix(lines[i], "#") {
			warn("non-empty, non-comment line before first case")
		}
	}

	for i < len(lines) {
		// lines[i] starts with namePrefix here
		s := spec{suite: path.Base(filename), name: lines[i][len(namePrefix):]}
		var code strings.Builder
		for i++; i < len(lines) && !strings.HasPrefix(lines[i], namePrefix); i++ {
			metadata, ok := strings.CutPrefix(lines[i], "## ")
			if !ok {
				code.WriteString(lines[i])
				code.WriteByte('\n')
				continue
			}
			key, value, ok := strings.Cut(metadata, ":")
			if !ok {
				warn("can't parse key from metadata")
				continue
			}
			value = strings.TrimLeft(value, " ")

			switch key {
			case "status":
				n, err := strconv.Atoi(value)
				if err != nil {
					warn("can't parse status as number")
				} else {
					s.wantStatus = n
				}
			case "stdout":
				s.checkStdout, s.wantStdout = true, value+"\n"
			case "stderr":
				s.checkStderr, s.wantStderr = true, value+"\n"
			case "stdout-json", "stderr-json":
				var out string
				if err := json.Unmarshal([]byte(value), &out); err != nil {
					warn("can't parse " + key + " as JSON")
				} else if key == "stdout-json" {
					s.checkStdout, s.wantStdout = true, out
				} else {
					s.checkStderr, s.wantStderr = true, out
				}
			case "STDOUT", "STDERR":
				if value != "" {
					warn("trailing content")
				}
				out := readMultiLine()
				if key == "STDOUT" {
					s.checkStdout, s.wantStdout = true, out
				} else {
					s.checkStderr, s.wantStderr = true, out
				}
			default:
				warn("unknown key " + key)
			}
		}
		s.code = code.String()
		specs = append(specs, s)
	}
	return specs
}
