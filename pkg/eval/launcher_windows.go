//go:build windows

package eval

import (
	"os"
	"path/filepath"
	"strings"
)

var interruptSignals = []os.Signal{os.Interrupt}

const pathSeparators = `/\`

// Tries the extensions in PATHEXT when file has none.
func executableCandidates(file string) []string {
	if filepath.Ext(file) != "" {
		return []string{file}
	}
	exts := os.Getenv("PATHEXT")
	if exts == "" {
		exts = ".com;.exe;.bat;.cmd"
	}
	var candidates []string
	for _, ext := range filepath.SplitList(exts) {
		if ext != "" {
			candidates = append(candidates, file+strings.ToLower(ext))
		}
	}
	return candidates
}

func isExecutable(path string, _ os.FileInfo) bool {
	return filepath.Ext(path) != ""
}

func (osLauncher) Start(path string, argv []string, files []*os.File) (Process, error) {
	// Windows only passes the standard descriptors to children.
	if len(files) > 3 {
		files = files[:3]
	}
	proc, err := os.StartProcess(path, argv, &os.ProcAttr{Files: files})
	if err != nil {
		return nil, err
	}
	return windowsProcess{proc}, nil
}

type windowsProcess struct {
	proc *os.Process
}

func (p windowsProcess) Pid() int { return p.proc.Pid }

func (p windowsProcess) Wait() (ExitState, error) {
	state, err := p.proc.Wait()
	if err != nil {
		return ExitState{}, err
	}
	return ExitState{Kind: Exited, Code: state.ExitCode()}, nil
}

func (p windowsProcess) Kill() error {
	if err := p.proc.Kill(); err != nil {
		return err
	}
	_, err := p.proc.Wait()
	return err
}
