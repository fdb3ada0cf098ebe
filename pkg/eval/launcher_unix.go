//go:build unix

package eval

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

var interruptSignals = []os.Signal{os.Interrupt, unix.SIGTERM, unix.SIGQUIT}

const pathSeparators = "/"

func executableCandidates(file string) []string { return []string{file} }

func isExecutable(_ string, info os.FileInfo) bool {
	return info.Mode()&0o111 != 0
}

func (osLauncher) Start(path string, argv []string, files []*os.File) (Process, error) {
	proc, err := os.StartProcess(path, argv, &os.ProcAttr{Files: files})
	if err != nil {
		return nil, err
	}
	return unixProcess{proc}, nil
}

// The process is waited for with wait4 instead of os.Process.Wait, which
// can't observe stopped children.
type unixProcess struct {
	proc *os.Process
}

func (p unixProcess) Pid() int { return p.proc.Pid }

func (p unixProcess) Wait() (ExitState, error) {
	ws, err := p.wait(unix.WUNTRACED)
	if err != nil {
		return ExitState{}, err
	}
	switch {
	case ws.Exited():
		p.proc.Release()
		return ExitState{Kind: Exited, Code: ws.ExitStatus()}, nil
	case ws.Signaled():
		p.proc.Release()
		return signalState(Signaled, ws.Signal()), nil
	case ws.Stopped():
		return signalState(Stopped, ws.StopSignal()), nil
	default:
		return ExitState{}, fmt.Errorf("process %d changed state unexpectedly: %#x", p.proc.Pid, uint32(ws))
	}
}

func (p unixProcess) Kill() error {
	if err := unix.Kill(p.proc.Pid, unix.SIGKILL); err != nil {
		return err
	}
	_, err := p.wait(0)
	p.proc.Release()
	return err
}

func (p unixProcess) wait(options int) (unix.WaitStatus, error) {
	var ws unix.WaitStatus
	for {
		_, err := unix.Wait4(p.proc.Pid, &ws, options, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return ws, err
	}
}

func signalState(kind ExitKind, sig syscall.Signal) ExitState {
	name := unix.SignalName(sig)
	if name == "" {
		name = fmt.Sprintf("signal %d", int(sig))
	}
	return ExitState{Kind: kind, Signal: int(sig), SignalName: name}
}
