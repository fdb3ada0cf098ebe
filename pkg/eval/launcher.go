package eval

import "os"

// ProcessLauncher abstracts the system calls used to run external commands.
type ProcessLauncher interface {
	Pipe() (r, w *os.File, err error)
	// Start starts the program at path. The index of files is the descriptor
	// number in the child; nil entries are closed.
	Start(path string, argv []string, files []*os.File) (Process, error)
}

// Process is a started child process.
type Process interface {
	Pid() int
	// Wait blocks until the process terminates or stops.
	Wait() (ExitState, error)
	// Kill kills the process and reaps it.
	Kill() error
}

type ExitKind int

const (
	Exited ExitKind = iota
	Signaled
	Stopped
)

var exitKindNames = [...]string{
	Exited:   "exited",
	Signaled: "signaled",
	Stopped:  "stopped",
}

func (k ExitKind) String() string { return exitKindNames[k] }

// ExitState describes how a process changed state.
type ExitState struct {
	Kind ExitKind
	// Exit code, when Kind is Exited.
	Code int
	// Signal number and name, when Kind is Signaled or Stopped.
	Signal     int
	SignalName string
}

// Signal number of SIGKILL, used for the status of killed stopped processes.
const sigKill = 9

// DefaultLauncher runs processes with the os package.
var DefaultLauncher ProcessLauncher = osLauncher{}

type osLauncher struct{}

func (osLauncher) Pipe() (*os.File, *os.File, error) { return os.Pipe() }
