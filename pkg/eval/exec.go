package eval

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/toiletbril/shit/pkg/parse"
)

var (
	ErrCommandNotFound = errors.New("command not found")
	ErrNotExecutable   = errors.New("not executable")
)

// A pipeline stage after expansion, resolution and redirection, ready to be
// started.
type execContext struct {
	node *parse.SimpleCommand
	// The program name as typed, after expansion.
	name string
	// Exactly one of path and builtin is set.
	path    string
	builtin func(*builtinContext, []string) (int, error)
	args    []string
	// Descriptor table of the stage; the index is the descriptor number.
	files []*os.File
	// Descriptors the stage owns. They are closed once an external command
	// has started, or once a builtin has finished.
	owned []*os.File
}

func (ec *execContext) closeOwned() {
	for _, f := range ec.owned {
		f.Close()
	}
	ec.owned = nil
}

// Returns the status for an error that happened before a command started.
func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrCommandNotFound):
		return StatusCommandNotFound
	case errors.Is(err, ErrNotExecutable):
		return StatusCommandNotExecutable
	default:
		return StatusError
	}
}

// Runs a pipeline of one or more commands. All stages are prepared before any
// is started, and all are started before any is waited for. The status of the
// pipeline is that of the last stage.
func (fm *frame) pipeline(cmds []*parse.SimpleCommand, async bool, loc parse.Location) (int64, error) {
	n := len(cmds)
	pipes := make([][2]*os.File, n-1)
	for i := range pipes {
		r, w, err := fm.ev.launcher.Pipe()
		if err != nil {
			for _, p := range pipes[:i] {
				p[0].Close()
				p[1].Close()
			}
			return StatusPipeError, parse.Errorf(parse.OSError, loc,
				"cannot create pipe: %w", err)
		}
		pipes[i] = [2]*os.File{r, w}
	}

	stages := make([]*execContext, 0, n)
	for i, cmd := range cmds {
		files := slices.Clone(fm.files)
		var owned []*os.File
		if i > 0 {
			files[0] = pipes[i-1][0]
			owned = append(owned, pipes[i-1][0])
		}
		if i < n-1 {
			files[1] = pipes[i][1]
			owned = append(owned, pipes[i][1])
		}
		ec, err := fm.prepare(cmd, files, owned)
		if err != nil {
			for _, st := range stages {
				st.closeOwned()
			}
			// Pipe ends of stages that were never prepared.
			for j := i + 1; j < n; j++ {
				pipes[j-1][0].Close()
				if j < n-1 {
					pipes[j][1].Close()
				}
			}
			return int64(statusOf(err)), err
		}
		stages = append(stages, ec)
	}

	if n == 1 && !async && stages[0].builtin != nil {
		// A lone builtin runs on the current goroutine, so that exit can
		// terminate the shell.
		fm.trace(stages[0])
		return fm.runBuiltin(stages[0], false)
	}

	procs := make([]Process, n)
	done := make([]chan int, n)
	var spawnErr error
	for i, ec := range stages {
		if spawnErr != nil {
			ec.closeOwned()
			continue
		}
		fm.trace(ec)
		if ec.builtin != nil {
			ch := make(chan int, 1)
			done[i] = ch
			go func() {
				status, _ := fm.runBuiltin(ec, true)
				ch <- int(status)
			}()
			continue
		}
		proc, err := fm.ev.launcher.Start(ec.path, ec.args, ec.files)
		ec.closeOwned()
		if err != nil {
			spawnErr = parse.Errorf(parse.OSError, ec.node.Words[0].Location,
				"cannot execute %s: %w", ec.name, err)
			continue
		}
		fm.ev.logger.Debug("spawned process", "pid", proc.Pid(), "path", ec.path)
		procs[i] = proc
	}

	wait := func() (int, error) {
		last := 0
		var firstErr error
		for i, ec := range stages {
			var status int
			switch {
			case done[i] != nil:
				status = <-done[i]
			case procs[i] != nil:
				var err error
				status, err = fm.monitor(ec, procs[i], i == n-1)
				if err != nil && firstErr == nil {
					firstErr = err
				}
			default:
				continue
			}
			if i == n-1 {
				last = status
			}
		}
		return last, firstErr
	}

	if async {
		fm.ev.background.Add(1)
		go func() {
			defer fm.ev.background.Done()
			status, err := wait()
			fm.ev.logger.Debug("reaped background pipeline", "status", status, "err", err)
		}()
		if spawnErr != nil {
			return StatusCommandNotExecutable, spawnErr
		}
		return 0, nil
	}

	status, err := wait()
	fm.ev.logger.Debug("pipeline finished", "stages", n, "status", status)
	if spawnErr != nil {
		return StatusCommandNotExecutable, spawnErr
	}
	if err != nil {
		return StatusWaitError, err
	}
	return int64(status), nil
}

// Expands, resolves and redirects a command. The stage takes ownership of
// owned, which is closed if preparing fails.
func (fm *frame) prepare(cmd *parse.SimpleCommand, files, owned []*os.File) (*execContext, error) {
	ec := &execContext{node: cmd, files: files, owned: owned}
	if err := fm.prepareStage(ec); err != nil {
		ec.closeOwned()
		return nil, err
	}
	return ec, nil
}

func (fm *frame) prepareStage(ec *execContext) error {
	cmd := ec.node
	args, err := fm.expandWord(cmd.Words[0], true)
	if err != nil {
		return err
	}
	// cd only takes directories, so files are not eligible results of
	// pathname expansion.
	files := args[0] != "cd"
	for _, w := range cmd.Words[1:] {
		more, err := fm.expandWord(w, files)
		if err != nil {
			return err
		}
		args = append(args, more...)
	}
	ec.name, ec.args = args[0], args

	if err := fm.resolve(ec); err != nil {
		return err
	}
	for _, rd := range cmd.Redirects {
		if err := fm.redirect(ec, rd); err != nil {
			return err
		}
	}
	return nil
}

// The order of special builtin > builtin > external follows 2.9.1 Simple
// Commands.
func (fm *frame) resolve(ec *execContext) error {
	if builtin, ok := specialBuiltins[ec.name]; ok {
		ec.builtin = builtin
		return nil
	}
	if builtin, ok := builtins[ec.name]; ok {
		ec.builtin = func(bc *builtinContext, args []string) (int, error) {
			return builtin(bc, args), nil
		}
		return nil
	}

	wd, _ := fm.ev.getwd()
	path, status := lookPath(ec.name, wd, os.Getenv("PATH"))
	loc := ec.node.Words[0].Location
	switch status {
	case 0:
		ec.path = path
		return nil
	case StatusCommandNotExecutable:
		return parse.Errorf(parse.ResolutionError, loc, "%w: %s", ErrNotExecutable, ec.name)
	default:
		return parse.Errorf(parse.ResolutionError, loc, "%w: %s", ErrCommandNotFound, ec.name)
	}
}

var redirectFlags = map[parse.RedirectOp]int{
	parse.RedirectInput:  os.O_RDONLY,
	parse.RedirectOutput: os.O_WRONLY | os.O_CREATE | os.O_TRUNC,
	parse.RedirectAppend: os.O_WRONLY | os.O_CREATE | os.O_APPEND,
}

// Highest descriptor a redirection may name.
const maxRedirectFd = 255

// Applies a redirection to the descriptor table of the stage.
func (fm *frame) redirect(ec *execContext, rd *parse.Redirect) error {
	dst := rd.Fd
	if dst == -1 {
		dst = rd.Op.DefaultFd()
	}
	if dst > maxRedirectFd {
		return parse.Errorf(parse.EvaluationError, rd.Location,
			"bad file descriptor %d", dst)
	}
	var src *os.File
	if rd.Target == nil {
		if rd.TargetFd >= len(ec.files) || ec.files[rd.TargetFd] == nil {
			return parse.Errorf(parse.EvaluationError, rd.Location,
				"bad file descriptor %d", rd.TargetFd)
		}
		src = ec.files[rd.TargetFd]
	} else {
		name, err := fm.expandLiteral(rd.Target)
		if err != nil {
			return err
		}
		f, err := os.OpenFile(name, redirectFlags[rd.Op], 0644)
		if err != nil {
			return parse.Errorf(parse.OSError, rd.Target.Location,
				"cannot open %s: %w", name, err)
		}
		ec.owned = append(ec.owned, f)
		src = f
	}
	if dst >= len(ec.files) {
		newFiles := make([]*os.File, dst+1)
		copy(newFiles, ec.files)
		ec.files = newFiles
	}
	ec.files[dst] = src
	return nil
}

// Waits for a process to terminate and returns its status. A stage writing
// into a pipe that was closed by the next stage is not reported; last is true
// for the last stage of a pipeline, which has no next stage.
func (fm *frame) monitor(ec *execContext, proc Process, last bool) (int, error) {
	loc := ec.node.Location
	state, err := proc.Wait()
	if err != nil {
		return StatusWaitError, parse.Errorf(parse.OSError, loc,
			"cannot wait for %s: %w", ec.name, err)
	}
	fm.ev.logger.Debug("process changed state", "pid", proc.Pid(),
		"state", state.Kind, "code", state.Code, "signal", state.SignalName)
	switch state.Kind {
	case Exited:
		return state.Code, nil
	case Signaled:
		quiet := (fm.ev.interactive && state.SignalName == "SIGINT") ||
			(!last && state.SignalName == "SIGPIPE")
		if !quiet {
			fmt.Fprintf(fm.diagFile, "%s: terminated by signal %s\n", ec.name, state.SignalName)
		}
		return StatusSignalBase + state.Signal, nil
	case Stopped:
		// There is no job control, so a stopped process would never resume.
		if err := proc.Kill(); err != nil {
			return StatusWaitError, parse.Errorf(parse.OSError, loc,
				"cannot kill stopped %s: %w", ec.name, err)
		}
		fmt.Fprintf(fm.diagFile, "%s: stopped by signal %s, killed\n", ec.name, state.SignalName)
		return StatusSignalBase + sigKill, nil
	default:
		return StatusWaitError, parse.Errorf(parse.OSError, loc,
			"%s changed state unexpectedly", ec.name)
	}
}

// Echoes a command before it runs when xtrace is on.
func (fm *frame) trace(ec *execContext) {
	if fm.ev.options.has(xtrace) {
		fmt.Fprintln(fm.diagFile, "+", strings.Join(ec.args, " "))
	}
}
