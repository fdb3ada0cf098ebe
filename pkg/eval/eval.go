package eval

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/afero"

	"github.com/toiletbril/shit/pkg/arith"
	"github.com/toiletbril/shit/pkg/parse"
)

type Evaler struct {
	files    []*os.File
	launcher ProcessLauncher
	fs       afero.Fs
	getwd    func() (string, error)
	logger   *slog.Logger
	options  options

	// Interactive shells survive Ctrl-C and don't report children killed by
	// it.
	interactive bool
	signals     *signalCatcher

	errorColor *color.Color
	totals     Stats
	background sync.WaitGroup
}

var StdFiles = []*os.File{os.Stdin, os.Stdout, os.Stderr}

func NewEvaler(files []*os.File) *Evaler {
	if len(files) < 3 {
		panic("files must have at least 3 elements")
	}
	errorColor := color.New(color.FgRed, color.Bold)
	errorColor.DisableColor()
	return &Evaler{
		files:      files,
		launcher:   DefaultLauncher,
		fs:         afero.NewOsFs(),
		getwd:      os.Getwd,
		logger:     slog.New(slog.DiscardHandler),
		errorColor: errorColor,
	}
}

func (ev *Evaler) SetLogger(logger *slog.Logger) { ev.logger = logger }

func (ev *Evaler) SetLauncher(launcher ProcessLauncher) { ev.launcher = launcher }

// SetFs sets the filesystem used for pathname expansion. Relative patterns
// are resolved against the directory returned by getwd.
func (ev *Evaler) SetFs(fs afero.Fs, getwd func() (string, error)) {
	ev.fs, ev.getwd = fs, getwd
}

// SetColor enables or disables colored diagnostics.
func (ev *Evaler) SetColor(on bool) {
	if on {
		ev.errorColor.EnableColor()
	} else {
		ev.errorColor.DisableColor()
	}
}

// SetInteractive switches interactive behavior on or off. An interactive
// Evaler catches SIGINT, SIGTERM and SIGQUIT so that they only affect child
// processes.
func (ev *Evaler) SetInteractive(on bool) {
	ev.interactive = on
	if on {
		if ev.signals == nil {
			ev.signals = newSignalCatcher(ev.logger)
		}
		ev.signals.arm()
	} else if ev.signals != nil {
		ev.signals.disarm()
	}
}

// Totals returns the statistics accumulated over all evaluated lines.
func (ev *Evaler) Totals() Stats { return ev.totals }

// WaitBackground waits for all background pipelines to finish.
func (ev *Evaler) WaitBackground() { ev.background.Wait() }

// ExitRequest is returned by Eval when the exit builtin runs.
type ExitRequest struct {
	Code int
}

func (e *ExitRequest) Error() string { return fmt.Sprintf("exit %d", e.Code) }

// Eval parses and evaluates one line. It returns the value of the line, which
// is the exit status for commands, and any error. Errors are either a
// *parse.Error, or an *ExitRequest.
func (ev *Evaler) Eval(code string) (int, error) {
	n, err := parse.Parse(code)
	if err != nil {
		return StatusSyntaxError, err
	}
	if ev.options.has(noexec) {
		return 0, nil
	}
	return ev.EvalNode(n)
}

// EvalNode evaluates a parsed tree.
func (ev *Evaler) EvalNode(n parse.Node) (int, error) {
	fm := ev.frame()
	value, err := fm.eval(n)
	ev.totals.add(fm.ctx.Stats)
	ev.logger.Debug("evaluated line", "stats", fm.ctx.Stats, "totals", ev.totals)
	return int(value), err
}

// Report writes an error returned by Eval to the diagnostic stream, with the
// offending part of code marked. Exit requests are not reported.
func (ev *Evaler) Report(code string, err error) {
	var exit *ExitRequest
	if err == nil || errors.As(err, &exit) {
		return
	}
	var e *parse.Error
	if !errors.As(err, &e) {
		fmt.Fprintln(ev.files[2], ev.errorColor.Sprint("error:"), err)
		return
	}
	ev.logger.Debug("reporting error", "kind", e.Kind, "range", e.Range())
	kind := e.Kind.String()
	header := strings.TrimPrefix(e.Header(code), kind)
	fmt.Fprint(ev.files[2], ev.errorColor.Sprint(kind)+header+"\n"+e.Snippet(code))
}

func (ev *Evaler) frame() *frame {
	ctx := &EvalContext{ExpandPaths: !ev.options.has(noglob)}
	return &frame{ev, ctx, ev.files, ev.files[2]}
}

type frame struct {
	ev    *Evaler
	ctx   *EvalContext
	files []*os.File
	// Diagnostics about child processes are written here, ignoring
	// redirections.
	diagFile *os.File
}

// Evaluates a node. When there is an error, the returned value is the status
// the line should have.
func (fm *frame) eval(n parse.Node) (int64, error) {
	fm.ctx.Stats.Expressions++
	switch n := n.(type) {
	case nil:
		return 0, nil
	case *parse.ConstantNumber:
		return n.Value, nil
	case *parse.ConstantString:
		v, ok := arith.ParseNum(n.Value)
		if !ok {
			return StatusError, parse.Errorf(parse.EvaluationError, n.Location,
				"%s is not a number", n)
		}
		return v, nil
	case *parse.UnaryExpression:
		v, err := fm.eval(n.Operand)
		if err != nil {
			return v, err
		}
		return arith.Unary(n.Op, v), nil
	case *parse.BinaryExpression:
		return fm.binary(n)
	case *parse.SimpleCommand:
		return fm.pipeline([]*parse.SimpleCommand{n}, false, n.Location)
	case *parse.Pipeline:
		return fm.pipeline(n.Commands, n.Async, n.Location)
	case *parse.CompoundList:
		return fm.compoundList(n)
	case *parse.If:
		return fm.runIf(n)
	default:
		return StatusError, parse.Errorf(parse.EvaluationError, n.Loc(),
			"bug: unknown node type %T", n)
	}
}

func (fm *frame) binary(n *parse.BinaryExpression) (int64, error) {
	if n.Op == arith.Assign {
		return StatusError, parse.Errorf(parse.EvaluationError, n.Location,
			"%w", arith.ErrAssignment)
	}
	lhs, err := fm.eval(n.Lhs)
	if err != nil {
		return lhs, err
	}
	rhs, err := fm.eval(n.Rhs)
	if err != nil {
		return rhs, err
	}
	v, err := arith.Binary(n.Op, lhs, rhs)
	if err != nil {
		// Both possible errors are about the right operand.
		return StatusError, parse.Errorf(parse.EvaluationError, n.Rhs.Loc(), "%w", err)
	}
	return v, nil
}

func (fm *frame) compoundList(n *parse.CompoundList) (int64, error) {
	var last int64
	var lastNode parse.Node
	for _, item := range n.Items {
		if lastNode != nil && shouldSkip(item.Kind, parse.Succeeded(lastNode, last)) {
			continue
		}
		v, err := fm.eval(item.Command)
		if err != nil {
			return v, err
		}
		last, lastNode = v, item.Command
	}
	return last, nil
}

func shouldSkip(kind parse.ConditionKind, lastSucceeded bool) bool {
	return (kind == parse.ConditionAnd && !lastSucceeded) ||
		(kind == parse.ConditionOr && lastSucceeded)
}

func (fm *frame) runIf(n *parse.If) (int64, error) {
	cond, err := fm.eval(n.Condition)
	if err != nil {
		return cond, err
	}
	if parse.Succeeded(n.Condition, cond) {
		return fm.eval(n.Then)
	}
	if n.Otherwise != nil {
		return fm.eval(n.Otherwise)
	}
	return 0, nil
}
