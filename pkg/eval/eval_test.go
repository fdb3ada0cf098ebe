package eval

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"src.elv.sh/pkg/must"

	"github.com/toiletbril/shit/pkg/arith"
	"github.com/toiletbril/shit/pkg/parse"
)

var devNull = must.OK1(os.Open(os.DevNull))

// Output of evaluating one line.
type result struct {
	status int
	err    error
	stdout string
	stderr string
}

// Evaluates code with a new Evaler, after calling setup on it when it is not
// nil.
func evalCapture(setup func(*Evaler), code string) result {
	files, read := makeFiles()
	ev := NewEvaler(files)
	if setup != nil {
		setup(ev)
	}
	status, err := ev.Eval(code)
	ev.WaitBackground()
	stdout, stderr := read()
	return result{status, err, stdout, stderr}
}

func makeFiles() ([]*os.File, func() (string, string)) {
	file1, read1 := outputPipe()
	file2, read2 := outputPipe()
	return []*os.File{devNull, file1, file2}, func() (string, string) {
		return read1(), read2()
	}
}

func outputPipe() (*os.File, func() string) {
	r, w := must.Pipe()
	ch := make(chan string)
	go func() {
		ch <- string(must.OK1(io.ReadAll(r)))
		r.Close()
	}()
	return w, func() string {
		w.Close()
		return <-ch
	}
}

var arithmeticTests = []struct {
	code string
	want int
}{
	{"1 + 2 * 3", 7},
	{"(1 + 2) * 3", 9},
	{"10 - 4 - 3", 3},
	{"7 / 2", 3},
	{"7 % 4", 3},
	{"1 << 4", 16},
	{"!0", 1},
	{"-(2 - 5)", 3},
	{"3 > 2", 1},
	{"3 <= 2", 0},
	{"2 == 2 && 0", 0},
	{"1 + '5'", 6},
	{"1 + '0x10'", 17},
	{"6 ^ 3", 5},
	{"~0 ^ -2", 1},
	{"1 << 2 + 1", 8},
	{"6 & 3 ^ 1 | 8", 11},
	{"3 - -5", 8},
	{"1 < 2 == 3 >= 4", 0},
}

func TestEval_Arithmetic(t *testing.T) {
	for _, test := range arithmeticTests {
		r := evalCapture(nil, test.code)
		if r.err != nil {
			t.Errorf("%q -> error %v", test.code, r.err)
			continue
		}
		if r.status != test.want {
			t.Errorf("%q -> %d, want %d", test.code, r.status, test.want)
		}
	}
}

// Printing a tree and parsing the result again must not change its value.
func TestEval_ReparsedArithmetic(t *testing.T) {
	for _, test := range arithmeticTests {
		n, err := parse.Parse(test.code)
		if err != nil {
			t.Errorf("%q -> error %v", test.code, err)
			continue
		}
		printed := n.String()
		r := evalCapture(nil, printed)
		if r.err != nil || r.status != test.want {
			t.Errorf("%q (printed from %q) -> %d, %v, want %d", printed, test.code, r.status, r.err, test.want)
		}
	}
}

var evalErrorTests = []struct {
	code       string
	wantKind   parse.ErrorKind
	wantCause  error
	wantStatus int
}{
	{"1 / 0", parse.EvaluationError, arith.ErrDivisionByZero, StatusError},
	{"1 % 0", parse.EvaluationError, arith.ErrDivisionByZero, StatusError},
	{"1 = 2", parse.EvaluationError, arith.ErrAssignment, StatusError},
	{"1 +", parse.SyntaxError, nil, StatusSyntaxError},
	{"echo 'open", parse.LexicalError, parse.ErrUnterminatedString, StatusSyntaxError},
	{`echo a\`, parse.EvaluationError, ErrTrailingBackslash, StatusError},
	{"no-such-command-here", parse.ResolutionError, ErrCommandNotFound, StatusCommandNotFound},
}

func TestEval_Errors(t *testing.T) {
	for _, test := range evalErrorTests {
		r := evalCapture(nil, test.code)
		var e *parse.Error
		if !errors.As(r.err, &e) {
			t.Errorf("%q -> error %v, want *parse.Error", test.code, r.err)
			continue
		}
		if e.Kind != test.wantKind {
			t.Errorf("%q -> kind %v, want %v", test.code, e.Kind, test.wantKind)
		}
		if test.wantCause != nil && !errors.Is(e, test.wantCause) {
			t.Errorf("%q -> error %v, want cause %v", test.code, e, test.wantCause)
		}
		if r.status != test.wantStatus {
			t.Errorf("%q -> status %d, want %d", test.code, r.status, test.wantStatus)
		}
	}
}

func TestEval_NotANumber(t *testing.T) {
	r := evalCapture(nil, "1 + abc")
	if r.err == nil || r.err.Error() != "evaluation error: abc is not a number" {
		t.Errorf("got error %v", r.err)
	}
}

var listTests = []struct {
	code       string
	wantStdout string
	wantStatus int
}{
	{"echo a; echo b", "a\nb\n", 0},
	{"echo a\necho b", "a\nb\n", 0},
	{"echo a && echo b", "a\nb\n", 0},
	{"echo a || echo b", "a\n", 0},
	{"cd /no/such/dir || echo fallback", "fallback\n", 0},
	{"cd /no/such/dir && echo skipped", "", StatusError},
	// Numbers are true when they are not zero.
	{"0 && echo skipped", "", 0},
	{"1 && echo yes", "yes\n", 0},
	{"0 || echo no", "no\n", 0},
	{"if 1 == 1; then echo yes; else echo no; fi", "yes\n", 0},
	{"if 1 == 2; then echo yes; else echo no; fi", "no\n", 0},
	{"if 0; then echo yes; fi", "", 0},
	{"if cd /no/such/dir; then echo yes; else echo no; fi", "no\n", 0},
	{"echo a; 5", "a\n", 5},
}

func TestEval_Lists(t *testing.T) {
	for _, test := range listTests {
		r := evalCapture(nil, test.code)
		if r.err != nil {
			t.Errorf("%q -> error %v", test.code, r.err)
			continue
		}
		if diff := cmp.Diff(test.wantStdout, r.stdout); diff != "" {
			t.Errorf("%q stdout (-want +got):\n%s", test.code, diff)
		}
		if r.status != test.wantStatus {
			t.Errorf("%q -> status %d, want %d", test.code, r.status, test.wantStatus)
		}
	}
}

func TestEval_ErrorStopsLine(t *testing.T) {
	r := evalCapture(nil, "echo a; 1 / 0; echo b")
	if r.err == nil {
		t.Errorf("no error")
	}
	if r.stdout != "a\n" {
		t.Errorf("stdout %q", r.stdout)
	}
}

func TestEval_Options(t *testing.T) {
	r := evalCapture(func(ev *Evaler) { ev.SetOption("x", true) }, "echo a b")
	if r.stderr != "+ echo a b\n" {
		t.Errorf("xtrace output %q", r.stderr)
	}

	r = evalCapture(func(ev *Evaler) { ev.SetOption("noexec", true) }, "echo a")
	if r.stdout != "" || r.status != 0 || r.err != nil {
		t.Errorf("noexec ran the line: %+v", r)
	}
	r = evalCapture(func(ev *Evaler) { ev.SetOption("noexec", true) }, "echo (")
	if r.status != StatusSyntaxError {
		t.Errorf("noexec didn't parse the line: %+v", r)
	}

	ev := NewEvaler(StdFiles)
	if err := ev.SetOption("bogus", true); err == nil {
		t.Errorf("SetOption(bogus) -> no error")
	}
	ev.SetOption("noglob", true)
	want := "noexec     off\nnoglob     on\nxtrace     off\n"
	if diff := cmp.Diff(want, ev.Options()); diff != "" {
		t.Errorf("Options() (-want +got):\n%s", diff)
	}
}

func TestReport(t *testing.T) {
	files, read := makeFiles()
	ev := NewEvaler(files)
	code := "1 / 0"
	_, err := ev.Eval(code)
	ev.Report(code, err)
	ev.Report("exit", &ExitRequest{3})
	ev.Report("", errors.New("plain"))
	_, stderr := read()

	want := "evaluation error: 1:5: division by zero\n" +
		"  1 / 0\n" +
		"      ^\n" +
		"error: plain\n"
	if diff := cmp.Diff(want, stderr); diff != "" {
		t.Errorf("stderr (-want +got):\n%s", diff)
	}
}

func TestEvalNode_Totals(t *testing.T) {
	ev := NewEvaler([]*os.File{devNull, devNull, devNull})
	ev.Eval("1 + 2")
	ev.Eval("3")
	// 3 nodes for the first line, 1 for the second.
	if got := ev.Totals().Expressions; got != 4 {
		t.Errorf("Expressions = %d, want 4", got)
	}
}
