package eval

import (
	"errors"
	"os/user"
	"testing"

	"github.com/stretchr/testify/assert"
	"src.elv.sh/pkg/testutil"

	"github.com/toiletbril/shit/pkg/parse"
)

func TestEcho(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"echo", "\n"},
		{"echo a   b", "a b\n"},
		{"echo -n a b", "a b"},
		{"echo --no-newlines a", "a"},
		{`echo -e 'a\tb\x41\102\\n'`, "a\tbAB\\n\n"},
		{`echo -e 'cut\x00here'`, "cut\n"},
		{`echo 'a\tb'`, "a\\tb\n"},
		{"echo -ne 'x\\n'", "x\n"},
		// Unknown flags are printed.
		{"echo -q x", "-q x\n"},
		// Flags seen before an unknown one don't take effect.
		{"echo -n -x hi", "-n -x hi\n"},
		// Flags after the first operand are operands.
		{"echo x -n", "x -n\n"},
	}
	for _, test := range tests {
		r := evalCapture(nil, test.code)
		assert.NoError(t, r.err, test.code)
		assert.Equal(t, test.want, r.stdout, test.code)
	}
}

func TestUnescape(t *testing.T) {
	assert.Equal(t, "\a\b\f\n\r\t\v", unescape(`\a\b\f\n\r\t\v`))
	assert.Equal(t, `\n`, unescape(`\\n`))
	assert.Equal(t, "\x1b", unescape(`\e`))
	assert.Equal(t, "\x00", unescape(`\0`))
	assert.Equal(t, "A1", unescape(`\1011`))
	assert.Equal(t, "\xff", unescape(`\xff`))
	assert.Equal(t, `\q \x`, unescape(`\q \x`))
	// Escapes cut short by the end of the string.
	assert.Equal(t, `a\`, unescape(`a\`))
	assert.Equal(t, "a\x01", unescape(`a\1`))
	assert.Equal(t, "a\x04", unescape(`a\x4`))
	// Output stops at a NUL written in hex.
	assert.Equal(t, "a\n", unescape(`a\n\x00b`))
	assert.Equal(t, "a", unescape(`a\x0`))
}

func TestBuiltinHelp(t *testing.T) {
	r := evalCapture(nil, "echo --help")
	assert.Equal(t, 0, r.status)
	assert.Contains(t, r.stdout, "usage: echo [-ne] [ARG]...\nDisplay a line of text.\n\nFlags:\n")
	assert.Contains(t, r.stdout, "--no-newlines")
	assert.Contains(t, r.stdout, "--help")

	r = evalCapture(nil, "which -h")
	assert.Contains(t, r.stdout, "usage: which [-a] COMMAND...")
	assert.Contains(t, r.stdout, "--all")
}

func TestBuiltinBadFlag(t *testing.T) {
	r := evalCapture(nil, "pwd --bogus")
	assert.Equal(t, StatusError, r.status)
	assert.NoError(t, r.err)
	assert.Regexp(t, `^pwd: .*bogus.*\n\nusage: pwd\n`, r.stderr)
	assert.Empty(t, r.stdout)
}

func TestPwd(t *testing.T) {
	r := evalCapture(func(ev *Evaler) {
		ev.SetFs(nil, func() (string, error) { return "/some/where", nil })
	}, "pwd")
	assert.Equal(t, "/some/where\n", r.stdout)

	r = evalCapture(func(ev *Evaler) {
		ev.SetFs(nil, func() (string, error) { return "", errors.New("gone") })
	}, "pwd")
	assert.Equal(t, StatusError, r.status)
	assert.Equal(t, "pwd: gone\n", r.stderr)
}

func TestCd_Missing(t *testing.T) {
	r := evalCapture(nil, "cd /no/such/dir")
	assert.Equal(t, StatusError, r.status)
	assert.Equal(t, "cd: /no/such/dir: no such directory\n", r.stderr)
}

func TestWhich_Builtins(t *testing.T) {
	r := evalCapture(nil, "which echo exit which")
	assert.Equal(t, 0, r.status)
	assert.Equal(t, "echo: shell builtin\nexit: shell builtin\nwhich: shell builtin\n", r.stdout)

	r = evalCapture(nil, "which no-such-command-here echo")
	assert.Equal(t, StatusError, r.status)
	assert.Equal(t, "echo: shell builtin\n", r.stdout)
	assert.Equal(t, "which: no-such-command-here not found\n", r.stderr)
}

func TestWhoami(t *testing.T) {
	saved := currentUser
	t.Cleanup(func() { currentUser = saved })

	currentUser = func() (*user.User, error) { return &user.User{Username: "ann"}, nil }
	r := evalCapture(nil, "whoami")
	assert.Equal(t, "ann\n", r.stdout)

	currentUser = func() (*user.User, error) { return nil, errors.New("no passwd") }
	r = evalCapture(nil, "whoami")
	assert.Equal(t, StatusError, r.status)
	assert.Equal(t, "whoami: cannot find the current user: no passwd\n", r.stderr)
}

func TestExit(t *testing.T) {
	tests := []struct {
		code       string
		wantStatus int
		wantExit   *ExitRequest
		wantStderr string
	}{
		{"exit", 0, &ExitRequest{0}, ""},
		{"exit 3", 3, &ExitRequest{3}, ""},
		{"exit abc", StatusSyntaxError, &ExitRequest{StatusSyntaxError},
			"exit: numeric argument required, got \"abc\"\n"},
		{"exit 1 2", StatusError, nil, "exit: too many arguments\n"},
		// Inside a pipeline, exit only ends its stage.
		{"echo x | exit 5", 5, nil, ""},
		// An exit request stops the rest of the line.
		{"exit 4; echo unreachable", 4, &ExitRequest{4}, ""},
	}
	for _, test := range tests {
		r := evalCapture(nil, test.code)
		assert.Equal(t, test.wantStatus, r.status, test.code)
		if test.wantExit == nil {
			assert.NoError(t, r.err, test.code)
		} else {
			var exit *ExitRequest
			if assert.ErrorAs(t, r.err, &exit, test.code) {
				assert.Equal(t, test.wantExit, exit, test.code)
			}
		}
		assert.Empty(t, r.stdout, test.code)
		if test.wantStderr != "" || test.wantExit != nil {
			assert.Equal(t, test.wantStderr, r.stderr, test.code)
		}
	}
}

func TestBuiltinPipeline(t *testing.T) {
	r := evalCapture(nil, "echo a | echo b | echo c")
	assert.NoError(t, r.err)
	assert.Equal(t, "c\n", r.stdout)
}

func TestBuiltinRedirectToDescriptor(t *testing.T) {
	r := evalCapture(nil, "echo oops 1>&2")
	assert.Equal(t, "", r.stdout)
	assert.Equal(t, "oops\n", r.stderr)

	r = evalCapture(nil, "echo x >&9")
	assert.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "bad file descriptor 9")
}

func TestRedirect_DescriptorLimit(t *testing.T) {
	testutil.InTempDir(t)

	r := evalCapture(nil, "echo hi 9999999999999999>f")
	var e *parse.Error
	if assert.ErrorAs(t, r.err, &e) {
		assert.Equal(t, parse.EvaluationError, e.Kind)
		assert.Equal(t, "bad file descriptor 9999999999999999", e.Message)
		assert.Equal(t, 8, e.Location.Position)
	}
	assert.Equal(t, StatusError, r.status)
	assert.NoFileExists(t, "f")

	r = evalCapture(nil, "echo hi 256>f")
	if assert.Error(t, r.err) {
		assert.Contains(t, r.err.Error(), "bad file descriptor 256")
	}

	r = evalCapture(nil, "echo hi 255>f")
	assert.NoError(t, r.err)
	assert.Equal(t, "hi\n", r.stdout)
	assert.FileExists(t, "f")
}
