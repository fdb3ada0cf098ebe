//go:build unix

package eval

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"src.elv.sh/pkg/testutil"

	"github.com/toiletbril/shit/pkg/parse"
)

func TestExternal(t *testing.T) {
	tests := []struct {
		code       string
		wantStatus int
		wantStdout string
		wantStderr string
	}{
		{"sh -c 'exit 3'", 3, "", ""},
		{"sh -c 'echo out; echo err >&2'", 0, "out\n", "err\n"},
		{"echo hello | tr a-z A-Z", 0, "HELLO\n", ""},
		{"sh -c 'echo a; echo b' | tr a-z A-Z | tr A B", 0, "B\nB\n", ""},
		// The status of a pipeline is that of the last command.
		{"sh -c 'exit 3' | sh -c 'exit 4'", 4, "", ""},
		{"sh -c 'exit 3' | echo x", 0, "x\n", ""},
		{"sh -c 'echo out; echo err >&2' 2>&1 | tr a-z A-Z", 0, "OUT\nERR\n", ""},
		{"sh -c 'kill -TERM $$'", 143, "", "sh: terminated by signal SIGTERM\n"},
		{"sh -c 'kill -STOP $$'", 137, "", "sh: stopped by signal SIGSTOP, killed\n"},
		{"sh -c 'exit 1' || echo failed", 0, "failed\n", ""},
		{"! sh -c 'exit 1'", 0, "", ""},
		// A writer killed by SIGPIPE after the reader exits is not reported.
		{"yes | head -n 1", 0, "y\n", ""},
	}
	for _, test := range tests {
		r := evalCapture(nil, test.code)
		assert.NoError(t, r.err, test.code)
		assert.Equal(t, test.wantStatus, r.status, test.code)
		assert.Equal(t, test.wantStdout, r.stdout, test.code)
		assert.Equal(t, test.wantStderr, r.stderr, test.code)
	}
}

func TestExternal_Redirects(t *testing.T) {
	testutil.InTempDir(t)

	r := evalCapture(nil, "echo first > out.txt")
	require.NoError(t, r.err)
	r = evalCapture(nil, "sh -c 'echo second' >> out.txt")
	require.NoError(t, r.err)
	content, err := os.ReadFile("out.txt")
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(content))

	r = evalCapture(nil, "tr a-z A-Z < out.txt")
	assert.Equal(t, "FIRST\nSECOND\n", r.stdout)

	r = evalCapture(nil, "sh -c 'echo e >&2' 2> err.txt")
	assert.Empty(t, r.stderr)
	content, _ = os.ReadFile("err.txt")
	assert.Equal(t, "e\n", string(content))

	r = evalCapture(nil, "cat < missing.txt")
	var e *parse.Error
	if assert.ErrorAs(t, r.err, &e) {
		assert.Equal(t, parse.OSError, e.Kind)
	}
	assert.Equal(t, StatusError, r.status)
}

func TestExternal_Resolution(t *testing.T) {
	dir := testutil.InTempDir(t)
	testutil.ApplyDir(testutil.Dir{
		"script": testutil.File{Perm: 0o755, Content: "#!/bin/sh\necho from script\n"},
		"data":   "not a program",
	})

	r := evalCapture(nil, "./script")
	assert.NoError(t, r.err)
	assert.Equal(t, "from script\n", r.stdout)

	r = evalCapture(nil, filepath.Join(dir, "script"))
	assert.Equal(t, "from script\n", r.stdout)

	r = evalCapture(nil, "./data")
	assert.True(t, errors.Is(r.err, ErrNotExecutable), "got %v", r.err)
	assert.Equal(t, StatusCommandNotExecutable, r.status)

	testutil.Setenv(t, "PATH", dir)
	r = evalCapture(nil, "script")
	assert.Equal(t, "from script\n", r.stdout)
	r = evalCapture(nil, "which script")
	assert.Equal(t, filepath.Join(dir, "script")+"\n", r.stdout)
}

func TestExternal_SpawnError(t *testing.T) {
	r := evalCapture(func(ev *Evaler) { ev.SetLauncher(fakeLauncher{}) }, "sh -c 'exit 0'")
	assert.Equal(t, StatusCommandNotExecutable, r.status)
	var e *parse.Error
	if assert.ErrorAs(t, r.err, &e) {
		assert.Equal(t, parse.OSError, e.Kind)
		assert.Contains(t, e.Message, "cannot execute sh")
	}
}

func TestExternal_Background(t *testing.T) {
	testutil.InTempDir(t)
	r := evalCapture(nil, "sh -c 'sleep 0.1; echo done > bg.txt' &")
	// evalCapture waits for background pipelines.
	assert.NoError(t, r.err)
	assert.Equal(t, 0, r.status)
	content, err := os.ReadFile("bg.txt")
	require.NoError(t, err)
	assert.Equal(t, "done\n", string(content))
}

func TestCd(t *testing.T) {
	dir := testutil.InTempDir(t)
	testutil.ApplyDir(testutil.Dir{"sub": testutil.Dir{}})
	testutil.Setenv(t, "PWD", dir)

	r := evalCapture(nil, "cd sub; pwd")
	require.NoError(t, r.err)
	wd, _ := os.Getwd()
	assert.Equal(t, "sub", filepath.Base(wd))
	assert.Equal(t, wd+"\n", r.stdout)
	assert.Equal(t, wd, os.Getenv("PWD"))

	r = evalCapture(nil, "cd")
	require.NoError(t, r.err)
	wd2, _ := os.Getwd()
	assert.Equal(t, filepath.Dir(wd), wd2)
}

func TestLookPath(t *testing.T) {
	dir := testutil.InTempDir(t)
	testutil.ApplyDir(testutil.Dir{
		"bin1": testutil.Dir{
			"prog": testutil.File{Perm: 0o755, Content: ""},
			"data": testutil.File{Perm: 0o644, Content: ""},
		},
		"bin2": testutil.Dir{
			"prog": testutil.File{Perm: 0o755, Content: ""},
			"sub":  testutil.Dir{},
		},
	})
	bin1, bin2 := filepath.Join(dir, "bin1"), filepath.Join(dir, "bin2")
	paths := bin1 + string(os.PathListSeparator) + bin2

	path, status := lookPath("prog", dir, paths)
	assert.Equal(t, filepath.Join(bin1, "prog"), path)
	assert.Equal(t, 0, status)

	all, status := lookPathAll("prog", dir, paths, true)
	assert.Equal(t, []string{filepath.Join(bin1, "prog"), filepath.Join(bin2, "prog")}, all)
	assert.Equal(t, 0, status)

	_, status = lookPath("data", dir, paths)
	assert.Equal(t, StatusCommandNotExecutable, status)
	_, status = lookPath("sub", dir, paths)
	assert.Equal(t, StatusCommandNotFound, status)
	_, status = lookPath("nope", dir, paths)
	assert.Equal(t, StatusCommandNotFound, status)

	// Relative PATH entries are ignored.
	_, status = lookPath("prog", dir, "bin1")
	assert.Equal(t, StatusCommandNotFound, status)

	// Names with a slash are not searched in PATH.
	path, status = lookPath("bin2/prog", dir, "")
	assert.Equal(t, filepath.Join(bin2, "prog"), path)
	assert.Equal(t, 0, status)
}
