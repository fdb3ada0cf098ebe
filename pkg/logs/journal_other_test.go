//go:build !unix

package logs

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JournalUnavailable(t *testing.T) {
	fs := afero.NewMemMapFs()
	logger, closeFn, err := New(fs, Options{File: "/log", Journal: true})
	require.NoError(t, err)
	logger.Info("still logged")
	require.NoError(t, closeFn())

	content, _ := afero.ReadFile(fs, "/log")
	assert.Contains(t, string(content), `msg="new systemd journal handler"`)
	assert.Contains(t, string(content), "only available on unix")
	assert.Contains(t, string(content), `msg="still logged"`)
}
