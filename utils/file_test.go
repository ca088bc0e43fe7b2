package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Trinoooo/eggie_poll/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAndCreateDir(t *testing.T) {
	base := t.TempDir()

	nested := filepath.Join(base, "a", "b", "c")
	require.Nil(t, CheckAndCreateDir(nested))
	info, err := os.Stat(nested)
	require.Nil(t, err)
	assert.True(t, info.IsDir())

	// existing dir is fine
	assert.Nil(t, CheckAndCreateDir(nested))

	file := filepath.Join(base, "f")
	require.Nil(t, os.WriteFile(file, []byte("x"), 0660))
	assert.True(t, errors.Is(CheckAndCreateDir(file), errs.NewMkdirErr()))
}
