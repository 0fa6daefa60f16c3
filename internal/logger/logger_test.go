package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var info, errs bytes.Buffer
	SetOutput(&info, &errs)
	level := GetLevel()
	t.Cleanup(func() {
		SetLevel(level)
		Close()
		_ = SetLogOutput('c', "")
	})
	return &info, &errs
}

func TestLevelFiltering(t *testing.T) {
	info, errs := capture(t)
	SetLevel(WARN)

	Debug("hidden debug")
	Info("hidden info")
	Warn("shown warning", 3)
	Error("shown error", errors.New("boom"))

	assert.NotContains(t, info.String(), "hidden")
	assert.Contains(t, info.String(), "[WARN] logger_test.go:")
	assert.Contains(t, info.String(), "shown warning 3")
	assert.Contains(t, errs.String(), "[ERROR]")
	assert.Contains(t, errs.String(), "shown error boom")
	assert.NotContains(t, info.String(), "\033[")
}

func TestObjectsAreWrittenAsJSON(t *testing.T) {
	info, _ := capture(t)
	SetLevel(DEBUG)

	Debug("team", struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}{1, "Arsenal"}, 1.5)

	out := info.String()
	assert.Contains(t, out, "[Object of type struct")
	assert.Contains(t, out, `"name": "Arsenal"`)
	assert.Contains(t, out, "1.50")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, DEBUG, l)

	l, err = ParseLevel(" Warn ")
	require.NoError(t, err)
	assert.Equal(t, WARN, l)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestFileOutput(t *testing.T) {
	capture(t)
	path := filepath.Join(t.TempDir(), "logs", "fplodds.log")
	require.NoError(t, SetLogOutput('f', path))

	Info("written to file")
	Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestInvalidOutput(t *testing.T) {
	capture(t)
	assert.Error(t, SetLogOutput('x', ""))
}
