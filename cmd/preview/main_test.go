package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_MetadataSchema(t *testing.T) {
	code, out, _ := runCLI(t, "--metadata-schema")
	require.Equal(t, exitOK, code)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok, "schema has properties")
	assert.Contains(t, props, "width")
	assert.Contains(t, props, "format")
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no file", args: []string{"--plugin", "p.wasm"}},
		{name: "two files", args: []string{"--plugin", "p.wasm", "a", "b"}},
		{name: "unknown flag", args: []string{"--frobnicate"}},
		{name: "missing plugin", args: []string{"input.txt"}},
		{name: "bad log level", args: []string{"--plugin", "p.wasm", "--log-level", "loud", "input.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, tt.args...)
			assert.Equal(t, exitUsage, code)
		})
	}
}

func TestRun_Help(t *testing.T) {
	code, _, stderr := runCLI(t, "--help")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr, "usage: preview")
}

func TestRun_InputErrors(t *testing.T) {
	dir := t.TempDir()
	big := filepath.Join(dir, "big.bin")
	require.NoError(t, os.WriteFile(big, make([]byte, 64), 0o600))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing input", args: []string{"--plugin", "p.wasm", filepath.Join(dir, "absent")}, want: "failed to stat input"},
		{name: "directory", args: []string{"--plugin", "p.wasm", dir}, want: "is a directory"},
		{name: "too large", args: []string{"--plugin", "p.wasm", "--max-file-size", "16", big}, want: "larger than"},
		{name: "missing plugin file", args: []string{"--plugin", filepath.Join(dir, "p.wasm"), big}, want: "failed to read plugin"},
		{name: "invalid plugin", args: []string{"--plugin", big, big}, want: "failed to compile plugin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			assert.Equal(t, exitError, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestReadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main"), 0o600))

	data, err := readInput(path, 1024)
	require.NoError(t, err)
	assert.Equal(t, []byte("package main"), data)
}

func TestWriteResult(t *testing.T) {
	var stdout bytes.Buffer
	require.NoError(t, writeResult("", &stdout, []byte("<pre>")))
	assert.Equal(t, "<pre>", stdout.String())

	path := filepath.Join(t.TempDir(), "out.html")
	require.NoError(t, writeResult(path, &stdout, []byte("<pre>x</pre>")))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<pre>x</pre>", string(got))
}
