package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cv.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	ok := writeDoc(t, `{"summary":"Engineer","skills":["Go"]}`)
	out, err := run(t, "validate", ok)
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	bad := writeDoc(t, `{"experience":[{"job_title":"Dev","company":"Acme","employment_type":"full-time","start_date":"2020-01","end_date":"2019-01"}]}`)
	out, err = run(t, "validate", bad)
	assert.ErrorIs(t, err, errInvalid)
	assert.Contains(t, out, "experience.0.end_date:")
}

func TestRenderCommand(t *testing.T) {
	doc := writeDoc(t, `{"summary":"Engineer","skills":["Go","Rust"]}`)

	out, err := run(t, "render", doc, "--template", "ats", "--name", "Ana")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "Rust")

	target := filepath.Join(t.TempDir(), "cv.html")
	out, err = run(t, "render", doc, "-o", target, "-l", "es")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+target)
	b, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(b), `lang="es"`)

	_, err = run(t, "render", doc, "--template", "fancy")
	assert.Error(t, err)
}
