package diagfmt

import (
	"bytes"
	"encoding/json"
	"errors"
	"go/token"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cbridge/internal/diag"
)

func sample() []diag.Diagnostic {
	return []diag.Diagnostic{
		{
			Severity: diag.SevError,
			Code:     diag.ABIUnsupportedType,
			Message:  "string has no C representation",
			Pos:      token.Position{Filename: "/src/lib/lib.go", Line: 3, Column: 13},
			Symbol:   "greet",
			GoType:   "string",
			Notes:    []diag.Note{{Msg: "use *C.char"}},
		},
		{
			Severity: diag.SevWarning,
			Code:     diag.ABINoExports,
			Message:  "package empty has no //export functions",
		},
	}
}

func fakeFS(files map[string]string) func(string) ([]byte, error) {
	return func(path string) ([]byte, error) {
		if s, ok := files[path]; ok {
			return []byte(s), nil
		}
		return nil, errors.New("not found")
	}
}

func TestPrettyPlain(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sample(), PrettyOpts{PathMode: PathModeBasename, ShowNotes: true})
	want := "lib.go:3:13: error[ABI2001]: string has no C representation\n" +
		"  symbol: greet\n" +
		"  type:   string\n" +
		"  note: use *C.char\n" +
		"warning[ABI2014]: package empty has no //export functions\n"
	assert.Equal(t, want, buf.String())
}

func TestPrettyContext(t *testing.T) {
	var buf bytes.Buffer
	src := "package main\n\n//export greet\nfunc greet(s string) {}\n"
	items := []diag.Diagnostic{{
		Severity: diag.SevError,
		Code:     diag.ABIUnsupportedType,
		Message:  "bad",
		Pos:      token.Position{Filename: "lib.go", Line: 4, Column: 14},
	}}
	Pretty(&buf, items, PrettyOpts{Context: true, ReadFile: fakeFS(map[string]string{"lib.go": src})})
	want := "lib.go:4:14: error[ABI2001]: bad\n" +
		"  4 | func greet(s string) {}\n" +
		"    |              ^\n"
	assert.Equal(t, want, buf.String())
}

func TestPrettyContextMissingFile(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sample()[:1], PrettyOpts{Context: true, ReadFile: fakeFS(nil)})
	assert.NotContains(t, buf.String(), "|")
}

func TestPrettyColor(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sample()[1:], PrettyOpts{Color: true})
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sample(), JSONOpts{PathMode: PathModeRelative, BaseDir: "/src", IncludeNotes: true}))

	var out DiagnosticsOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Equal(t, 2, out.Count)
	first := out.Diagnostics[0]
	assert.Equal(t, "error", first.Severity)
	assert.Equal(t, "ABI2001", first.Code)
	assert.Equal(t, "greet", first.Symbol)
	assert.Equal(t, filepath.Join("lib", "lib.go"), first.Location.File)
	assert.Equal(t, 3, first.Location.Line)
	require.Len(t, first.Notes, 1)
	assert.Equal(t, "warning", out.Diagnostics[1].Severity)

	trimmed := BuildDiagnosticsOutput(sample(), JSONOpts{Max: 1})
	assert.Equal(t, 1, trimmed.Count)
	assert.Empty(t, trimmed.Diagnostics[0].Notes)
}

func TestParsePathMode(t *testing.T) {
	m, ok := ParsePathMode("basename")
	assert.True(t, ok)
	assert.Equal(t, PathModeBasename, m)
	_, ok = ParsePathMode("weird")
	assert.False(t, ok)
}
