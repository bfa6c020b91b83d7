package header_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cbridge/internal/cabi"
	"cbridge/internal/diag"
	"cbridge/internal/dialect"
	"cbridge/internal/header"
	"cbridge/internal/layout"
	"cbridge/internal/testkit"
)

func c99(t *testing.T) dialect.Dialect {
	t.Helper()
	d, err := dialect.Lookup("c99", dialect.Options{})
	require.NoError(t, err)
	return d
}

func exampleSurface(t *testing.T) *cabi.Surface {
	t.Helper()
	s := cabi.NewSurface("lib")
	require.NoError(t, s.AddStruct(cabi.Struct{Name: "Pair", Fields: []cabi.Field{
		{Name: "a", Type: cabi.Uint(32)},
		{Name: "b", Type: cabi.Uint(32)},
	}}))
	require.NoError(t, s.AddFunction(cabi.Function{
		Symbol: "add",
		Params: []cabi.Param{{Name: "a", Type: cabi.Uint(32)}, {Name: "b", Type: cabi.Uint(32)}},
		Result: cabi.Uint(32),
	}))
	return s
}

const exampleHeader = `/* Code generated by cbridge. DO NOT EDIT. */
/* Source: lib, dialect: c99 */

#ifndef CBRIDGE_H
#define CBRIDGE_H

#include <stdint.h>

#ifdef __cplusplus
extern "C" {
#endif

typedef struct Pair Pair;

struct Pair {
  uint32_t a;
  uint32_t b;
};

uint32_t add(uint32_t a, uint32_t b);

#ifdef __cplusplus
} /* extern "C" */
#endif

#endif /* CBRIDGE_H */
`

func TestRenderExampleScenario(t *testing.T) {
	got, err := header.Render(exampleSurface(t), c99(t), header.Options{Name: "cbridge.h", Source: "lib"})
	require.NoError(t, err)
	assert.Equal(t, exampleHeader, string(got))
	assert.NoError(t, testkit.CheckHeaderInvariants(got))
}

func TestRenderIsDeterministic(t *testing.T) {
	opts := header.Options{Name: "cbridge.h", Source: "lib"}
	first, err := header.Render(exampleSurface(t), c99(t), opts)
	require.NoError(t, err)
	second, err := header.Render(exampleSurface(t), c99(t), opts)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRenderPreservesOrder(t *testing.T) {
	s := cabi.NewSurface("lib")
	names := []string{"zulu", "alpha", "mike", "bravo"}
	for _, n := range names {
		require.NoError(t, s.AddFunction(cabi.Function{Symbol: n, Result: cabi.Void}))
	}
	for _, n := range []string{"Zed", "Abe"} {
		require.NoError(t, s.AddStruct(cabi.Struct{Name: n, Fields: []cabi.Field{{Name: "v", Type: cabi.Int(8)}}}))
	}
	out, err := header.Render(s, c99(t), header.Options{Name: "x.h"})
	require.NoError(t, err)
	text := string(out)

	last := -1
	for _, n := range names {
		i := strings.Index(text, "void "+n+"(void);")
		require.GreaterOrEqual(t, i, 0, "prototype for %s missing", n)
		assert.Greater(t, i, last, "%s out of order", n)
		last = i
	}
	assert.Less(t, strings.Index(text, "struct Zed {"), strings.Index(text, "struct Abe {"))
	assert.Less(t, strings.Index(text, "struct Abe {"), strings.Index(text, "void zulu"))
}

func TestRenderWithLayoutAsserts(t *testing.T) {
	s := exampleSurface(t)
	out, err := header.Render(s, c99(t), header.Options{
		Name:    "cbridge.h",
		Layouts: layout.New(layout.X86_64LinuxGNU(), s),
	})
	require.NoError(t, err)
	require.NoError(t, testkit.CheckHeaderInvariants(out))
	text := string(out)
	assert.Contains(t, text, "#include <stddef.h>\n#include <stdint.h>\n")
	assert.Contains(t, text, "/* Layout checks for x86_64-linux-gnu. */\n")
	assert.Contains(t, text, "typedef char cbridge_h_layout_1[(sizeof(Pair) == 8) ? 1 : -1]; /* Pair size */\n")
	assert.Contains(t, text, "typedef char cbridge_h_layout_3[(offsetof(Pair, b) == 4) ? 1 : -1]; /* Pair.b */\n")
}

var assertName = regexp.MustCompile(`(?m)^typedef char (\w+)\[`)

// A field named size and structs whose joined names meet must not produce
// the same check name twice.
func TestLayoutAssertNamesAreUnique(t *testing.T) {
	s := cabi.NewSurface("lib")
	require.NoError(t, s.AddStruct(cabi.Struct{Name: "Buf", Fields: []cabi.Field{
		{Name: "size", Type: cabi.Uint(32)},
		{Name: "cap", Type: cabi.Uint(32)},
	}}))
	require.NoError(t, s.AddStruct(cabi.Struct{Name: "A_b", Fields: []cabi.Field{{Name: "c", Type: cabi.Uint(8)}}}))
	require.NoError(t, s.AddStruct(cabi.Struct{Name: "A", Fields: []cabi.Field{{Name: "b_c", Type: cabi.Uint(8)}}}))
	out, err := header.Render(s, c99(t), header.Options{
		Name:    "buf.h",
		Layouts: layout.New(layout.X86_64LinuxGNU(), s),
	})
	require.NoError(t, err)
	require.NoError(t, testkit.CheckHeaderInvariants(out))

	seen := map[string]bool{}
	for _, m := range assertName.FindAllStringSubmatch(string(out), -1) {
		assert.False(t, seen[m[1]], "check %s declared twice", m[1])
		seen[m[1]] = true
	}
	assert.Len(t, seen, 7)
	assert.Contains(t, string(out), "typedef char buf_h_layout_2[(offsetof(Buf, size) == 0) ? 1 : -1]; /* Buf.size */\n")

	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Skip("no C compiler")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "buf.h"), out, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "use.c"), []byte("#include \"buf.h\"\nint main(void) { return 0; }\n"), 0o600))
	cmd := exec.Command(cc, "-std=c99", "-pedantic-errors", "-Wall", "-Werror", "-c", "-o", filepath.Join(dir, "use.o"), "use.c")
	cmd.Dir = dir
	msg, err := cmd.CombinedOutput()
	require.NoError(t, err, string(msg))
}

func TestRenderLayoutErrorsSurface(t *testing.T) {
	s := cabi.NewSurface("lib")
	require.NoError(t, s.AddStruct(cabi.Struct{Name: "Loop", Fields: []cabi.Field{{Name: "self", Type: cabi.StructRef("Loop")}}}))
	_, err := header.Render(s, c99(t), header.Options{Name: "x.h", Layouts: layout.New(layout.X86_64LinuxGNU(), s)})
	require.Error(t, err)
	assert.True(t, diag.Is(err, diag.LayoutRecursive))
}

func TestRenderReportsUnrenderableTypes(t *testing.T) {
	s := cabi.NewSurface("lib")
	require.NoError(t, s.AddFunction(cabi.Function{
		Symbol: "hash",
		Params: []cabi.Param{{Name: "b", Type: cabi.ArrayOf(cabi.Uint(8), 32)}},
	}))
	_, err := header.Render(s, c99(t), header.Options{Name: "x.h"})
	require.Error(t, err)
	require.True(t, diag.Is(err, diag.ABIUnrenderable))
	d := err.(*diag.Error).Diagnostics()[0]
	assert.Equal(t, "hash", d.Symbol)
	assert.Equal(t, "[32]uint8", d.GoType)
}

func TestRenderDocComments(t *testing.T) {
	s := cabi.NewSurface("lib")
	require.NoError(t, s.AddFunction(cabi.Function{Symbol: "f", Result: cabi.Bool, Doc: "f reports */ things.\n\nSecond paragraph."}))
	out, err := header.Render(s, c99(t), header.Options{Name: "x.h", Guard: "MY_GUARD"})
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "/*\n * f reports * / things.\n *\n * Second paragraph.\n */\nbool f(void);\n")
	assert.Contains(t, text, "#ifndef MY_GUARD\n")
	assert.Contains(t, text, "#include <stdbool.h>\n")
}

func TestWriteReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, header.Write(dir, "cbridge.h", []byte("one\n")))
	require.NoError(t, header.Write(dir, "cbridge.h", []byte("two\n")))

	got, err := os.ReadFile(filepath.Join(dir, "cbridge.h"))
	require.NoError(t, err)
	assert.Equal(t, "two\n", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")

	ok, err := header.UpToDate(dir, "cbridge.h", []byte("two\n"))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = header.UpToDate(dir, "missing.h", []byte("two\n"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nope")
	err := header.Write(dir, "cbridge.h", []byte("x"))
	require.Error(t, err)
	assert.True(t, diag.Is(err, diag.IOMissingOut))
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "Write must not create the output directory")
}

func TestWriteFailureKeepsOldHeader(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := t.TempDir()
	require.NoError(t, header.Write(dir, "cbridge.h", []byte("old\n")))
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	err := header.Write(dir, "cbridge.h", []byte("new\n"))
	require.Error(t, err)
	assert.True(t, diag.Is(err, diag.IOWriteHeader))

	got, readErr := os.ReadFile(filepath.Join(dir, "cbridge.h"))
	require.NoError(t, readErr)
	assert.Equal(t, "old\n", string(got))
}
