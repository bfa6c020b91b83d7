package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cbridge/internal/buildpipeline"
	"cbridge/internal/cabi"
	"cbridge/internal/layout"
)

func TestLayoutTableShowsPadding(t *testing.T) {
	s := cabi.NewSurface("lib")
	require.NoError(t, s.AddStruct(cabi.Struct{Name: "Mixed", Fields: []cabi.Field{
		{Name: "a", Type: cabi.Uint(8)},
		{Name: "b", Type: cabi.Uint(64)},
		{Name: "c", Type: cabi.Uint(16)},
	}}))
	named, lerrs := layout.New(layout.X86_64LinuxGNU(), s).Structs()
	require.Empty(t, lerrs)

	want := "Mixed  size 24, align 8, x86_64-linux-gnu\n" +
		"  FIELD      TYPE    OFFSET  SIZE  ALIGN\n" +
		"  a          uint8        0     1      1\n" +
		"  (padding)               1     7\n" +
		"  b          uint64       8     8      8\n" +
		"  c          uint16      16     2      2\n" +
		"  (padding)              18     6\n"
	assert.Equal(t, want, LayoutTable("x86_64-linux-gnu", named, false))
}

func TestLayoutTableEmpty(t *testing.T) {
	assert.Equal(t, "no exported layouts\n", LayoutTable("x86_64-linux-gnu", nil, false))
}

func TestStatusPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := &StatusPrinter{W: &buf}
	p.OnEvent(buildpipeline.Event{Stage: buildpipeline.StageDiscover, Package: "lib", Status: buildpipeline.StatusWorking})
	p.OnEvent(buildpipeline.Event{Stage: buildpipeline.StageDiscover, Package: "lib", Status: buildpipeline.StatusDone, Elapsed: 1500 * time.Microsecond})
	p.OnEvent(buildpipeline.Event{Stage: buildpipeline.StageWrite, Status: buildpipeline.StatusError, Err: errors.New("x")})

	assert.Equal(t, "    done discovered lib (1.50 ms)\n   error wrote header\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghijkl", 7))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
