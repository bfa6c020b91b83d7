package fuzztests

import (
	"bytes"
	"testing"

	"cbridge/internal/dialect"
	"cbridge/internal/discover"
	"cbridge/internal/header"
	"cbridge/internal/layout"
)

func clip(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return append([]byte(nil), input...)
}

func render(t *testing.T, d dialect.Dialect, input []byte) ([]byte, bool) {
	t.Helper()
	res, err := discover.Sources("fuzz", []discover.Source{{Name: "fuzz.go", Content: input}}, discover.Options{
		Reserved:       d.Reserved,
		MaxDiagnostics: 64,
	})
	if err != nil {
		return nil, false
	}
	engine := layout.New(layout.X86_64LinuxGNU(), res.Surface)
	if _, lerrs := engine.Structs(); len(lerrs) > 0 {
		return nil, false
	}
	out, err := header.Render(res.Surface, d, header.Options{Name: "fuzz.h", Layouts: engine})
	if err != nil {
		return nil, false
	}
	return out, true
}

// FuzzDiscoverRender feeds arbitrary Go source through discovery and
// rendering. Neither may panic, and a successful render is deterministic.
func FuzzDiscoverRender(f *testing.F) {
	addCorpusSeeds(f)
	d, err := dialect.Lookup(dialect.C99Name, dialect.Options{})
	if err != nil {
		f.Fatal(err)
	}
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clip(input)
		first, ok := render(t, d, input)
		if !ok {
			return
		}
		second, _ := render(t, d, input)
		if !bytes.Equal(first, second) {
			t.Fatalf("render is not deterministic for %q", input)
		}
	})
}
