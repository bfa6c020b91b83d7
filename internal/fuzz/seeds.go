package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const maxFuzzInput = 64 << 10

func addCorpusSeeds(f *testing.F) {
	addTestdataSeeds(f)
	for _, s := range inlineSeeds {
		f.Add([]byte(s))
	}
}

// addTestdataSeeds adds every Go file under the repository's packages that
// carry exports.
func addTestdataSeeds(f *testing.F) {
	roots := []string{
		filepath.Join("..", "discover", "testdata"),
		filepath.Join("..", "..", "cmd", "libcbridge"),
	}
	for _, root := range roots {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".go" {
				return nil
			}
			// #nosec G304 -- path comes from a repository walk
			src, err := os.ReadFile(path)
			if err != nil || len(src) > maxFuzzInput {
				return nil
			}
			f.Add(src)
			return nil
		})
	}
}

var inlineSeeds = []string{
	"package main\n\nimport \"C\"\n\n//export f\nfunc f() {}\n",
	"package main\n\n//cbridge:layout\ntype P struct{ a, b uint8; c [4]int16 }\n",
	"package main\n\n//cbridge:layout\ntype A struct{ b *B }\n\n//cbridge:layout\ntype B struct{ a A }\n",
	"package main\n\nimport \"C\"\n\n//export g\nfunc g(p *C.struct_stat, n C.size_t) C.int { return 0 }\n",
	"package main\n\n//export h\nfunc h[T any](x T) {}\n",
	"package main\n\n//export int\nfunc int(s ...string) (int, error) {}\n",
}
