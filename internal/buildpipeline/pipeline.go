package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"cbridge/internal/cabi"
	"cbridge/internal/config"
	"cbridge/internal/diag"
	"cbridge/internal/dialect"
	"cbridge/internal/discover"
	"cbridge/internal/header"
	"cbridge/internal/layout"
	"cbridge/internal/observ"
)

// Request configures one pipeline run.
type Request struct {
	Config         *config.Config
	MaxDiagnostics int
	// MakeOutDir creates the output directory before writing. Off by
	// default: the output directory is owned by the build system.
	MakeOutDir bool
	Progress   ProgressSink
	// Timer, when set, records one phase per stage.
	Timer *observ.Timer
}

// Result captures everything one run produced.
type Result struct {
	Surface   *cabi.Surface
	Layouts   []layout.NamedLayout
	Header    []byte
	Path      string
	Dialect   string
	Warnings  *diag.Bag
	Unchanged bool
	Timings   Timings
}

// Prepare discovers every configured package, computes layouts and renders
// the header in memory. Nothing is written.
func Prepare(ctx context.Context, req *Request) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil || req.Config == nil {
		return nil, fmt.Errorf("missing pipeline configuration")
	}
	cfg := req.Config
	r := &run{req: req, sink: multiSink{req.Progress, LogSink{}}}
	res := &Result{
		Path:     cfg.HeaderPath(),
		Warnings: diag.NewBag(req.MaxDiagnostics),
	}
	r.res = res

	d, err := dialect.Lookup(cfg.Dialect, cfg.DialectOptions())
	if err != nil {
		return nil, diag.Errorf(diag.ConfigUnknownDialect, token.Position{Filename: cfg.ManifestPath}, "", err.Error(), err)
	}
	res.Dialect = d.Name()

	surface, sources, err := r.discover(ctx, d)
	if err != nil {
		return res, err
	}
	res.Surface = surface

	engine := layout.New(cfg.Target, surface)
	if err := r.stage(StageLayout, "", func() error {
		named, lerrs := engine.Structs()
		res.Layouts = named
		if len(lerrs) > 0 {
			return header.LayoutErrors(surface, lerrs)
		}
		return nil
	}); err != nil {
		return res, err
	}

	opts := header.Options{
		Name:   cfg.HeaderName,
		Guard:  cfg.IncludeGuard,
		Source: strings.Join(sources, ", "),
	}
	if cfg.LayoutAsserts {
		opts.Layouts = engine
	}
	err = r.stage(StageRender, "", func() error {
		content, rerr := header.Render(surface, d, opts)
		res.Header = content
		return rerr
	})
	return res, err
}

// Generate renders the header and writes it atomically to the configured
// output directory. An identical header on disk is left untouched.
func Generate(ctx context.Context, req *Request) (*Result, error) {
	res, err := Prepare(ctx, req)
	if err != nil {
		return res, err
	}
	r := &run{req: req, res: res, sink: multiSink{req.Progress, LogSink{}}}
	cfg := req.Config
	err = r.stage(StageWrite, "", func() error {
		if req.MakeOutDir {
			if mkErr := os.MkdirAll(cfg.OutDir, 0o755); mkErr != nil {
				return diag.Errorf(diag.IOWriteHeader, token.Position{Filename: cfg.OutDir}, "", "cannot create output directory", mkErr)
			}
		}
		same, cmpErr := header.UpToDate(cfg.OutDir, cfg.HeaderName, res.Header)
		if cmpErr == nil && same {
			res.Unchanged = true
			return nil
		}
		return header.Write(cfg.OutDir, cfg.HeaderName, res.Header)
	})
	if err == nil {
		Logger().Info("header generated",
			zap.String("path", res.Path),
			zap.Bool("unchanged", res.Unchanged),
			zap.String("dialect", res.Dialect),
			zap.Int("structs", len(res.Surface.Structs)),
			zap.Int("functions", len(res.Surface.Functions)))
	}
	return res, err
}

// ErrStale is wrapped by Check when the header on disk differs.
var ErrStale = errors.New("header is out of date")

// Check renders the header and compares it with the file on disk. A missing
// or different header fails with IOStaleHeader.
func Check(ctx context.Context, req *Request) (*Result, error) {
	res, err := Prepare(ctx, req)
	if err != nil {
		return res, err
	}
	r := &run{req: req, res: res, sink: multiSink{req.Progress, LogSink{}}}
	cfg := req.Config
	err = r.stage(StageCheck, "", func() error {
		same, cmpErr := header.UpToDate(cfg.OutDir, cfg.HeaderName, res.Header)
		if cmpErr != nil {
			return cmpErr
		}
		if !same {
			return diag.Errorf(diag.IOStaleHeader, token.Position{Filename: res.Path}, "",
				"header is missing or out of date; run cbridge generate", ErrStale)
		}
		res.Unchanged = true
		return nil
	})
	return res, err
}

type run struct {
	req  *Request
	res  *Result
	sink ProgressSink
}

func (r *run) stage(stage Stage, pkg string, fn func() error) error {
	idx := -1
	if r.req.Timer != nil {
		name := string(stage)
		if pkg != "" {
			name += " " + pkg
		}
		idx = r.req.Timer.Begin(name)
	}
	r.sink.OnEvent(Event{Package: pkg, Stage: stage, Status: StatusWorking})
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	r.res.Timings.Add(stage, elapsed)

	status, note := StatusDone, ""
	if err != nil {
		status, note = StatusError, "failed"
	}
	if idx >= 0 {
		r.req.Timer.End(idx, note)
	}
	r.sink.OnEvent(Event{Package: pkg, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	return err
}

// discover scans each package in configuration order and merges the
// surfaces. Errors from every package are gathered before failing.
func (r *run) discover(ctx context.Context, d dialect.Dialect) (*cabi.Surface, []string, error) {
	cfg := r.req.Config
	merged := cabi.NewSurface("")
	errs := diag.NewBag(r.req.MaxDiagnostics)
	sources := make([]string, 0, len(cfg.Packages))
	var fatal error

	for _, dir := range cfg.Packages {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		label := relativeTo(cfg.Root, dir)
		sources = append(sources, label)

		var res *discover.Result
		err := r.stage(StageDiscover, label, func() error {
			var derr error
			res, derr = discover.Package(dir, discover.Options{
				Reserved:       d.Reserved,
				MaxDiagnostics: r.req.MaxDiagnostics,
			})
			return derr
		})
		if res != nil && res.Diagnostics != nil {
			for _, item := range res.Diagnostics.Items() {
				if item.Severity == diag.SevError {
					errs.Add(item)
				} else {
					r.res.Warnings.Add(item)
				}
			}
		}
		if err != nil {
			var de *diag.Error
			if !errors.As(err, &de) {
				return nil, nil, err
			}
			if res == nil {
				// Listing or parsing failed before any scanning.
				for _, item := range de.Diagnostics() {
					errs.Add(item)
				}
			}
			fatal = err
			continue
		}
		if merged.Package == "" {
			merged.Package = res.Surface.Package
		}
		if mergeErr := merged.Merge(res.Surface); mergeErr != nil {
			diag.ReportError(diag.BagReporter{Bag: errs}, diag.ABIDuplicateSymbol, token.Position{Filename: dir}, mergeErr.Error()).Emit()
			fatal = mergeErr
		}
	}

	if fatal != nil {
		errs.Sort()
		errs.Dedup()
		if err := errs.Err(); err != nil {
			return nil, nil, err
		}
		return nil, nil, fatal
	}
	return merged, sources, nil
}

func relativeTo(root, dir string) string {
	if rel, err := filepath.Rel(root, dir); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(dir)
}
