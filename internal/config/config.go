package config

import (
	"errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"cbridge/internal/diag"
	"cbridge/internal/dialect"
	"cbridge/internal/layout"
)

const (
	// EnvOutDir overrides the output directory when set and non-empty.
	EnvOutDir = "CBRIDGE_OUT_DIR"

	ManifestName      = "cbridge.toml"
	DotEnvName        = ".env"
	DefaultOutDir     = "include"
	DefaultHeaderName = "cbridge.h"
	DefaultDialect    = dialect.C99Name
	DefaultTarget     = "x86_64-linux-gnu"
	DefaultPackage    = "cmd/libcbridge"
)

// OutDirSource tells where the output directory came from.
type OutDirSource string

const (
	FromFlag     OutDirSource = "flag"
	FromEnv      OutDirSource = "env"
	FromManifest OutDirSource = "manifest"
	FromDefault  OutDirSource = "default"
)

// Config is the resolved generator configuration for one invocation.
type Config struct {
	Root         string // build tree root: the manifest directory, else the start directory
	ManifestPath string // empty when no cbridge.toml was found

	OutDir       string
	OutDirSource OutDirSource

	HeaderName     string
	Dialect        string
	Style          dialect.StructStyle
	IncludeGuard   string
	OmitParamNames bool
	LayoutAsserts  bool
	Target         layout.Target
	Packages       []string
}

// HeaderPath is where the header will be written.
func (c *Config) HeaderPath() string {
	return filepath.Join(c.OutDir, c.HeaderName)
}

// DialectOptions derives the dialect options from the configuration.
func (c *Config) DialectOptions() dialect.Options {
	return dialect.Options{Style: c.Style, OmitParamNames: c.OmitParamNames}
}

type manifest struct {
	Header struct {
		Name          string `toml:"name"`
		Dialect       string `toml:"dialect"`
		Style         string `toml:"style"`
		IncludeGuard  string `toml:"include_guard"`
		ParamNames    *bool  `toml:"param_names"`
		LayoutAsserts bool   `toml:"layout_asserts"`
		Target        string `toml:"target"`
	} `toml:"header"`
	Output struct {
		Dir string `toml:"dir"`
	} `toml:"output"`
	Sources struct {
		Packages []string `toml:"packages"`
	} `toml:"sources"`
}

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

// LoadOptions feed Load. Zero values pick the usual defaults.
type LoadOptions struct {
	// StartDir is where the manifest search begins; "" means ".".
	StartDir string
	// ManifestPath names cbridge.toml explicitly and disables the search.
	ManifestPath string
	// Lookup reads the environment; nil means os.LookupEnv.
	Lookup LookupFunc
	// OutDirFlag sits above the environment override.
	OutDirFlag string
	// SkipDotEnv disables reading .env from the build tree root.
	SkipDotEnv bool
}

// ResolveOutDir returns override verbatim when it is non-empty, otherwise
// fallback. Nothing checks that the directory exists.
func ResolveOutDir(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}

// FindManifest walks up from startDir looking for cbridge.toml.
func FindManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load resolves the configuration once: defaults, then cbridge.toml, then
// .env and the process environment, then flags.
func Load(opts LoadOptions) (*Config, error) {
	start := opts.StartDir
	if start == "" {
		start = "."
	}
	cfg := &Config{
		Root:         start,
		HeaderName:   DefaultHeaderName,
		Dialect:      DefaultDialect,
		Style:        dialect.StyleTypedef,
		OutDir:       DefaultOutDir,
		OutDirSource: FromDefault,
	}

	manifestPath := opts.ManifestPath
	if manifestPath == "" {
		found, ok, err := FindManifest(start)
		if err != nil {
			return nil, err
		}
		if ok {
			manifestPath = found
		}
	}

	var m manifest
	packagesDefined := false
	if manifestPath != "" {
		meta, err := toml.DecodeFile(manifestPath, &m)
		if err != nil {
			return nil, diag.Errorf(diag.ConfigManifestParse, token.Position{Filename: manifestPath}, "", "failed to parse TOML", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return nil, diag.Errorf(diag.ConfigManifestParse, token.Position{Filename: manifestPath}, "", "unknown keys: "+strings.Join(keys, ", "), nil)
		}
		packagesDefined = meta.IsDefined("sources", "packages")
		cfg.ManifestPath = manifestPath
		cfg.Root = filepath.Dir(manifestPath)
	}
	pos := token.Position{Filename: manifestPath}

	if v := strings.TrimSpace(m.Header.Name); v != "" {
		cfg.HeaderName = v
	}
	if strings.ContainsAny(cfg.HeaderName, `/\`) || cfg.HeaderName == "." || cfg.HeaderName == ".." {
		return nil, diag.Errorf(diag.ConfigBadHeaderName, pos, "", fmt.Sprintf("header name %q must be a plain file name", cfg.HeaderName), nil)
	}

	if v := strings.TrimSpace(m.Header.Dialect); v != "" {
		cfg.Dialect = strings.ToLower(v)
	}
	if !slices.Contains(dialect.Names(), cfg.Dialect) {
		return nil, diag.Errorf(diag.ConfigUnknownDialect, pos, "", fmt.Sprintf("unknown dialect %q (available: %s)", cfg.Dialect, strings.Join(dialect.Names(), ", ")), nil)
	}

	style, err := dialect.ParseStyle(m.Header.Style)
	if err != nil {
		return nil, diag.Errorf(diag.ConfigBadStyle, pos, "", err.Error(), nil)
	}
	cfg.Style = style

	if guard := strings.TrimSpace(m.Header.IncludeGuard); guard != "" {
		if !cIdent.MatchString(guard) {
			return nil, diag.Errorf(diag.ConfigBadIncludeGuard, pos, "", fmt.Sprintf("include guard %q is not a C identifier", guard), nil)
		}
		cfg.IncludeGuard = guard
	}
	if m.Header.ParamNames != nil {
		cfg.OmitParamNames = !*m.Header.ParamNames
	}
	cfg.LayoutAsserts = m.Header.LayoutAsserts

	triple := DefaultTarget
	if v := strings.TrimSpace(m.Header.Target); v != "" {
		triple = v
	}
	target, err := layout.ParseTarget(triple)
	if err != nil {
		return nil, diag.Errorf(diag.ConfigBadTarget, pos, "", err.Error(), nil)
	}
	cfg.Target = target

	pkgs := m.Sources.Packages
	if packagesDefined && len(pkgs) == 0 {
		return nil, diag.Errorf(diag.ConfigNoPackages, pos, "", "[sources].packages is empty", nil)
	}
	if len(pkgs) == 0 {
		pkgs = []string{DefaultPackage}
	}
	for _, p := range pkgs {
		cfg.Packages = append(cfg.Packages, cfg.rooted(p))
	}

	if v := strings.TrimSpace(m.Output.Dir); v != "" {
		cfg.OutDir = v
		cfg.OutDirSource = FromManifest
	}
	cfg.OutDir = cfg.rooted(cfg.OutDir)

	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if !opts.SkipDotEnv {
		lookup = withDotEnv(lookup, filepath.Join(cfg.Root, DotEnvName))
	}
	if env, _ := lookup(EnvOutDir); env != "" {
		cfg.OutDir = ResolveOutDir(env, cfg.OutDir)
		cfg.OutDirSource = FromEnv
	}
	if opts.OutDirFlag != "" {
		cfg.OutDir = ResolveOutDir(opts.OutDirFlag, cfg.OutDir)
		cfg.OutDirSource = FromFlag
	}
	return cfg, nil
}

var cIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (c *Config) rooted(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Root, filepath.FromSlash(p))
}

// withDotEnv layers values from a .env file under the real environment:
// variables already set always win, as with godotenv.Load.
func withDotEnv(next LookupFunc, path string) LookupFunc {
	values, err := godotenv.Read(path)
	if err != nil {
		return next
	}
	return func(key string) (string, bool) {
		if v, ok := next(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}
}
