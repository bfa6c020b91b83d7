package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cbridge/internal/diag"
	"cbridge/internal/dialect"
)

func noEnv(string) (string, bool) { return "", false }

func envOf(vals map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vals[key]
		return v, ok
	}
}

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestResolveOutDir(t *testing.T) {
	assert.Equal(t, "/tmp/h", ResolveOutDir("/tmp/h", "include"))
	assert.Equal(t, "include", ResolveOutDir("", "include"))
	assert.Equal(t, "relative/out", ResolveOutDir("relative/out", "include"))
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(LoadOptions{StartDir: dir, Lookup: noEnv, SkipDotEnv: true})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, DefaultOutDir), cfg.OutDir)
	assert.Equal(t, FromDefault, cfg.OutDirSource)
	assert.Equal(t, DefaultHeaderName, cfg.HeaderName)
	assert.Equal(t, dialect.C99Name, cfg.Dialect)
	assert.Equal(t, dialect.StyleTypedef, cfg.Style)
	assert.Equal(t, "x86_64-linux-gnu", cfg.Target.Triple)
	assert.Equal(t, []string{filepath.Join(dir, DefaultPackage)}, cfg.Packages)
	assert.False(t, cfg.LayoutAsserts)
	assert.Equal(t, filepath.Join(dir, DefaultOutDir, DefaultHeaderName), cfg.HeaderPath())
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[header]
name = "bridge.h"
style = "tag"
include_guard = "MY_BRIDGE_H"
param_names = false
layout_asserts = true
target = "i686-linux-gnu"

[output]
dir = "gen/include"

[sources]
packages = ["lib/a", "lib/b"]
`)
	sub := filepath.Join(dir, "lib", "a")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	cfg, err := Load(LoadOptions{StartDir: sub, Lookup: noEnv, SkipDotEnv: true})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, ManifestName), cfg.ManifestPath)
	assert.Equal(t, "bridge.h", cfg.HeaderName)
	assert.Equal(t, dialect.StyleTag, cfg.Style)
	assert.Equal(t, "MY_BRIDGE_H", cfg.IncludeGuard)
	assert.True(t, cfg.OmitParamNames)
	assert.True(t, cfg.LayoutAsserts)
	assert.Equal(t, "i686-linux-gnu", cfg.Target.Triple)
	assert.Equal(t, filepath.Join(dir, "gen", "include"), cfg.OutDir)
	assert.Equal(t, FromManifest, cfg.OutDirSource)
	assert.Equal(t, []string{filepath.Join(dir, "lib", "a"), filepath.Join(dir, "lib", "b")}, cfg.Packages)
	assert.Equal(t, dialect.Options{Style: dialect.StyleTag, OmitParamNames: true}, cfg.DialectOptions())
}

func TestOutDirPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "[output]\ndir = \"from-manifest\"\n")

	cfg, err := Load(LoadOptions{ManifestPath: path, Lookup: envOf(map[string]string{EnvOutDir: "/env/out"}), SkipDotEnv: true})
	require.NoError(t, err)
	assert.Equal(t, "/env/out", cfg.OutDir)
	assert.Equal(t, FromEnv, cfg.OutDirSource)

	cfg, err = Load(LoadOptions{ManifestPath: path, Lookup: envOf(map[string]string{EnvOutDir: "/env/out"}), OutDirFlag: "flag/out", SkipDotEnv: true})
	require.NoError(t, err)
	assert.Equal(t, "flag/out", cfg.OutDir)
	assert.Equal(t, FromFlag, cfg.OutDirSource)

	// An empty override counts as unset.
	cfg, err = Load(LoadOptions{ManifestPath: path, Lookup: envOf(map[string]string{EnvOutDir: ""}), SkipDotEnv: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "from-manifest"), cfg.OutDir)
	assert.Equal(t, FromManifest, cfg.OutDirSource)
}

func TestOutDirFromProcessEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvOutDir, "/from/process")

	cfg, err := Load(LoadOptions{StartDir: dir, SkipDotEnv: true})
	require.NoError(t, err)
	assert.Equal(t, "/from/process", cfg.OutDir)
}

func TestOutDirFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, DotEnvName), []byte(EnvOutDir+"=dotenv/out\n"), 0o600))

	cfg, err := Load(LoadOptions{StartDir: dir, Lookup: noEnv})
	require.NoError(t, err)
	assert.Equal(t, "dotenv/out", cfg.OutDir)
	assert.Equal(t, FromEnv, cfg.OutDirSource)

	// The real environment wins over .env.
	cfg, err = Load(LoadOptions{StartDir: dir, Lookup: envOf(map[string]string{EnvOutDir: "/real"})})
	require.NoError(t, err)
	assert.Equal(t, "/real", cfg.OutDir)
}

func TestLoadRejectsBadManifest(t *testing.T) {
	cases := []struct {
		name string
		body string
		code diag.Code
	}{
		{"syntax", "[header\nname=", diag.ConfigManifestParse},
		{"unknown key", "[header]\ncolour = \"red\"\n", diag.ConfigManifestParse},
		{"dialect", "[header]\ndialect = \"c89\"\n", diag.ConfigUnknownDialect},
		{"style", "[header]\nstyle = \"union\"\n", diag.ConfigBadStyle},
		{"target", "[header]\ntarget = \"mips-linux-gnu\"\n", diag.ConfigBadTarget},
		{"header path", "[header]\nname = \"sub/x.h\"\n", diag.ConfigBadHeaderName},
		{"guard", "[header]\ninclude_guard = \"1BAD\"\n", diag.ConfigBadIncludeGuard},
		{"no packages", "[sources]\npackages = []\n", diag.ConfigNoPackages},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tc.body)
			_, err := Load(LoadOptions{ManifestPath: path, Lookup: noEnv, SkipDotEnv: true})
			require.Error(t, err)
			assert.True(t, diag.Is(err, tc.code), "got %v", err)
		})
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "")
	deep := filepath.Join(dir, "a", "b", "c")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	found, ok, err := FindManifest(deep)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, path, found)
}
