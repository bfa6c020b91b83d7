// Package config resolves the generator configuration for one run.
//
// Precedence for the output directory, highest first: the --out-dir flag,
// CBRIDGE_OUT_DIR (from the environment or a .env file in the build tree),
// [output].dir from cbridge.toml, and the fixed default "include". Every
// other setting comes from cbridge.toml or its default.
package config
