// Package diagfmt renders diagnostics for people (Pretty) and for tools
// (JSON).
package diagfmt
