package cabi

import "go/token"

// Conv is a calling convention tag. Every exported item uses ConvC.
type Conv uint8

const (
	ConvC Conv = iota + 1
)

func (c Conv) String() string {
	if c == ConvC {
		return "C"
	}
	return "unknown"
}

type Param struct {
	Name string // may be empty
	Type Type
}

// Function is an exported function, identified by its unmangled symbol.
type Function struct {
	Symbol string
	Params []Param
	Result Type
	Conv   Conv
	Pos    token.Position
	Doc    string
}

type Field struct {
	Name string
	Type Type
	Pos  token.Position
}

// Struct is an exported data layout. Fields keep declaration order.
type Struct struct {
	Name   string
	Fields []Field
	Pos    token.Position
	Doc    string
}

// DeclKind tells which slice of a Surface a Decl points into.
type DeclKind uint8

const (
	DeclStruct DeclKind = iota + 1
	DeclFunction
)

// Decl records source order across both kinds of declaration.
type Decl struct {
	Kind  DeclKind
	Index int
}
