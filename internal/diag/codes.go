package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Exported declaration errors
	ABIInfo                Code = 2000
	ABIUnsupportedType     Code = 2001
	ABIDuplicateSymbol     Code = 2002
	ABIGeneric             Code = 2003
	ABIVariadic            Code = 2004
	ABIMethod              Code = 2005
	ABIMultipleResults     Code = 2006
	ABIExportNameMismatch  Code = 2007
	ABIHiddenField         Code = 2008
	ABIDeclOrder           Code = 2009
	ABIUnknownLayout       Code = 2010
	ABIArrayNotAllowed     Code = 2011
	ABIPlatformSizedInt    Code = 2012
	ABIEmptyLayout         Code = 2013
	ABINoExports           Code = 2014
	ABIReservedIdentifier  Code = 2015
	ABIBadArrayLength      Code = 2016
	ABIBadLayoutDirective  Code = 2017
	ABIDuplicateField      Code = 2018
	ABIUnrenderable        Code = 2019
	ABIExportOutsideCgo    Code = 2020

	// Layout computation
	LayoutInfo           Code = 3000
	LayoutRecursive      Code = 3001
	LayoutUnknownStruct  Code = 3002
	LayoutSizeOverflow   Code = 3003
	LayoutUnknownCNative Code = 3004
	LayoutTargetUnknown  Code = 3005

	// Configuration
	ConfigInfo            Code = 4000
	ConfigUnknownDialect  Code = 4001
	ConfigBadStyle        Code = 4002
	ConfigBadTarget       Code = 4003
	ConfigManifestParse   Code = 4004
	ConfigBadHeaderName   Code = 4005
	ConfigNoPackages      Code = 4006
	ConfigBadIncludeGuard Code = 4007

	// IO
	IOInfo        Code = 5000
	IOParseSource Code = 5001
	IOListPackage Code = 5002
	IOWriteHeader Code = 5003
	IOReadHeader  Code = 5004
	IOStaleHeader Code = 5005
	IOMissingOut  Code = 5006
)

var codeDescription = map[Code]string{
	UnknownCode:            "Unknown error",
	ABIInfo:                "ABI information",
	ABIUnsupportedType:     "Type is not representable in C",
	ABIDuplicateSymbol:     "Duplicate exported symbol",
	ABIGeneric:             "Generic declarations cannot be exported",
	ABIVariadic:            "Variadic functions cannot be exported",
	ABIMethod:              "Methods cannot be exported",
	ABIMultipleResults:     "Exported functions return at most one value",
	ABIExportNameMismatch:  "Export directive does not match function name",
	ABIHiddenField:         "Layout contains a hidden field",
	ABIDeclOrder:           "Layout used by value before its declaration",
	ABIUnknownLayout:       "Struct type is not an exported layout",
	ABIArrayNotAllowed:     "Arrays cannot be passed by value",
	ABIPlatformSizedInt:    "Platform-sized integer in exported declaration",
	ABIEmptyLayout:         "Layout has no fields",
	ABINoExports:           "Package exports nothing",
	ABIReservedIdentifier:  "Identifier is reserved in C",
	ABIBadArrayLength:      "Array length is not a positive constant",
	ABIBadLayoutDirective:  "Malformed layout directive",
	ABIDuplicateField:      "Duplicate field name",
	ABIUnrenderable:        "Type cannot be rendered by the selected dialect",
	ABIExportOutsideCgo:    "Export directive in a file that does not import C",
	LayoutInfo:             "Layout information",
	LayoutRecursive:        "Recursive layout has infinite size",
	LayoutUnknownStruct:    "Layout refers to an unknown struct",
	LayoutSizeOverflow:     "Layout size overflows",
	LayoutUnknownCNative:   "Unknown C scalar type",
	LayoutTargetUnknown:    "Unknown layout target",
	ConfigInfo:             "Configuration information",
	ConfigUnknownDialect:   "Unknown header dialect",
	ConfigBadStyle:         "Unknown struct style",
	ConfigBadTarget:        "Unknown target triple",
	ConfigManifestParse:    "Cannot parse cbridge.toml",
	ConfigBadHeaderName:    "Invalid header name",
	ConfigNoPackages:       "No source packages configured",
	ConfigBadIncludeGuard:  "Invalid include guard",
	IOInfo:                 "IO information",
	IOParseSource:          "Cannot parse Go source",
	IOListPackage:          "Cannot list package files",
	IOWriteHeader:          "Cannot write header",
	IOReadHeader:           "Cannot read header",
	IOStaleHeader:          "Header is out of date",
	IOMissingOut:           "Output directory does not exist",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("ABI%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("LAY%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
