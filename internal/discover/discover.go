package discover

import (
	"errors"
	"fmt"
	"go/ast"
	"go/build"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"cbridge/internal/cabi"
	"cbridge/internal/diag"
)

const (
	exportPrefix    = "//export "
	layoutDirective = "//cbridge:layout"
)

// Options tune discovery.
type Options struct {
	// Reserved reports identifiers the target dialect cannot use.
	Reserved func(ident string) bool
	// MaxDiagnostics caps the number of collected diagnostics; 0 means unbounded.
	MaxDiagnostics int
}

// Source is one Go file given by content.
type Source struct {
	Name    string
	Content []byte
}

// Result is what discovery found in one package.
type Result struct {
	Surface     *cabi.Surface
	Diagnostics *diag.Bag
}

// Package statically scans the Go package in dir. Test files are skipped;
// cgo files are included whatever the host's CGO_ENABLED is.
func Package(dir string, opts Options) (*Result, error) {
	ctx := build.Default
	ctx.CgoEnabled = true
	bp, err := ctx.ImportDir(dir, 0)
	if err != nil {
		var noGo *build.NoGoError
		msg := "cannot list Go files"
		if errors.As(err, &noGo) {
			msg = "directory contains no Go files"
		}
		return nil, diag.Errorf(diag.IOListPackage, token.Position{Filename: dir}, "", msg, err)
	}

	names := append(append([]string(nil), bp.GoFiles...), bp.CgoFiles...)
	sort.Strings(names)
	srcs := make([]Source, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, diag.Errorf(diag.IOParseSource, token.Position{Filename: path}, "", "cannot read source", err)
		}
		srcs = append(srcs, Source{Name: path, Content: content})
	}
	Logger().Debug("discover package",
		zap.String("dir", dir),
		zap.String("package", bp.Name),
		zap.Int("files", len(srcs)))
	return Sources(bp.Name, srcs, opts)
}

// Sources scans the given files as one package. Files are visited in the
// order given and declarations in source order within each file.
func Sources(pkg string, srcs []Source, opts Options) (*Result, error) {
	fset := token.NewFileSet()
	bag := diag.NewBag(opts.MaxDiagnostics)
	files := make([]*ast.File, 0, len(srcs))
	for _, src := range srcs {
		f, err := parser.ParseFile(fset, src.Name, src.Content, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			return nil, diag.Errorf(diag.IOParseSource, token.Position{Filename: src.Name}, "", "cannot parse Go source", err)
		}
		files = append(files, f)
	}

	s := &scanner{
		fset:     fset,
		opts:     opts,
		rep:      diag.BagReporter{Bag: bag},
		surface:  cabi.NewSurface(pkg),
		layouts:  make(map[string]int, 8),
		typeDefs: make(map[string]*ast.TypeSpec, 16),
	}
	s.collect(files)
	s.scan(files)

	if s.surface.Empty() && !bag.HasErrors() {
		diag.ReportWarning(s.rep, diag.ABINoExports, token.Position{}, fmt.Sprintf("package %s has no //export functions or %s types", pkg, layoutDirective)).Emit()
	}
	res := &Result{Surface: s.surface, Diagnostics: bag}
	if err := bag.Err(); err != nil {
		return res, err
	}
	Logger().Debug("discovered surface",
		zap.String("package", pkg),
		zap.Int("structs", len(s.surface.Structs)),
		zap.Int("functions", len(s.surface.Functions)))
	return res, nil
}

type scanner struct {
	fset    *token.FileSet
	opts    Options
	rep     diag.Reporter
	surface *cabi.Surface

	layouts  map[string]int // layout name -> declaration index
	typeDefs map[string]*ast.TypeSpec
}

// collect records every layout before types are resolved, so functions
// may refer to layouts declared later in the package.
func (s *scanner) collect(files []*ast.File) {
	idx := 0
	for _, f := range files {
		for _, decl := range f.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				s.typeDefs[ts.Name.Name] = ts
				if hasLayoutDirective(gen, ts) {
					if _, dup := s.layouts[ts.Name.Name]; !dup {
						s.layouts[ts.Name.Name] = idx
						idx++
					}
				}
			}
		}
	}
}

// importsC reports whether f is a cgo file; cgo honours //export only there.
func importsC(f *ast.File) bool {
	for _, imp := range f.Imports {
		if imp.Path != nil && imp.Path.Value == `"C"` {
			return true
		}
	}
	return false
}

func (s *scanner) scan(files []*ast.File) {
	for _, f := range files {
		cgo := importsC(f)
		for _, decl := range f.Decls {
			switch d := decl.(type) {
			case *ast.GenDecl:
				if d.Tok != token.TYPE {
					continue
				}
				for _, spec := range d.Specs {
					ts, ok := spec.(*ast.TypeSpec)
					if ok && hasLayoutDirective(d, ts) {
						s.layout(d, ts)
					}
				}
			case *ast.FuncDecl:
				name, ok := exportName(d.Doc)
				if !ok {
					continue
				}
				if !cgo {
					file := filepath.Base(s.fset.Position(f.Package).Filename)
					s.errorAt(d, diag.ABIExportOutsideCgo, name, nil, fmt.Sprintf("%s does not import \"C\", so cgo ignores //export %s; move it to a cgo file", file, name))
					continue
				}
				s.function(d, name)
			}
		}
	}
}

func hasLayoutDirective(gen *ast.GenDecl, ts *ast.TypeSpec) bool {
	if ts.Doc != nil && directiveIn(ts.Doc) {
		return true
	}
	return len(gen.Specs) == 1 && gen.Doc != nil && directiveIn(gen.Doc)
}

func directiveIn(cg *ast.CommentGroup) bool {
	for _, c := range cg.List {
		if strings.HasPrefix(c.Text, layoutDirective) {
			return true
		}
	}
	return false
}

func layoutDirectiveArgs(gen *ast.GenDecl, ts *ast.TypeSpec) string {
	groups := []*ast.CommentGroup{ts.Doc}
	if len(gen.Specs) == 1 {
		groups = append(groups, gen.Doc)
	}
	for _, cg := range groups {
		if cg == nil {
			continue
		}
		for _, c := range cg.List {
			if strings.HasPrefix(c.Text, layoutDirective) {
				return strings.TrimSpace(strings.TrimPrefix(c.Text, layoutDirective))
			}
		}
	}
	return ""
}

func exportName(cg *ast.CommentGroup) (string, bool) {
	if cg == nil {
		return "", false
	}
	for _, c := range cg.List {
		if strings.HasPrefix(c.Text, exportPrefix) {
			return strings.TrimSpace(strings.TrimPrefix(c.Text, exportPrefix)), true
		}
	}
	return "", false
}

func docText(cg *ast.CommentGroup) string {
	if cg == nil {
		return ""
	}
	kept := make([]*ast.Comment, 0, len(cg.List))
	for _, c := range cg.List {
		if strings.HasPrefix(c.Text, exportPrefix) || strings.HasPrefix(c.Text, layoutDirective) {
			continue
		}
		kept = append(kept, c)
	}
	return strings.TrimSpace((&ast.CommentGroup{List: kept}).Text())
}

func (s *scanner) pos(n ast.Node) token.Position {
	return s.fset.Position(n.Pos())
}

func (s *scanner) errorAt(n ast.Node, code diag.Code, symbol string, expr ast.Expr, msg string) {
	b := diag.ReportError(s.rep, code, s.pos(n), msg).Symbol(symbol)
	if expr != nil {
		b = b.GoType(types.ExprString(expr))
	}
	b.Emit()
}

func (s *scanner) reserved(ident string) bool {
	return s.opts.Reserved != nil && s.opts.Reserved(ident)
}

func (s *scanner) layout(gen *ast.GenDecl, ts *ast.TypeSpec) {
	name := ts.Name.Name
	if args := layoutDirectiveArgs(gen, ts); args != "" {
		s.errorAt(ts, diag.ABIBadLayoutDirective, name, nil, fmt.Sprintf("%s takes no arguments, got %q", layoutDirective, args))
		return
	}
	if ts.TypeParams != nil && len(ts.TypeParams.List) > 0 {
		s.errorAt(ts, diag.ABIGeneric, name, nil, "generic types have no single C layout")
		return
	}
	if ts.Assign.IsValid() {
		s.errorAt(ts, diag.ABIBadLayoutDirective, name, ts.Type, "type aliases cannot carry a layout; declare the struct directly")
		return
	}
	st, ok := ts.Type.(*ast.StructType)
	if !ok {
		s.errorAt(ts, diag.ABIBadLayoutDirective, name, ts.Type, "only struct types can be exported layouts")
		return
	}
	if s.reserved(name) {
		s.errorAt(ts, diag.ABIReservedIdentifier, name, nil, fmt.Sprintf("%q is reserved in C", name))
		return
	}

	out := cabi.Struct{Name: name, Pos: s.pos(ts), Doc: docText(ts.Doc)}
	if out.Doc == "" && len(gen.Specs) == 1 {
		out.Doc = docText(gen.Doc)
	}
	self := s.layouts[name]
	seen := make(map[string]bool, len(st.Fields.List))
	ok = true
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			s.errorAt(field, diag.ABIHiddenField, name, field.Type, "embedded fields hide their layout from C; name the field")
			ok = false
			continue
		}
		ft, fok := s.resolve(field.Type, name, siteField)
		if !fok {
			ok = false
			continue
		}
		if dep := ft.ByValueStruct(); dep != "" {
			if idx, known := s.layouts[dep]; known && idx > self {
				s.errorAt(field, diag.ABIDeclOrder, name, field.Type, fmt.Sprintf("layout %s is embedded by value but declared after %s", dep, name))
				ok = false
				continue
			}
		}
		for _, ident := range field.Names {
			fname := ident.Name
			switch {
			case fname == "_":
				s.errorAt(ident, diag.ABIHiddenField, name, field.Type, "blank fields are padding C cannot name")
				ok = false
				continue
			case seen[fname]:
				s.errorAt(ident, diag.ABIDuplicateField, name, nil, fmt.Sprintf("field %s declared twice", fname))
				ok = false
				continue
			case s.reserved(fname):
				s.errorAt(ident, diag.ABIReservedIdentifier, name, nil, fmt.Sprintf("field name %q is reserved in C", fname))
				ok = false
				continue
			}
			seen[fname] = true
			out.Fields = append(out.Fields, cabi.Field{Name: fname, Type: ft, Pos: s.pos(ident)})
		}
	}
	if !ok {
		return
	}
	if len(out.Fields) == 0 {
		s.errorAt(ts, diag.ABIEmptyLayout, name, nil, "C99 structs need at least one member")
		return
	}
	if err := s.surface.AddStruct(out); err != nil {
		s.errorAt(ts, diag.ABIDuplicateSymbol, name, nil, err.Error())
		return
	}
	Logger().Debug("layout", zap.String("name", name), zap.Int("fields", len(out.Fields)))
}

func (s *scanner) function(fd *ast.FuncDecl, exported string) {
	name := fd.Name.Name
	if exported != name {
		s.errorAt(fd, diag.ABIExportNameMismatch, exported, nil, fmt.Sprintf("//export %s must name the function it precedes (%s)", exported, name))
		return
	}
	if fd.Recv != nil {
		s.errorAt(fd, diag.ABIMethod, name, nil, "methods have no C symbol; export a plain function")
		return
	}
	if fd.Type.TypeParams != nil && len(fd.Type.TypeParams.List) > 0 {
		s.errorAt(fd, diag.ABIGeneric, name, nil, "generic functions cannot be exported")
		return
	}
	if s.reserved(name) {
		s.errorAt(fd, diag.ABIReservedIdentifier, name, nil, fmt.Sprintf("%q is reserved in C", name))
		return
	}

	fn := cabi.Function{
		Symbol: name,
		Result: cabi.Void,
		Conv:   cabi.ConvC,
		Pos:    s.pos(fd),
		Doc:    docText(fd.Doc),
	}
	ok := true
	if fd.Type.Params != nil {
		for _, field := range fd.Type.Params.List {
			if _, variadic := field.Type.(*ast.Ellipsis); variadic {
				s.errorAt(field, diag.ABIVariadic, name, field.Type, "variadic parameters cannot be exported")
				ok = false
				continue
			}
			pt, pok := s.resolve(field.Type, name, siteParam)
			if !pok {
				ok = false
				continue
			}
			if len(field.Names) == 0 {
				fn.Params = append(fn.Params, cabi.Param{Type: pt})
				continue
			}
			for _, ident := range field.Names {
				if ident.Name != "_" && s.reserved(ident.Name) {
					s.errorAt(ident, diag.ABIReservedIdentifier, name, nil, fmt.Sprintf("parameter name %q is reserved in C", ident.Name))
					ok = false
					continue
				}
				fn.Params = append(fn.Params, cabi.Param{Name: ident.Name, Type: pt})
			}
		}
	}
	if res := fd.Type.Results; res != nil && res.NumFields() > 0 {
		if res.NumFields() > 1 {
			s.errorAt(res, diag.ABIMultipleResults, name, nil, fmt.Sprintf("function returns %d values; C returns one", res.NumFields()))
			ok = false
		} else {
			rt, rok := s.resolve(res.List[0].Type, name, siteResult)
			if rok {
				fn.Result = rt
			} else {
				ok = false
			}
		}
	}
	if !ok {
		return
	}
	if err := s.surface.AddFunction(fn); err != nil {
		s.errorAt(fd, diag.ABIDuplicateSymbol, name, nil, err.Error())
		return
	}
	Logger().Debug("export", zap.String("symbol", name), zap.Int("params", len(fn.Params)))
}

type site uint8

const (
	siteField site = iota + 1
	siteParam
	siteResult
	sitePointee
	// siteSignaturePointee is the target of a pointer in a parameter or result.
	siteSignaturePointee
)

// inSignature reports whether cgo's export rules apply: no Go structs or
// arrays, even behind a pointer.
func (at site) inSignature() bool {
	return at == siteParam || at == siteResult || at == siteSignaturePointee
}

// resolve maps a Go type expression to a cabi.Type, reporting why when it
// has no C representation.
func (s *scanner) resolve(expr ast.Expr, symbol string, at site) (cabi.Type, bool) {
	return s.resolveDepth(expr, symbol, at, 0)
}

func (s *scanner) resolveDepth(expr ast.Expr, symbol string, at site, depth int) (cabi.Type, bool) {
	if depth > 32 {
		s.errorAt(expr, diag.ABIUnsupportedType, symbol, expr, "type definition chain too deep")
		return cabi.Type{}, false
	}
	switch e := expr.(type) {
	case *ast.ParenExpr:
		return s.resolveDepth(e.X, symbol, at, depth+1)

	case *ast.Ident:
		if t, ok := goScalars[e.Name]; ok {
			return t, true
		}
		if why, ok := goRejected[e.Name]; ok {
			code := diag.ABIUnsupportedType
			if e.Name == "int" || e.Name == "uint" {
				code = diag.ABIPlatformSizedInt
			}
			s.errorAt(e, code, symbol, e, why)
			return cabi.Type{}, false
		}
		if _, ok := s.layouts[e.Name]; ok {
			if at.inSignature() {
				s.errorAt(e, diag.ABIUnsupportedType, symbol, e, fmt.Sprintf("cgo cannot export Go struct %s; take unsafe.Pointer and convert to *%s", e.Name, e.Name))
				return cabi.Type{}, false
			}
			return cabi.StructRef(e.Name), true
		}
		if ts, ok := s.typeDefs[e.Name]; ok {
			if _, isStruct := ts.Type.(*ast.StructType); isStruct {
				s.errorAt(e, diag.ABIUnknownLayout, symbol, e, fmt.Sprintf("struct %s is not an exported layout; mark it %s", e.Name, layoutDirective))
				return cabi.Type{}, false
			}
			if ts.TypeParams != nil && len(ts.TypeParams.List) > 0 {
				s.errorAt(e, diag.ABIGeneric, symbol, e, "generic types cannot cross the C boundary")
				return cabi.Type{}, false
			}
			// Named scalars such as `type Handle uint64` export their underlying type.
			return s.resolveDepth(ts.Type, symbol, at, depth+1)
		}
		s.errorAt(e, diag.ABIUnsupportedType, symbol, e, fmt.Sprintf("unknown type %s", e.Name))
		return cabi.Type{}, false

	case *ast.SelectorExpr:
		pkg, ok := e.X.(*ast.Ident)
		if !ok {
			break
		}
		switch pkg.Name {
		case "unsafe":
			if e.Sel.Name == "Pointer" {
				return cabi.VoidPtr, true
			}
		case "C":
			if t, ok := cgoScalars[e.Sel.Name]; ok {
				return t, true
			}
			if tag, ok := strings.CutPrefix(e.Sel.Name, "struct_"); ok && tag != "" {
				if at != sitePointee && at != siteSignaturePointee {
					s.errorAt(e, diag.ABIUnsupportedType, symbol, e, "C structs are opaque to the generator; pass them by pointer")
					return cabi.Type{}, false
				}
				return cabi.ForeignStruct(tag), true
			}
			s.errorAt(e, diag.ABIUnsupportedType, symbol, e, fmt.Sprintf("C.%s is not a known C scalar", e.Sel.Name))
			return cabi.Type{}, false
		}
		s.errorAt(e, diag.ABIUnsupportedType, symbol, e, "types from other packages cannot be analysed statically")
		return cabi.Type{}, false

	case *ast.StarExpr:
		inner := sitePointee
		if at.inSignature() {
			inner = siteSignaturePointee
		}
		elem, ok := s.resolveDepth(e.X, symbol, inner, depth+1)
		if !ok {
			return cabi.Type{}, false
		}
		return cabi.PointerTo(elem), true

	case *ast.ArrayType:
		if e.Len == nil {
			s.errorAt(e, diag.ABIUnsupportedType, symbol, e, "slices are dynamically sized; pass a pointer and a length")
			return cabi.Type{}, false
		}
		if at == siteParam || at == siteResult {
			s.errorAt(e, diag.ABIArrayNotAllowed, symbol, e, "C cannot pass arrays by value; use a pointer to the first element")
			return cabi.Type{}, false
		}
		if at == siteSignaturePointee {
			s.errorAt(e, diag.ABIUnsupportedType, symbol, e, "cgo cannot export pointers to Go arrays; take unsafe.Pointer or a pointer to the element type")
			return cabi.Type{}, false
		}
		n, ok := arrayLen(e.Len)
		if !ok {
			s.errorAt(e, diag.ABIBadArrayLength, symbol, e, "array length must be a positive integer literal")
			return cabi.Type{}, false
		}
		elemSite := siteField
		if at == sitePointee {
			elemSite = sitePointee
		}
		elem, ok := s.resolveDepth(e.Elt, symbol, elemSite, depth+1)
		if !ok {
			return cabi.Type{}, false
		}
		return cabi.ArrayOf(elem, n), true

	case *ast.IndexExpr, *ast.IndexListExpr:
		s.errorAt(expr, diag.ABIGeneric, symbol, expr, "instantiated generic types cannot cross the C boundary")
		return cabi.Type{}, false

	case *ast.FuncType:
		s.errorAt(e, diag.ABIUnsupportedType, symbol, e, "Go func values cannot be called from C")
		return cabi.Type{}, false
	case *ast.MapType:
		s.errorAt(e, diag.ABIUnsupportedType, symbol, e, "maps have no C layout")
		return cabi.Type{}, false
	case *ast.ChanType:
		s.errorAt(e, diag.ABIUnsupportedType, symbol, e, "channels have no C layout")
		return cabi.Type{}, false
	case *ast.InterfaceType:
		s.errorAt(e, diag.ABIUnsupportedType, symbol, e, "interfaces have no C layout")
		return cabi.Type{}, false
	case *ast.StructType:
		s.errorAt(e, diag.ABIUnsupportedType, symbol, e, "anonymous structs have no C name; declare a layout")
		return cabi.Type{}, false
	}
	s.errorAt(expr, diag.ABIUnsupportedType, symbol, expr, "type is not representable in C")
	return cabi.Type{}, false
}

func arrayLen(expr ast.Expr) (int, bool) {
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.INT {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(lit.Value, "_", ""), 0, 32)
	if err != nil || n <= 0 {
		return 0, false
	}
	return int(n), true
}
