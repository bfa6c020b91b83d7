package header

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"strings"

	"cbridge/internal/cabi"
	"cbridge/internal/diag"
	"cbridge/internal/dialect"
	"cbridge/internal/layout"
)

// Options control the rendered text.
type Options struct {
	// Name is the header file name; it seeds the include guard.
	Name string
	// Guard overrides the derived include guard macro.
	Guard string
	// Source names the package the header was generated from, for the banner.
	Source string
	// Layouts enables sizeof/offsetof assertions; nil disables them.
	Layouts *layout.LayoutEngine
}

// Banner opens every generated header.
const Banner = "/* Code generated by cbridge. DO NOT EDIT. */"

// Render builds the whole header in memory. Any declaration the dialect
// cannot express fails the render with the symbol and type named.
func Render(s *cabi.Surface, d dialect.Dialect, opts Options) ([]byte, error) {
	if s == nil {
		s = cabi.NewSurface("")
	}
	bag := diag.NewBag(0)
	rep := diag.BagReporter{Bag: bag}

	guard := opts.Guard
	if guard == "" {
		guard = d.GuardMacro(opts.Name)
	}

	var buf bytes.Buffer
	buf.WriteString(Banner)
	buf.WriteByte('\n')
	if opts.Source != "" {
		fmt.Fprintf(&buf, "/* Source: %s, dialect: %s */\n", opts.Source, d.Name())
	}
	buf.WriteByte('\n')
	fmt.Fprintf(&buf, "#ifndef %s\n#define %s\n\n", guard, guard)

	if incs := d.Includes(usedTypes(s), opts.Layouts != nil && len(s.Structs) > 0); len(incs) > 0 {
		for _, inc := range incs {
			fmt.Fprintf(&buf, "#include <%s>\n", inc)
		}
		buf.WriteByte('\n')
	}

	buf.WriteString("#ifdef __cplusplus\nextern \"C\" {\n#endif\n\n")

	if len(s.Structs) > 0 {
		for i := range s.Structs {
			buf.WriteString(d.ForwardDecl(&s.Structs[i]))
			buf.WriteByte('\n')
		}
		buf.WriteByte('\n')
	}

	for i := range s.Structs {
		st := &s.Structs[i]
		decl, err := d.StructDecl(st)
		if err != nil {
			reportRender(rep, st.Name, st.Pos, err)
			continue
		}
		writeDoc(&buf, st.Doc)
		buf.WriteString(decl)
		buf.WriteString("\n\n")
	}

	if opts.Layouts != nil && len(s.Structs) > 0 && !bag.HasErrors() {
		if err := writeAsserts(&buf, s, d, opts.Layouts, guard); err != nil {
			return nil, err
		}
	}

	for i := range s.Functions {
		fn := &s.Functions[i]
		proto, err := d.Prototype(fn)
		if err != nil {
			reportRender(rep, fn.Symbol, fn.Pos, err)
			continue
		}
		writeDoc(&buf, fn.Doc)
		buf.WriteString(proto)
		buf.WriteString("\n\n")
	}

	buf.WriteString("#ifdef __cplusplus\n} /* extern \"C\" */\n#endif\n\n")
	fmt.Fprintf(&buf, "#endif /* %s */\n", guard)

	if err := bag.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func reportRender(rep diag.Reporter, symbol string, pos token.Position, err error) {
	b := diag.ReportError(rep, diag.ABIUnrenderable, pos, err.Error()).Symbol(symbol)
	var ute *dialect.UnsupportedTypeError
	if errors.As(err, &ute) {
		b = b.GoType(ute.Type.String())
	}
	b.Emit()
}

func writeDoc(buf *bytes.Buffer, doc string) {
	if doc == "" {
		return
	}
	lines := strings.Split(doc, "\n")
	if len(lines) == 1 {
		fmt.Fprintf(buf, "/* %s */\n", sanitizeComment(lines[0]))
		return
	}
	buf.WriteString("/*\n")
	for _, l := range lines {
		l = sanitizeComment(l)
		if l == "" {
			buf.WriteString(" *\n")
			continue
		}
		fmt.Fprintf(buf, " * %s\n", l)
	}
	buf.WriteString(" */\n")
}

// sanitizeComment keeps Go doc text from closing the C comment early.
func sanitizeComment(s string) string {
	return strings.ReplaceAll(s, "*/", "* /")
}

func usedTypes(s *cabi.Surface) []cabi.Type {
	out := make([]cabi.Type, 0, 8)
	for _, st := range s.Structs {
		for _, f := range st.Fields {
			out = append(out, f.Type)
		}
	}
	for _, fn := range s.Functions {
		out = append(out, fn.Result)
		for _, p := range fn.Params {
			out = append(out, p.Type)
		}
	}
	return out
}
