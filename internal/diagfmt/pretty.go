package diagfmt

import (
	"bytes"
	"fmt"
	"go/token"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"cbridge/internal/diag"
)

var (
	errorColor    = color.New(color.FgRed, color.Bold)
	warningColor  = color.New(color.FgYellow, color.Bold)
	infoColor     = color.New(color.FgCyan)
	locationColor = color.New(color.Bold)
	codeColor     = color.New(color.Faint)
	gutterColor   = color.New(color.FgBlue)
)

type painter struct{ on bool }

func (p painter) paint(c *color.Color, s string) string {
	if !p.on {
		return s
	}
	// Color decisions belong to opts.Color, not to the global NoColor flag.
	c.EnableColor()
	return c.Sprint(s)
}

// Pretty writes diagnostics in the order given, one block each:
//
//	<path>:<line>:<col>: <severity>[<code>]: <message>
//	  symbol: <name>
//	  type:   <go type>
//
// followed by the source line and a caret when opts.Context is set.
func Pretty(w io.Writer, items []diag.Diagnostic, opts PrettyOpts) {
	p := painter{on: opts.Color}
	src := sourceCache{read: opts.ReadFile}
	for _, d := range items {
		if loc := location(d.Pos, opts.PathMode, opts.BaseDir); loc != "" {
			fmt.Fprintf(w, "%s: ", p.paint(locationColor, loc))
		}
		fmt.Fprintf(w, "%s[%s]: %s\n", severity(p, d.Severity), p.paint(codeColor, d.Code.ID()), d.Message)
		if d.Symbol != "" {
			fmt.Fprintf(w, "  symbol: %s\n", d.Symbol)
		}
		if d.GoType != "" {
			fmt.Fprintf(w, "  type:   %s\n", d.GoType)
		}
		if opts.Context {
			writeContext(w, p, &src, d.Pos)
		}
		if opts.ShowNotes {
			for _, n := range d.Notes {
				if loc := location(n.Pos, opts.PathMode, opts.BaseDir); loc != "" {
					fmt.Fprintf(w, "  note: %s: %s\n", loc, n.Msg)
				} else {
					fmt.Fprintf(w, "  note: %s\n", n.Msg)
				}
			}
		}
	}
}

func severity(p painter, sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return p.paint(errorColor, "error")
	case diag.SevWarning:
		return p.paint(warningColor, "warning")
	default:
		return p.paint(infoColor, "info")
	}
}

func location(pos token.Position, mode PathMode, base string) string {
	path := formatPath(pos.Filename, mode, base)
	switch {
	case path == "":
		return ""
	case pos.Line > 0 && pos.Column > 0:
		return fmt.Sprintf("%s:%d:%d", path, pos.Line, pos.Column)
	case pos.Line > 0:
		return fmt.Sprintf("%s:%d", path, pos.Line)
	}
	return path
}

func writeContext(w io.Writer, p painter, src *sourceCache, pos token.Position) {
	if pos.Filename == "" || pos.Line <= 0 {
		return
	}
	line, ok := src.line(pos.Filename, pos.Line)
	if !ok {
		return
	}
	num := fmt.Sprintf("%d", pos.Line)
	pad := strings.Repeat(" ", len(num))
	fmt.Fprintf(w, "  %s %s %s\n", p.paint(gutterColor, num), p.paint(gutterColor, "|"), line)
	if pos.Column > 0 {
		// Tabs are kept so the caret lines up under the same indentation.
		var lead strings.Builder
		for i := 0; i < pos.Column-1 && i < len(line); i++ {
			if line[i] == '\t' {
				lead.WriteByte('\t')
			} else {
				lead.WriteByte(' ')
			}
		}
		fmt.Fprintf(w, "  %s %s %s%s\n", pad, p.paint(gutterColor, "|"), lead.String(), p.paint(errorColor, "^"))
	}
}

type sourceCache struct {
	read  func(string) ([]byte, error)
	files map[string][][]byte
}

func (c *sourceCache) line(path string, n int) (string, bool) {
	if c.files == nil {
		c.files = make(map[string][][]byte)
	}
	lines, ok := c.files[path]
	if !ok {
		read := c.read
		if read == nil {
			read = os.ReadFile
		}
		content, err := read(path)
		if err == nil {
			lines = bytes.Split(content, []byte("\n"))
		}
		c.files[path] = lines
	}
	if n < 1 || n > len(lines) {
		return "", false
	}
	return strings.TrimRight(string(lines[n-1]), "\r"), true
}
