// Package testkit holds checks shared by tests that produce headers.
package testkit

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

const banner = "/* Code generated by cbridge. DO NOT EDIT. */"

// CheckHeaderInvariants runs structural checks on a generated header:
// 1) the first line is the generated-code banner
// 2) #ifndef G / #define G open the file and the last line is #endif /* G */
// 3) preprocessor conditionals are balanced
// 4) the extern "C" block opens and closes exactly once
// 5) block comments never nest and the file ends with a newline
func CheckHeaderInvariants(text []byte) error {
	if len(text) == 0 {
		return fmt.Errorf("empty header")
	}
	if text[len(text)-1] != '\n' {
		return fmt.Errorf("header does not end with a newline")
	}

	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(text))
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return err
	}

	// 1) banner
	if lines[0] != banner {
		return fmt.Errorf("first line is %q, want the generated-code banner", lines[0])
	}

	// 2) include guard
	guard := ""
	guardLine := -1
	for i, l := range lines {
		if strings.HasPrefix(l, "#ifndef ") {
			guard = strings.TrimPrefix(l, "#ifndef ")
			guardLine = i
			break
		}
		if strings.HasPrefix(l, "#") {
			return fmt.Errorf("line %d: %q precedes the include guard", i+1, l)
		}
	}
	if guard == "" {
		return fmt.Errorf("no include guard")
	}
	if guardLine+1 >= len(lines) || lines[guardLine+1] != "#define "+guard {
		return fmt.Errorf("line %d: #ifndef %s is not followed by its #define", guardLine+1, guard)
	}
	if last := lines[len(lines)-1]; last != "#endif /* "+guard+" */" {
		return fmt.Errorf("last line is %q, want #endif /* %s */", last, guard)
	}

	// 3) conditionals, 4) extern "C", 5) comments
	depth, externOpen, externClose := 0, 0, 0
	inComment := false
	for i, l := range lines {
		n := i + 1
		switch {
		case strings.HasPrefix(l, "#if"):
			depth++
		case strings.HasPrefix(l, "#endif"):
			depth--
			if depth < 0 {
				return fmt.Errorf("line %d: unbalanced #endif", n)
			}
		}
		if l == `extern "C" {` {
			externOpen++
		}
		if strings.HasPrefix(l, `} /* extern "C" */`) {
			externClose++
		}
		rest := l
		for rest != "" {
			if inComment {
				end := strings.Index(rest, "*/")
				if open := strings.Index(rest, "/*"); open >= 0 && (end < 0 || open < end) {
					return fmt.Errorf("line %d: nested block comment", n)
				}
				if end < 0 {
					break
				}
				inComment = false
				rest = rest[end+2:]
				continue
			}
			start := strings.Index(rest, "/*")
			if start < 0 {
				break
			}
			inComment = true
			rest = rest[start+2:]
		}
	}
	if depth != 0 {
		return fmt.Errorf("%d unclosed preprocessor conditionals", depth)
	}
	if inComment {
		return fmt.Errorf("unterminated block comment")
	}
	if externOpen != 1 || externClose != 1 {
		return fmt.Errorf(`extern "C" opened %d times and closed %d times`, externOpen, externClose)
	}
	return nil
}
