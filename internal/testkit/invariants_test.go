package testkit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const good = `/* Code generated by cbridge. DO NOT EDIT. */

#ifndef X_H
#define X_H

#ifdef __cplusplus
extern "C" {
#endif

/*
 * doc
 */
void f(void);

#ifdef __cplusplus
} /* extern "C" */
#endif

#endif /* X_H */
`

func TestCheckHeaderInvariants(t *testing.T) {
	require.NoError(t, CheckHeaderInvariants([]byte(good)))

	cases := map[string]string{
		"no newline":   strings.TrimSuffix(good, "\n"),
		"banner":       strings.Replace(good, "DO NOT EDIT", "edit me", 1),
		"guard define": strings.Replace(good, "#define X_H", "#define Y_H", 1),
		"guard end":    strings.Replace(good, "#endif /* X_H */", "#endif", 1),
		"extern":       strings.Replace(good, "} /* extern \"C\" */\n", "", 1),
		"unclosed":     strings.Replace(good, " */\nvoid", "\nvoid", 1),
		"nested":       strings.Replace(good, " * doc", " * doc /* inner", 1),
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, CheckHeaderInvariants([]byte(text)))
		})
	}
}
