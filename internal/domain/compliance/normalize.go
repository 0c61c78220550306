package compliance

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold normaliza texto libre para comparación por substring:
// sin diacríticos, case-folded, "_" como espacio y espacios colapsados.
// Los Transformer de x/text no son seguros para uso concurrente: se crean por llamada.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.ReplaceAll(out, "_", " ")
	out = strings.Join(strings.Fields(out), " ")
	return cases.Fold().String(out)
}

// containsFolded indica si needle (ya normalizado) aparece en haystack (ya normalizado).
func containsFolded(haystack, needle string) bool {
	return needle != "" && strings.Contains(haystack, needle)
}
