package markup

import "regexp"

var (
	pauseTagRe = regexp.MustCompile(`<break\b[^<>]*/?>`)
	anyTagRe   = regexp.MustCompile(`</?[^<>]*>`)
)

// StripTags removes tag syntax from s with iterated substitution,
// replacing pause tags with a single space first. It runs to a fixed
// point so nested and overlapping tag shapes cannot leave residue. The
// tree-based Text covers normal documents; this is the sweep for
// fragments the scanner left as literal text.
func StripTags(s string) string {
	s = pauseTagRe.ReplaceAllString(s, " ")
	for {
		next := anyTagRe.ReplaceAllString(s, "")
		if next == s {
			return s
		}
		s = next
	}
}
