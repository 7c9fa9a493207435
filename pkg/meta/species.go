package meta

import "strings"

// FormatSpecies renders a Cameca species label such as "12C2 2H" with
// sub- and superscript markup: "{}^{12}C_{2}{}^{2}H". Atoms are separated by
// spaces; an atom holding + or - is a charge. Atoms that do not look like
// mass-element-count are skipped.
func FormatSpecies(label string) string {
	var b strings.Builder
	for _, atom := range strings.Fields(label) {
		if strings.ContainsAny(atom, "+-") {
			b.WriteString("^{" + atom + "}")
			continue
		}
		mass, elem, count, ok := splitAtom(atom)
		if !ok {
			continue
		}
		if mass != "" {
			b.WriteString("{}^{" + mass + "}")
		}
		b.WriteString(elem)
		if count != "" {
			b.WriteString("_{" + count + "}")
		}
	}
	return b.String()
}

// splitAtom splits "12C2" into "12", "C", "2". It requires exactly one run of
// letters.
func splitAtom(atom string) (mass, elem, count string, ok bool) {
	isLetter := func(c byte) bool { return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') }
	start := -1
	end := -1
	for i := 0; i < len(atom); i++ {
		if isLetter(atom[i]) {
			if start < 0 {
				start = i
			} else if end >= 0 {
				return "", "", "", false
			}
		} else if start >= 0 && end < 0 {
			end = i
		}
	}
	if start < 0 {
		return "", "", "", false
	}
	if end < 0 {
		end = len(atom)
	}
	return atom[:start], atom[start:end], atom[end:], true
}
