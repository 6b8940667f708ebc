package snptools

import (
	"io"
	"strings"

	"github.com/csimplestring/go-csv/detector"
)

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in the reader, assuming a CSV-like file. If nothing can be detected,
// whitespace is assumed, which is how PLINK text files are laid out.
func DetermineDelimiter(r io.Reader) rune {
	return DetermineDelimiterAmong(r, "")
}

// DetermineDelimiterAmong is DetermineDelimiter restricted to the runes in
// allowed. An empty allowed permits anything the detector proposes.
func DetermineDelimiterAmong(r io.Reader, allowed string) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	for _, candidate := range delimiters {
		if len(candidate) == 0 {
			continue
		}
		delim := rune(candidate[0])
		if allowed == "" || strings.ContainsRune(allowed, delim) {
			return delim
		}
	}

	return ' '
}
