package prefixdict

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ScanWords is a bufio.SplitFunc for word lists: words are separated by any
// run of bytes less than or equal to a space.
func ScanWords(data []byte, atEOF bool) (int, []byte, error) {
	start := 0
	for start < len(data) && data[start] <= ' ' {
		start++
	}
	for i := start; i < len(data); i++ {
		if data[i] <= ' ' {
			return i + 1, data[start:i], nil
		}
	}
	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}

// ReadWords loads a whole word list into memory.
func ReadWords(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	scanner.Split(ScanWords)
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return words, errors.Wrap(err, "prefixdict: reading word list")
	}
	return words, nil
}

// invalidByte returns the offset of the first byte of w outside a-z, or -1.
func invalidByte(w string) int {
	for i := 0; i < len(w); i++ {
		if w[i] < 'a' || w[i] > 'z' {
			return i
		}
	}
	return -1
}

// folder strips combining marks after canonical decomposition, so "café"
// and "CAFÉ" both become "cafe".
type folder struct {
	t transform.Transformer
}

func newFolder() *folder {
	return &folder{t: transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)}
}

func (f *folder) fold(w string) string {
	out, _, err := transform.String(f.t, w)
	if err != nil {
		return w
	}
	return strings.ToLower(out)
}
