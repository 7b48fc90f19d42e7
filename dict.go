package prefixdict

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/exp/slices"
)

// FindResult is the result of a lookup in the Dict. It contains both the
// word found and its index in sorted order.
type FindResult struct {
	Word  string
	Index int
}

// EnumFn is called by Enumerate for every word in order.
type EnumFn = func(index int, word string) EnumerationResult

// EnumerationResult is returned by the enumeration function to indicate
// whether enumeration should continue.
type EnumerationResult = int

const (
	// Continue enumerating words
	Continue EnumerationResult = iota

	// Skip will skip all words with this word as a prefix
	Skip

	// Stop will immediately stop enumerating words
	Stop
)

// Finder is the query side of a dictionary.
type Finder interface {
	Contains(word string) bool
	IndexOf(word string) int
	WordAt(index int) (string, bool)
	FindAllPrefixesOf(input string) []FindResult
	Enumerate(fn EnumFn) error
	NumWords() int
	NumNodes() int
	Dump(w io.Writer) error
}

var _ Finder = (*Dict)(nil)

// maxTreeDepth bounds header recursion when decoding untrusted input.
const maxTreeDepth = 1 << 10

type dictNode struct {
	parent   int32
	letter   byte
	depth    int
	isWord   bool
	leaf     bool
	count    int    // leaf: words in the bucket
	first    int    // index of the node's first word
	digit    uint64 // leaf: first digit of the bucket in the suffix stream
	bit      uint64 // header offset of the record
	children [26]int32
}

// span maps a range of word indexes to the node holding them.
type span struct {
	first int
	count int
	node  int32
}

// Dict is a decoded dictionary. It keeps the suffix stream packed and
// decodes one bucket per query.
type Dict struct {
	hashSizeBits uint
	header       []uint64
	headerBits   uint64
	suffix       []uint64
	numWords     int
	nodes        []dictNode
	index        []span
}

// newDict decodes the header against the suffix stream. numWords and
// suffixDigits are -1 when the artifact does not record them.
func newDict(hashSizeBits uint, header []uint64, headerBits uint64, suffix []uint64, numWords int, suffixDigits int64) (*Dict, error) {
	d := &Dict{
		hashSizeBits: hashSizeBits,
		header:       header,
		headerBits:   headerBits,
		suffix:       suffix,
	}
	if len(header) == 0 {
		if numWords > 0 || len(suffix) > 0 || suffixDigits > 0 {
			return nil, corrupt("header", 0, "empty header with %d suffix slots", len(suffix))
		}
		return d, nil
	}

	dec, err := newSuffixDecoder(suffix)
	if err != nil {
		return nil, err
	}
	l := &loader{d: d, r: newBitReader(header), dec: dec}
	if _, err := l.load(-1, 0, 0); err != nil {
		return nil, err
	}

	used := l.r.Tell()
	if headerBits == 0 {
		d.headerBits = used
	} else if used != headerBits {
		return nil, corrupt("header", used, "records end at bit %d, expected %d", used, headerBits)
	}
	if (used+63)/64 != uint64(len(header)) {
		return nil, corrupt("header", used, "%d trailing header words", uint64(len(header))-(used+63)/64)
	}
	if numWords >= 0 && d.numWords != numWords {
		return nil, corrupt("header", 0, "holds %d words, expected %d", d.numWords, numWords)
	}

	digits := l.dec.Tell()
	if suffixDigits >= 0 && digits != uint64(suffixDigits) {
		return nil, corrupt("suffix stream", digits, "buckets use %d digits, expected %d", digits, suffixDigits)
	}
	if slots := (digits + digitsPerSlot - 1) / digitsPerSlot; slots != uint64(len(suffix)) {
		return nil, corrupt("suffix stream", digits, "%d digits fill %d slots, stream has %d", digits, slots, len(suffix))
	}
	return d, nil
}

type loader struct {
	d   *Dict
	r   *bitReader
	dec *suffixDecoder
}

func (l *loader) load(parent int32, letter byte, depth int) (int32, error) {
	if depth > maxTreeDepth {
		return 0, corrupt("header", l.r.Tell(), "trie deeper than %d", maxTreeDepth)
	}
	at := l.r.Tell()
	rec, err := readRecord(l.r, l.d.hashSizeBits)
	if err != nil {
		return 0, err
	}

	d := l.d
	idx := int32(len(d.nodes))
	n := dictNode{
		parent: parent,
		letter: letter,
		depth:  depth,
		isWord: rec.isWord,
		leaf:   !rec.internal,
		first:  d.numWords,
		bit:    at,
	}
	for i := range n.children {
		n.children[i] = -1
	}

	if n.leaf {
		n.count = rec.count
		n.digit = l.dec.Tell()
		for i := 0; i < n.count; i++ {
			start := l.dec.Tell()
			if err := l.dec.SkipSuffix(); err != nil {
				return 0, err
			}
			if i == 0 && n.isWord != (l.dec.Tell()-start == 1) {
				return 0, corrupt("suffix stream", start, "bucket at header bit %d disagrees with its isWord flag", at)
			}
		}
		d.nodes = append(d.nodes, n)
		d.index = append(d.index, span{first: n.first, count: n.count, node: idx})
		d.numWords += n.count
		return idx, nil
	}

	d.nodes = append(d.nodes, n)
	if n.isWord {
		d.index = append(d.index, span{first: n.first, count: 1, node: idx})
		d.numWords++
	}
	for _, c := range bitmapLetters(rec.bitmap) {
		child, err := l.load(idx, c, depth+1)
		if err != nil {
			return 0, err
		}
		d.nodes[idx].children[c-'a'] = child
	}
	return idx, nil
}

func (d *Dict) prefix(idx int32) []byte {
	n := &d.nodes[idx]
	p := make([]byte, n.depth)
	for i := n.depth - 1; i >= 0; i-- {
		p[i] = n.letter
		n = &d.nodes[n.parent]
	}
	return p
}

func (d *Dict) decoder(digit uint64) *suffixDecoder {
	dec := &suffixDecoder{slots: d.suffix}
	dec.Seek(digit)
	return dec
}

// find walks the trie along word and returns the deepest node reached and
// its depth.
func (d *Dict) find(word string) (int32, int, bool) {
	if len(d.nodes) == 0 {
		return 0, 0, false
	}
	var idx int32
	depth := 0
	for !d.nodes[idx].leaf {
		if depth == len(word) {
			return idx, depth, true
		}
		c := word[depth]
		if c < 'a' || c > 'z' {
			return 0, 0, false
		}
		child := d.nodes[idx].children[c-'a']
		if child < 0 {
			return 0, 0, false
		}
		idx = child
		depth++
	}
	return idx, depth, true
}

// IndexOf returns the index of word in sorted order, or -1 if it is not in
// the dictionary.
func (d *Dict) IndexOf(word string) int {
	idx, depth, ok := d.find(word)
	if !ok {
		return -1
	}
	n := &d.nodes[idx]
	if !n.leaf {
		if n.isWord {
			return n.first
		}
		return -1
	}

	rest := word[depth:]
	dec := d.decoder(n.digit)
	var buf []byte
	var err error
	for i := 0; i < n.count; i++ {
		if buf, err = dec.ReadSuffix(buf[:0]); err != nil {
			return -1
		}
		switch strings.Compare(string(buf), rest) {
		case 0:
			return n.first + i
		case 1:
			return -1
		}
	}
	return -1
}

// Contains reports whether word is in the dictionary.
func (d *Dict) Contains(word string) bool {
	return d.IndexOf(word) >= 0
}

// WordAt returns the word with the given index.
func (d *Dict) WordAt(index int) (string, bool) {
	if index < 0 || index >= d.numWords {
		return "", false
	}
	pos, found := slices.BinarySearchFunc(d.index, index, func(s span, target int) int {
		return s.first - target
	})
	if !found {
		pos--
	}
	s := d.index[pos]
	word := d.prefix(s.node)
	n := &d.nodes[s.node]
	if !n.leaf {
		return string(word), true
	}

	dec := d.decoder(n.digit)
	for i := s.first; i < index; i++ {
		if err := dec.SkipSuffix(); err != nil {
			return "", false
		}
	}
	word, err := dec.ReadSuffix(word)
	if err != nil {
		return "", false
	}
	return string(word), true
}

// FindAllPrefixesOf returns all words in the dictionary that are a prefix of
// the input string, shortest first.
func (d *Dict) FindAllPrefixesOf(input string) []FindResult {
	var results []FindResult
	if len(d.nodes) == 0 {
		return nil
	}

	var idx int32
	depth := 0
	for !d.nodes[idx].leaf {
		n := &d.nodes[idx]
		if n.isWord {
			results = append(results, FindResult{Word: input[:depth], Index: n.first})
		}
		if depth == len(input) {
			return results
		}
		c := input[depth]
		if c < 'a' || c > 'z' || n.children[c-'a'] < 0 {
			return results
		}
		idx = n.children[c-'a']
		depth++
	}

	n := &d.nodes[idx]
	rest := input[depth:]
	dec := d.decoder(n.digit)
	var buf []byte
	var err error
	for i := 0; i < n.count; i++ {
		if buf, err = dec.ReadSuffix(buf[:0]); err != nil {
			break
		}
		s := string(buf)
		if s > rest {
			break
		}
		if strings.HasPrefix(rest, s) {
			results = append(results, FindResult{Word: input[:depth+len(s)], Index: n.first + i})
		}
	}
	return results
}

// Enumerate calls fn for every word in sorted order.
func (d *Dict) Enumerate(fn EnumFn) error {
	if len(d.nodes) == 0 {
		return nil
	}
	_, err := d.enumerate(0, nil, fn)
	return err
}

func (d *Dict) enumerate(idx int32, word []byte, fn EnumFn) (EnumerationResult, error) {
	n := &d.nodes[idx]
	if n.leaf {
		dec := d.decoder(n.digit)
		l := len(word)
		var skip string
		var skipping bool
		var err error
		for i := 0; i < n.count; i++ {
			if word, err = dec.ReadSuffix(word[:l]); err != nil {
				return Stop, err
			}
			w := string(word)
			if skipping && strings.HasPrefix(w, skip) {
				continue
			}
			skipping = false
			switch fn(n.first+i, w) {
			case Skip:
				skip, skipping = w, true
			case Stop:
				return Stop, nil
			}
		}
		return Continue, nil
	}

	if n.isWord {
		switch fn(n.first, string(word)) {
		case Skip:
			return Continue, nil
		case Stop:
			return Stop, nil
		}
	}

	l := len(word)
	word = append(word, 0)
	for c, child := range n.children {
		if child < 0 {
			continue
		}
		word[l] = 'a' + byte(c)
		result, err := d.enumerate(child, word[:l+1], fn)
		if err != nil || result == Stop {
			return Stop, err
		}
	}
	return Continue, nil
}

// Words returns every word in sorted order.
func (d *Dict) Words() []string {
	words := make([]string, 0, d.numWords)
	d.Enumerate(func(_ int, word string) EnumerationResult {
		words = append(words, word)
		return Continue
	})
	return words
}

// NumWords returns the number of words in the dictionary.
func (d *Dict) NumWords() int {
	return d.numWords
}

// NumNodes returns the number of header records.
func (d *Dict) NumNodes() int {
	return len(d.nodes)
}

// NumLeaves returns the number of buckets.
func (d *Dict) NumLeaves() int {
	n := 0
	for i := range d.nodes {
		if d.nodes[i].leaf {
			n++
		}
	}
	return n
}

// HashSizeBits returns the leaf count field width the dictionary was built
// with.
func (d *Dict) HashSizeBits() uint {
	return d.hashSizeBits
}

// Dump prints every header record with its bit offset, followed by the
// bucket words of each leaf.
func (d *Dict) Dump(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "words=%d nodes=%d hashSizeBits=%d header=%d bits suffixes=%d slots\n",
		d.numWords, len(d.nodes), d.hashSizeBits, d.headerBits, len(d.suffix)); err != nil {
		return err
	}
	for i := range d.nodes {
		n := &d.nodes[i]
		prefix := d.prefix(int32(i))
		if !n.leaf {
			var next []byte
			for c, child := range n.children {
				if child >= 0 {
					next = append(next, 'a'+byte(c))
				}
			}
			if _, err := fmt.Fprintf(w, "[%08x] internal %q word=%v next=%s\n", n.bit, prefix, n.isWord, next); err != nil {
				return err
			}
			continue
		}

		if _, err := fmt.Fprintf(w, "[%08x] leaf %q word=%v count=%d digit=%d\n", n.bit, prefix, n.isWord, n.count, n.digit); err != nil {
			return err
		}
		dec := d.decoder(n.digit)
		var buf []byte
		var err error
		for j := 0; j < n.count; j++ {
			if buf, err = dec.ReadSuffix(buf[:0]); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "           %d %s|%s\n", n.first+j, prefix, buf); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close releases the dictionary. A Dict holds no file handles, so Close only
// drops its buffers; afterwards it behaves as an empty dictionary.
func (d *Dict) Close() error {
	d.header, d.suffix, d.nodes, d.index = nil, nil, nil, nil
	d.numWords, d.headerBits = 0, 0
	return nil
}
