package prefixdict

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
)

/* FILE FORMAT (framed)

All integers little endian.

- 4 bytes: magic "PXDC"
- 1 byte: format version (1)
- 1 byte: hashSizeBits
- 2 bytes: flags, zero
- uint64: number of words
- uint64: header stream length in bits
- uint64: header stream length in 64-bit words
- uint64: suffix stream length in base-27 digits
- uint64: suffix stream length in 64-bit words
- header words
- suffix words

The raw format is the last two regions alone. A raw reader finds the end of
the header by walking its records, which needs hashSizeBits.
*/

const (
	magic         = "PXDC"
	formatVersion = 1
	preambleSize  = 48
)

// Artifact is an encoded dictionary: the header bit stream describing the
// trie and the packed suffix stream holding the bucket words.
type Artifact struct {
	HashSizeBits uint
	Header       []uint64
	HeaderBits   uint64
	Suffix       []uint64
	SuffixDigits uint64
	Stats        Stats
}

// NumWords returns the number of words encoded.
func (a *Artifact) NumWords() int {
	return a.Stats.Words
}

// Size returns the length of the framed encoding in bytes.
func (a *Artifact) Size() int64 {
	return preambleSize + a.RawSize()
}

// RawSize returns the length of the raw encoding in bytes.
func (a *Artifact) RawSize() int64 {
	return int64(len(a.Header)+len(a.Suffix)) * 8
}

func (a *Artifact) preamble() []byte {
	p := make([]byte, preambleSize)
	copy(p, magic)
	p[4] = formatVersion
	p[5] = byte(a.HashSizeBits)
	binary.LittleEndian.PutUint64(p[8:], uint64(a.NumWords()))
	binary.LittleEndian.PutUint64(p[16:], a.HeaderBits)
	binary.LittleEndian.PutUint64(p[24:], uint64(len(a.Header)))
	binary.LittleEndian.PutUint64(p[32:], a.SuffixDigits)
	binary.LittleEndian.PutUint64(p[40:], uint64(len(a.Suffix)))
	return p
}

func writeWords(w io.Writer, words []uint64) (int64, error) {
	buf := make([]byte, 8*len(words))
	for i, v := range words {
		binary.LittleEndian.PutUint64(buf[8*i:], v)
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// WriteTo writes the framed encoding.
func (a *Artifact) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(a.preamble())
	if err != nil {
		return int64(n), errors.Wrap(err, "prefixdict: writing preamble")
	}
	m, err := a.WriteRawTo(w)
	return int64(n) + m, err
}

// WriteRawTo writes the header words immediately followed by the suffix
// words.
func (a *Artifact) WriteRawTo(w io.Writer) (int64, error) {
	n, err := writeWords(w, a.Header)
	if err != nil {
		return n, errors.Wrap(err, "prefixdict: writing header")
	}
	m, err := writeWords(w, a.Suffix)
	if err != nil {
		return n + m, errors.Wrap(err, "prefixdict: writing suffixes")
	}
	return n + m, nil
}

// Dict decodes the artifact in memory.
func (a *Artifact) Dict() (*Dict, error) {
	return newDict(a.HashSizeBits, a.Header, a.HeaderBits, a.Suffix, a.NumWords(), int64(a.SuffixDigits))
}

func readWords(r io.ReaderAt, offset int64, n uint64) ([]uint64, error) {
	words := make([]uint64, n)
	if n == 0 {
		return words, nil
	}
	buf := make([]byte, 8*n)
	if m, err := r.ReadAt(buf, offset); m < len(buf) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, errors.Wrapf(err, "prefixdict: reading %d words at %d", n, offset)
	}
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(buf[8*i:])
	}
	return words, nil
}

// Read decodes a framed artifact of the given size from r.
func Read(r io.ReaderAt, size int64) (*Dict, error) {
	if size < preambleSize {
		return nil, corrupt("preamble", 0, "artifact is %d bytes", size)
	}
	p := make([]byte, preambleSize)
	if _, err := r.ReadAt(p, 0); err != nil {
		return nil, errors.Wrap(err, "prefixdict: reading preamble")
	}
	if string(p[:4]) != magic {
		return nil, corrupt("preamble", 0, "bad magic %q", p[:4])
	}
	if p[4] != formatVersion {
		return nil, corrupt("preamble", 4, "unsupported version %d", p[4])
	}
	hashSizeBits := uint(p[5])
	if hashSizeBits < 1 || hashSizeBits > maxHashSizeBits {
		return nil, corrupt("preamble", 5, "hashSizeBits %d out of range", hashSizeBits)
	}
	numWords := binary.LittleEndian.Uint64(p[8:])
	headerBits := binary.LittleEndian.Uint64(p[16:])
	headerWords := binary.LittleEndian.Uint64(p[24:])
	suffixDigits := binary.LittleEndian.Uint64(p[32:])
	suffixWords := binary.LittleEndian.Uint64(p[40:])

	body := uint64(size - preambleSize)
	if headerWords > body/8 || suffixWords > body/8 || (headerWords+suffixWords)*8 != body {
		return nil, corrupt("preamble", 24, "stream sizes %d+%d words do not match %d bytes",
			headerWords, suffixWords, body)
	}
	if (headerBits+63)/64 != headerWords {
		return nil, corrupt("preamble", 16, "%d header bits in %d words", headerBits, headerWords)
	}
	if suffixDigits > suffixWords*digitsPerSlot {
		return nil, corrupt("preamble", 32, "%d digits in %d slots", suffixDigits, suffixWords)
	}
	if numWords > suffixDigits {
		return nil, corrupt("preamble", 8, "%d words but %d digits", numWords, suffixDigits)
	}

	header, err := readWords(r, preambleSize, headerWords)
	if err != nil {
		return nil, err
	}
	suffix, err := readWords(r, preambleSize+int64(headerWords)*8, suffixWords)
	if err != nil {
		return nil, err
	}
	return newDict(hashSizeBits, header, headerBits, suffix, int(numWords), int64(suffixDigits))
}

// ReadRaw decodes a raw artifact. hashSizeBits must match the builder's.
func ReadRaw(r io.ReaderAt, size int64, hashSizeBits uint) (*Dict, error) {
	if hashSizeBits < 1 || hashSizeBits > maxHashSizeBits {
		return nil, errors.Wrapf(ErrConfig, "hashSizeBits %d not in [1,%d]", hashSizeBits, maxHashSizeBits)
	}
	if size%8 != 0 {
		return nil, corrupt("artifact", uint64(size), "length is not a multiple of 8")
	}
	all, err := readWords(r, 0, uint64(size/8))
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return newDict(hashSizeBits, nil, 0, nil, 0, 0)
	}

	hr := newBitReader(all)
	if err := skipTree(hr, hashSizeBits, 0); err != nil {
		return nil, err
	}
	hbits := hr.Tell()
	hwords := (hbits + 63) / 64
	return newDict(hashSizeBits, all[:hwords], hbits, all[hwords:], -1, -1)
}

// skipTree reads one subtree of header records without keeping it.
func skipTree(r *bitReader, hashSizeBits uint, depth int) error {
	if depth > maxTreeDepth {
		return corrupt("header", r.Tell(), "trie deeper than %d", maxTreeDepth)
	}
	rec, err := readRecord(r, hashSizeBits)
	if err != nil {
		return err
	}
	for m := rec.bitmap; m != 0; m &= m - 1 {
		if err := skipTree(r, hashSizeBits, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Load opens a framed artifact from disk.
func Load(filename string) (*Dict, error) {
	f, err := mmap.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "prefixdict: open %s", filename)
	}
	defer f.Close()

	return Read(f, int64(f.Len()))
}

// LoadRaw opens a raw artifact from disk.
func LoadRaw(filename string, hashSizeBits uint) (*Dict, error) {
	f, err := mmap.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "prefixdict: open %s", filename)
	}
	defer f.Close()

	return ReadRaw(f, int64(f.Len()), hashSizeBits)
}

// DumpSuffixes prints every slot of a suffix stream with its 13 digits as
// letters, '/' marking the end of a word.
func DumpSuffixes(w io.Writer, slots []uint64) error {
	digits := make([]byte, digitsPerSlot)
	for i, s := range slots {
		v := s
		for j := range digits {
			c := byte(v % radix)
			v /= radix
			if c == endCode {
				digits[j] = '/'
			} else {
				digits[j] = 'a' + c
			}
		}
		mark := ""
		if s >= slotCap {
			mark = " (overflow)"
		}
		if _, err := fmt.Fprintf(w, "[%08x] 0x%016x %s%s\n", i, s, digits, mark); err != nil {
			return err
		}
	}
	return nil
}

// ReadSuffixFile loads a bare suffix stream, as the minimal debug format
// stores it, from filename.
func ReadSuffixFile(filename string) ([]uint64, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "prefixdict: read %s", filename)
	}
	slots := make([]uint64, (len(data)+7)/8)
	for i := range slots {
		var b [8]byte
		copy(b[:], data[8*i:])
		slots[i] = binary.LittleEndian.Uint64(b[:])
	}
	return slots, nil
}
