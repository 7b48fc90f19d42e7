package prefixdict

// Suffixes are packed as base-27 digits, 13 digits to a 64-bit slot. Letters
// a-z are digits 0-25 and digit 26 ends a word. The first digit of a slot is
// its least significant one. The stream is continuous: a word may start in
// one slot and end in the next, and a slot may hold parts of several words.
const (
	radix         = 27
	endCode       = radix - 1
	digitsPerSlot = 13
)

// slotCap is 27^13, the number of distinct values one slot can hold.
var slotCap uint64

var placeValue [digitsPerSlot]uint64

func init() {
	v := uint64(1)
	for i := range placeValue {
		placeValue[i] = v
		v *= radix
	}
	slotCap = v
}

type suffixEncoder struct {
	slots  []uint64
	acc    uint64
	mul    uint64
	digits uint64
	limit  int // maximum number of slots, 0 for none
}

func newSuffixEncoder(limit int) *suffixEncoder {
	return &suffixEncoder{mul: 1, limit: limit}
}

func (e *suffixEncoder) put(c uint8) error {
	if c > endCode {
		return ErrValueOverflow
	}
	if e.mul < slotCap {
		e.acc += uint64(c) * e.mul
		e.mul *= radix
	} else {
		if err := e.flush(); err != nil {
			return err
		}
		e.acc = uint64(c)
		e.mul = radix
	}
	e.digits++
	return nil
}

func (e *suffixEncoder) flush() error {
	if e.limit > 0 && len(e.slots) >= e.limit {
		return &CapacityError{
			Region: "suffix stream",
			Need:   uint64(len(e.slots)+1) * 8,
			Limit:  uint64(e.limit) * 8,
		}
	}
	e.slots = append(e.slots, e.acc)
	e.acc = 0
	e.mul = 1
	return nil
}

// WriteSuffix appends the letters of s followed by the end code.
func (e *suffixEncoder) WriteSuffix(s string) error {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 'a' || c > 'z' {
			return &MalformedWordError{Index: -1, Word: s, Pos: i}
		}
		if err := e.put(c - 'a'); err != nil {
			return err
		}
	}
	return e.put(endCode)
}

// Finish flushes a partially filled last slot and returns all slots.
func (e *suffixEncoder) Finish() ([]uint64, error) {
	if e.mul > 1 {
		if err := e.flush(); err != nil {
			return nil, err
		}
	}
	return e.slots, nil
}

type suffixDecoder struct {
	slots []uint64
	d     uint64 // next digit
}

func newSuffixDecoder(slots []uint64) (*suffixDecoder, error) {
	for i, s := range slots {
		if s >= slotCap {
			return nil, corrupt("suffix stream", uint64(i)*digitsPerSlot,
				"slot %d holds 0x%x, more than 13 base-27 digits", i, s)
		}
	}
	return &suffixDecoder{slots: slots}, nil
}

func (s *suffixDecoder) next() (uint8, error) {
	slot := s.d / digitsPerSlot
	if slot >= uint64(len(s.slots)) {
		return 0, corrupt("suffix stream", s.d, "stream ends inside a word")
	}
	c := s.slots[slot] / placeValue[s.d%digitsPerSlot] % radix
	s.d++
	return uint8(c), nil
}

// ReadSuffix appends the letters of the next word to buf.
func (s *suffixDecoder) ReadSuffix(buf []byte) ([]byte, error) {
	for {
		c, err := s.next()
		if err != nil {
			return buf, err
		}
		if c == endCode {
			return buf, nil
		}
		buf = append(buf, 'a'+c)
	}
}

// SkipSuffix advances past the next word.
func (s *suffixDecoder) SkipSuffix() error {
	for {
		c, err := s.next()
		if err != nil {
			return err
		}
		if c == endCode {
			return nil
		}
	}
}

func (s *suffixDecoder) Seek(digit uint64) {
	s.d = digit
}

func (s *suffixDecoder) Tell() uint64 {
	return s.d
}

// EncodeSuffixes packs words, each followed by the end code, into slots.
// The words may only contain a-z; the empty word encodes as a lone end code.
func EncodeSuffixes(words []string) ([]uint64, error) {
	e := newSuffixEncoder(0)
	for _, w := range words {
		if err := e.WriteSuffix(w); err != nil {
			return nil, err
		}
	}
	return e.Finish()
}

// DecodeSuffixes unpacks the first n words from slots.
func DecodeSuffixes(slots []uint64, n int) ([]string, error) {
	d, err := newSuffixDecoder(slots)
	if err != nil {
		return nil, err
	}
	words := make([]string, 0, n)
	var buf []byte
	for i := 0; i < n; i++ {
		buf, err = d.ReadSuffix(buf[:0])
		if err != nil {
			return words, err
		}
		words = append(words, string(buf))
	}
	return words, nil
}
