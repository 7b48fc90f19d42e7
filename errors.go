package prefixdict

import (
	"errors"
	"fmt"
)

var (
	// ErrBitWidth is returned when a bit field width is outside [1,64].
	ErrBitWidth = errors.New("prefixdict: bit width out of range")

	// ErrValueOverflow is returned when a value does not fit its field width.
	ErrValueOverflow = errors.New("prefixdict: value does not fit in bit width")

	// ErrCapacity is returned when a buffer would grow past its limit.
	ErrCapacity = errors.New("prefixdict: capacity exceeded")

	// ErrRewind is returned when a cursor is moved before the first bit.
	ErrRewind = errors.New("prefixdict: rewind before start of stream")

	// ErrCorrupt is returned when an artifact cannot be decoded.
	ErrCorrupt = errors.New("prefixdict: corrupt artifact")

	// ErrUnsorted is returned when words are added out of order.
	ErrUnsorted = errors.New("prefixdict: words not in sorted order")

	// ErrMalformedWord is returned for words with characters outside a-z.
	ErrMalformedWord = errors.New("prefixdict: malformed word")

	// ErrPrefixTooLong is returned when a bucket cannot be split within the
	// configured prefix length.
	ErrPrefixTooLong = errors.New("prefixdict: prefix length limit reached")

	// ErrFinished is returned when a finished builder is modified.
	ErrFinished = errors.New("prefixdict: builder already finished")

	// ErrConfig is returned by Config.Validate.
	ErrConfig = errors.New("prefixdict: invalid config")
)

// MalformedWordError describes a word rejected because one of its bytes is
// not a lowercase letter.
type MalformedWordError struct {
	Index int // position of the word in the input, counting every token
	Word  string
	Pos   int // byte offset of the offending character
}

func (e *MalformedWordError) Error() string {
	if e.Pos < 0 || e.Pos >= len(e.Word) {
		return fmt.Sprintf("prefixdict: word %d %q is empty", e.Index, e.Word)
	}
	return fmt.Sprintf("prefixdict: word %d %q: byte 0x%02x at offset %d is not in a-z",
		e.Index, e.Word, e.Word[e.Pos], e.Pos)
}

func (e *MalformedWordError) Unwrap() error { return ErrMalformedWord }

// CapacityError reports which region outgrew its limit.
type CapacityError struct {
	Region string
	Need   uint64 // bytes
	Limit  uint64 // bytes
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("prefixdict: %s needs %d bytes, limit is %d", e.Region, e.Need, e.Limit)
}

func (e *CapacityError) Unwrap() error { return ErrCapacity }

// CorruptError locates a decoding failure.
type CorruptError struct {
	Region string
	Offset uint64
	Reason string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("prefixdict: corrupt %s at %d: %s", e.Region, e.Offset, e.Reason)
}

func (e *CorruptError) Unwrap() error { return ErrCorrupt }

func corrupt(region string, offset uint64, format string, args ...interface{}) error {
	return &CorruptError{Region: region, Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
