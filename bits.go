package prefixdict

// Bit streams are sequences of 64-bit words filled LSB first: the first bit
// written lands in bit 0 of word 0, and a field that does not fit in the rest
// of a word continues at bit 0 of the next one.

func widthMask(n int) uint64 {
	return ^uint64(0) >> (64 - uint(n))
}

func checkField(v uint64, n int) error {
	if n < 1 || n > 64 {
		return ErrBitWidth
	}
	if n < 64 && v>>uint(n) != 0 {
		return ErrValueOverflow
	}
	return nil
}

// bitCursor addresses an arbitrary bit position inside a fixed word buffer.
// Copying a cursor snapshots its position; the copy shares the buffer.
type bitCursor struct {
	words []uint64
	p     uint64 // position in bits from the start of words
}

func newBitCursor(words []uint64, pos uint64) bitCursor {
	return bitCursor{words: words, p: pos}
}

func (c *bitCursor) capBits() uint64 {
	return uint64(len(c.words)) * 64
}

func (c *bitCursor) roomFor(n int) error {
	if end := c.p + uint64(n); end > c.capBits() {
		return &CapacityError{
			Region: "bit stream",
			Need:   (end + 7) / 8,
			Limit:  uint64(len(c.words)) * 8,
		}
	}
	return nil
}

// OrBits merges v into the next n bits without clearing what is already
// there, then advances past them.
func (c *bitCursor) OrBits(v uint64, n int) error {
	if err := checkField(v, n); err != nil {
		return err
	}
	if err := c.roomFor(n); err != nil {
		return err
	}
	w, off := c.p>>6, uint(c.p&63)
	c.words[w] |= v << off
	if off+uint(n) > 64 {
		c.words[w+1] |= v >> (64 - off)
	}
	c.p += uint64(n)
	return nil
}

// ReplaceBits zeroes the next n bits, writes v into them and advances.
func (c *bitCursor) ReplaceBits(v uint64, n int) error {
	if err := checkField(v, n); err != nil {
		return err
	}
	if err := c.roomFor(n); err != nil {
		return err
	}
	mask := widthMask(n)
	w, off := c.p>>6, uint(c.p&63)
	c.words[w] &^= mask << off
	if off+uint(n) > 64 {
		c.words[w+1] &^= mask >> (64 - off)
	}
	return c.OrBits(v, n)
}

// ReadBits returns the next n bits and advances.
func (c *bitCursor) ReadBits(n int) (uint64, error) {
	if n < 1 || n > 64 {
		return 0, ErrBitWidth
	}
	if c.p+uint64(n) > c.capBits() {
		return 0, corrupt("bit stream", c.p, "read of %d bits past end (%d bits)", n, c.capBits())
	}
	w, off := c.p>>6, uint(c.p&63)
	v := c.words[w] >> off
	if off+uint(n) > 64 {
		v |= c.words[w+1] << (64 - off)
	}
	c.p += uint64(n)
	return v & widthMask(n), nil
}

// Rewind moves the cursor back n bits.
func (c *bitCursor) Rewind(n uint64) error {
	if n > c.p {
		return ErrRewind
	}
	c.p -= n
	return nil
}

// Seek moves the cursor to an absolute bit position.
func (c *bitCursor) Seek(pos uint64) error {
	if pos > c.capBits() {
		return corrupt("bit stream", pos, "seek past end (%d bits)", c.capBits())
	}
	c.p = pos
	return nil
}

// Tell returns the current bit position.
func (c *bitCursor) Tell() uint64 {
	return c.p
}

// bitWriter appends fields to a preallocated buffer. Writes never grow the
// buffer; running out of room is a *CapacityError.
type bitWriter struct {
	cur bitCursor
}

func newBitWriter(buf []uint64) *bitWriter {
	for i := range buf {
		buf[i] = 0
	}
	return &bitWriter{cur: newBitCursor(buf, 0)}
}

func (w *bitWriter) WriteBits(v uint64, n int) error {
	return w.cur.OrBits(v, n)
}

// Mark returns a cursor at the current write position, for patching later.
func (w *bitWriter) Mark() bitCursor {
	return w.cur
}

// Bits returns the number of bits written.
func (w *bitWriter) Bits() uint64 {
	return w.cur.p
}

// Len returns the number of words touched so far.
func (w *bitWriter) Len() int {
	return int((w.cur.p + 63) / 64)
}

// Words returns the touched part of the buffer.
func (w *bitWriter) Words() []uint64 {
	return w.cur.words[:w.Len()]
}

// bitReader consumes fields in the order a bitWriter produced them.
type bitReader struct {
	bitCursor
}

func newBitReader(words []uint64) *bitReader {
	return &bitReader{newBitCursor(words, 0)}
}

func (r *bitReader) Skip(n uint64) error {
	return r.Seek(r.p + n)
}
