package prefixdict

// Header records, in the order their fields are written:
//
//	internal: 1 (kind) | isWord (1) | child bitmap (26), bit i set for letter 'a'+i
//	leaf:     0 (kind) | isWord (1) | count-1 (hashSizeBits)
//
// The kind comes first so a reader knows the record width after one bit. The
// count is biased by one because a leaf always holds at least one word and
// may hold exactly 2^hashSizeBits of them.
const (
	kindLeaf     = 0
	kindInternal = 1
	bitmapBits   = 26
	internalBits = 2 + bitmapBits
)

func leafBits(hashSizeBits uint) uint64 {
	return uint64(hashSizeBits) + 2
}

type headerRecord struct {
	internal bool
	isWord   bool
	bitmap   uint32
	count    int
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func writeRecord(w *bitWriter, r headerRecord, hashSizeBits uint) error {
	if r.internal {
		if err := w.WriteBits(kindInternal, 1); err != nil {
			return err
		}
		if err := w.WriteBits(boolBit(r.isWord), 1); err != nil {
			return err
		}
		return w.WriteBits(uint64(r.bitmap), bitmapBits)
	}
	if r.count < 1 {
		return ErrValueOverflow
	}
	if err := w.WriteBits(kindLeaf, 1); err != nil {
		return err
	}
	if err := w.WriteBits(boolBit(r.isWord), 1); err != nil {
		return err
	}
	return w.WriteBits(uint64(r.count-1), int(hashSizeBits))
}

func readRecord(r *bitReader, hashSizeBits uint) (headerRecord, error) {
	var rec headerRecord
	at := r.Tell()
	kind, err := r.ReadBits(1)
	if err != nil {
		return rec, err
	}
	isWord, err := r.ReadBits(1)
	if err != nil {
		return rec, err
	}
	rec.isWord = isWord == 1

	if kind == kindInternal {
		bitmap, err := r.ReadBits(bitmapBits)
		if err != nil {
			return rec, err
		}
		if bitmap == 0 {
			return rec, corrupt("header", at, "internal node without children")
		}
		rec.internal = true
		rec.bitmap = uint32(bitmap)
		return rec, nil
	}

	count, err := r.ReadBits(int(hashSizeBits))
	if err != nil {
		return rec, err
	}
	rec.count = int(count) + 1
	return rec, nil
}
