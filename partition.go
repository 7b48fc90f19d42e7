package prefixdict

import (
	"math/bits"
	"strings"

	"github.com/ledgerwatch/log/v3"
	"github.com/pkg/errors"
)

// node is one record of the prefix trie, held in memory until the whole
// tree is known so it can be written in a single forward pass.
type node struct {
	letter   byte // last letter of the node's prefix, 0 for the root
	isWord   bool // the prefix itself is a word
	leaf     bool
	count    int // leaf: number of words in the bucket
	first    int // leaf: index of the first bucket word
	children []*node
}

func (n *node) bitmap() uint32 {
	var m uint32
	for _, c := range n.children {
		m |= 1 << (c.letter - 'a')
	}
	return m
}

func (n *node) record() headerRecord {
	if n.leaf {
		return headerRecord{isWord: n.isWord, count: n.count}
	}
	return headerRecord{internal: true, isWord: n.isWord, bitmap: n.bitmap()}
}

// Stats describes the shape of a built dictionary.
type Stats struct {
	Words         int    // words stored
	Internal      int    // internal header records
	Leaves        int    // leaf header records
	ExactWords    int    // words held only by an internal node's isWord flag
	BucketWords   int    // words held in leaf buckets
	LargestBucket int    // most words in any one leaf
	MaxDepth      int    // longest prefix of any node
	HeaderBits    uint64 // size of the header stream in bits
	SuffixDigits  uint64 // base-27 digits in the suffix stream
	SuffixSlots   int    // 64-bit slots in the suffix stream
}

// partitioner carves a sorted word list into buckets of at most maxBucket
// words. The scan position is passed in and returned explicitly, so sibling
// calls never share a cursor.
type partitioner struct {
	words     []string
	maxBucket int
	maxPrefix int
	logger    log.Logger
	stats     Stats
}

// countPrefix counts words starting at pos that share prefix, stopping once
// the count passes maxBucket.
func (p *partitioner) countPrefix(prefix string, pos int) int {
	n := 0
	for i := pos; i < len(p.words) && n <= p.maxBucket; i++ {
		if !strings.HasPrefix(p.words[i], prefix) {
			break
		}
		n++
	}
	return n
}

// partition builds the subtree for prefix. words[pos] must be the first word
// carrying the prefix. It returns the subtree and the position of the first
// word past it.
func (p *partitioner) partition(prefix string, pos int) (*node, int, error) {
	n := &node{}
	if len(prefix) > 0 {
		n.letter = prefix[len(prefix)-1]
	}
	if len(prefix) > p.stats.MaxDepth {
		p.stats.MaxDepth = len(prefix)
	}

	count := p.countPrefix(prefix, pos)
	if count <= p.maxBucket {
		n.leaf = true
		n.count = count
		n.first = pos
		n.isWord = p.words[pos] == prefix
		p.stats.Leaves++
		p.stats.BucketWords += count
		if count > p.stats.LargestBucket {
			p.stats.LargestBucket = count
		}
		p.logger.Trace("bucket", "prefix", prefix, "count", count)
		return n, pos + count, nil
	}

	if len(prefix) >= p.maxPrefix {
		return nil, pos, errors.Wrapf(ErrPrefixTooLong,
			"%q is shared by more than %d words", prefix, p.maxBucket)
	}

	p.stats.Internal++
	i := pos
	if p.words[i] == prefix {
		n.isWord = true
		p.stats.ExactWords++
		i++
	}
	for i < len(p.words) && strings.HasPrefix(p.words[i], prefix) {
		child, next, err := p.partition(p.words[i][:len(prefix)+1], i)
		if err != nil {
			return nil, pos, err
		}
		n.children = append(n.children, child)
		i = next
	}
	return n, i, nil
}

// headerBits returns the exact size of the subtree's header records.
func headerBits(n *node, hashSizeBits uint) uint64 {
	if n.leaf {
		return leafBits(hashSizeBits)
	}
	size := uint64(internalBits)
	for _, c := range n.children {
		size += headerBits(c, hashSizeBits)
	}
	return size
}

// serializer writes a finished tree: header records in preorder to hw and
// each bucket's words, stripped of the bucket prefix, to se.
type serializer struct {
	words        []string
	hashSizeBits uint
	hw           *bitWriter
	se           *suffixEncoder
}

func (s *serializer) write(n *node, depth int) error {
	if err := writeRecord(s.hw, n.record(), s.hashSizeBits); err != nil {
		return err
	}
	if n.leaf {
		for _, w := range s.words[n.first : n.first+n.count] {
			if err := s.se.WriteSuffix(w[depth:]); err != nil {
				return err
			}
		}
		return nil
	}
	for _, c := range n.children {
		if err := s.write(c, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func bitmapLetters(m uint32) []byte {
	letters := make([]byte, 0, bits.OnesCount32(m))
	for m != 0 {
		i := bits.TrailingZeros32(m)
		letters = append(letters, 'a'+byte(i))
		m &^= 1 << uint(i)
	}
	return letters
}
