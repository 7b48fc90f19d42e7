package prefixdict

import (
	"github.com/c2h5oh/datasize"
	"github.com/ledgerwatch/log/v3"
	"github.com/pkg/errors"
)

// MalformedPolicy decides what happens to words with characters outside a-z.
type MalformedPolicy int

const (
	// SkipMalformed drops the word, logs a warning and records it in the
	// build report.
	SkipMalformed MalformedPolicy = iota

	// RejectMalformed fails Add with a *MalformedWordError.
	RejectMalformed
)

// Format selects the artifact layout written by Save and Write.
type Format int

const (
	// FormatFramed prefixes the streams with a preamble giving their sizes.
	FormatFramed Format = iota

	// FormatRaw writes the header stream immediately followed by the suffix
	// stream with nothing else. Readers must be given hashSizeBits.
	FormatRaw
)

const (
	// DefaultHashSizeBits gives buckets of up to 128 words.
	DefaultHashSizeBits = 7

	// DefaultMaxPrefixLen is the longest prefix a node may have by default.
	DefaultMaxPrefixLen = 16

	maxHashSizeBits = 30
)

// Config controls a Builder. The zero value is not valid; start from
// DefaultConfig.
type Config struct {
	// HashSizeBits sets the leaf count field width. A leaf holds at most
	// 2^HashSizeBits words.
	HashSizeBits uint

	// MaxPrefixLen bounds the prefix of any node.
	MaxPrefixLen int

	Malformed MalformedPolicy

	// FoldAccents maps accented Latin letters and upper case to a-z before
	// validation. Folding happens before the sort check, so the input has to
	// be sorted by its folded form.
	FoldAccents bool

	Format Format

	// Limits on the encoded streams, 0 for none.
	MaxHeaderSize datasize.ByteSize
	MaxSuffixSize datasize.ByteSize

	Logger log.Logger
}

// DefaultConfig returns buckets of up to 128 words, prefixes of up to 16
// letters, malformed words skipped and a framed artifact.
func DefaultConfig() Config {
	return Config{
		HashSizeBits: DefaultHashSizeBits,
		MaxPrefixLen: DefaultMaxPrefixLen,
		Malformed:    SkipMalformed,
		Format:       FormatFramed,
		Logger:       log.New("pkg", "prefixdict"),
	}
}

// MaxBucket is the largest number of words one leaf may hold.
func (c Config) MaxBucket() int {
	return 1 << c.HashSizeBits
}

// Validate checks the config and returns an error wrapping ErrConfig.
func (c Config) Validate() error {
	if c.HashSizeBits < 1 || c.HashSizeBits > maxHashSizeBits {
		return errors.Wrapf(ErrConfig, "HashSizeBits %d not in [1,%d]", c.HashSizeBits, maxHashSizeBits)
	}
	if c.MaxPrefixLen < 1 {
		return errors.Wrapf(ErrConfig, "MaxPrefixLen %d must be positive", c.MaxPrefixLen)
	}
	switch c.Malformed {
	case SkipMalformed, RejectMalformed:
	default:
		return errors.Wrapf(ErrConfig, "unknown malformed word policy %d", c.Malformed)
	}
	switch c.Format {
	case FormatFramed, FormatRaw:
	default:
		return errors.Wrapf(ErrConfig, "unknown format %d", c.Format)
	}
	return nil
}

func words64(limit datasize.ByteSize) int {
	return int(limit.Bytes() / 8)
}
