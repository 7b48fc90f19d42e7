package prefixdict

import (
	"io"
	"os"

	"github.com/c2h5oh/datasize"
	"github.com/ledgerwatch/log/v3"
	"github.com/pkg/errors"
)

// Warning records a word the builder dropped.
type Warning struct {
	Index  int // position of the word in the input, counting every token
	Word   string
	Reason string
}

// Report summarises what happened to the words offered to a Builder.
type Report struct {
	Tokens     int // words offered
	Added      int
	Malformed  int
	Duplicates int

	// Warnings holds the first dropped words, up to maxWarnings of them.
	Warnings []Warning
}

// Skipped returns the number of words dropped.
func (r Report) Skipped() int {
	return r.Malformed + r.Duplicates
}

const maxWarnings = 100

// Builder collects a sorted word list and encodes it. Words must be added in
// strictly increasing order; a repeated word is dropped with a warning.
type Builder struct {
	cfg      Config
	logger   log.Logger
	folder   *folder
	words    []string
	report   Report
	finished bool
	artifact *Artifact
}

// New returns a Builder for cfg.
func New(cfg Config) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New("pkg", "prefixdict")
	}
	b := &Builder{cfg: cfg, logger: cfg.Logger}
	if cfg.FoldAccents {
		b.folder = newFolder()
	}
	return b, nil
}

func (b *Builder) prepare(word string) string {
	if b.folder != nil {
		return b.folder.fold(word)
	}
	return word
}

func (b *Builder) last() string {
	if len(b.words) == 0 {
		return ""
	}
	return b.words[len(b.words)-1]
}

// CanAdd reports whether Add would store word.
func (b *Builder) CanAdd(word string) bool {
	word = b.prepare(word)
	return !b.finished && word != "" && invalidByte(word) < 0 &&
		(len(b.words) == 0 || word > b.last())
}

// Add appends a word. Malformed words are handled by the configured policy
// and repeats are dropped; both are counted in the report. A word smaller
// than its predecessor fails with ErrUnsorted.
func (b *Builder) Add(word string) error {
	if b.finished {
		return ErrFinished
	}
	index := b.report.Tokens
	b.report.Tokens++
	word = b.prepare(word)

	if pos := invalidByte(word); pos >= 0 || word == "" {
		err := &MalformedWordError{Index: index, Word: word, Pos: pos}
		if b.cfg.Malformed == RejectMalformed {
			return err
		}
		b.report.Malformed++
		b.warn(index, word, err.Error())
		return nil
	}

	if len(b.words) > 0 {
		last := b.last()
		if word == last {
			b.report.Duplicates++
			b.warn(index, word, "duplicate word")
			return nil
		}
		if word < last {
			return errors.Wrapf(ErrUnsorted, "word %d %q follows %q", index, word, last)
		}
	}

	b.words = append(b.words, word)
	b.report.Added++
	return nil
}

func (b *Builder) warn(index int, word, reason string) {
	b.logger.Warn("skipping word", "index", index, "word", word, "reason", reason)
	if len(b.report.Warnings) < maxWarnings {
		b.report.Warnings = append(b.report.Warnings, Warning{Index: index, Word: word, Reason: reason})
	}
}

// AddAll adds every word in order, stopping at the first error.
func (b *Builder) AddAll(words []string) error {
	for _, w := range words {
		if err := b.Add(w); err != nil {
			return err
		}
	}
	return nil
}

// AddFrom reads a whole word list, one word per line or separated by any
// bytes up to and including space.
func (b *Builder) AddFrom(r io.Reader) error {
	words, err := ReadWords(r)
	if err != nil {
		return err
	}
	return b.AddAll(words)
}

// Report returns the intake counts so far.
func (b *Builder) Report() Report {
	return b.report
}

// NumAdded returns the number of words stored.
func (b *Builder) NumAdded() int {
	return len(b.words)
}

// Finish encodes the words. Later calls return the same artifact; Add fails
// once Finish has been called.
func (b *Builder) Finish() (*Artifact, error) {
	if b.finished && b.artifact != nil {
		return b.artifact, nil
	}
	b.finished = true

	a, err := build(b.cfg, b.words)
	if err != nil {
		return nil, err
	}
	b.artifact = a
	b.words = nil
	return a, nil
}

// Write finishes the builder and writes the artifact in the configured
// format. It returns the number of bytes written.
func (b *Builder) Write(w io.Writer) (int64, error) {
	a, err := b.Finish()
	if err != nil {
		return 0, err
	}
	if b.cfg.Format == FormatRaw {
		return a.WriteRawTo(w)
	}
	return a.WriteTo(w)
}

// Save writes the artifact to filename.
func (b *Builder) Save(filename string) (int64, error) {
	f, err := os.Create(filename)
	if err != nil {
		return 0, errors.Wrapf(err, "prefixdict: create %s", filename)
	}
	n, err := b.Write(f)
	if err != nil {
		f.Close()
		return n, err
	}
	if err := f.Close(); err != nil {
		return n, errors.Wrapf(err, "prefixdict: close %s", filename)
	}
	return n, nil
}

func build(cfg Config, words []string) (*Artifact, error) {
	a := &Artifact{HashSizeBits: cfg.HashSizeBits}
	a.Stats.Words = len(words)
	if len(words) == 0 {
		return a, nil
	}

	p := &partitioner{
		words:     words,
		maxBucket: cfg.MaxBucket(),
		maxPrefix: cfg.MaxPrefixLen,
		logger:    cfg.Logger,
	}
	root, next, err := p.partition("", 0)
	if err != nil {
		return nil, err
	}
	if next != len(words) {
		return nil, errors.Errorf("prefixdict: partition stopped at word %d of %d", next, len(words))
	}

	hbits := headerBits(root, cfg.HashSizeBits)
	hwords := (hbits + 63) / 64
	if limit := cfg.MaxHeaderSize.Bytes(); limit > 0 && hwords*8 > limit {
		return nil, &CapacityError{Region: "header", Need: hwords * 8, Limit: limit}
	}

	var slotLimit int
	if cfg.MaxSuffixSize > 0 {
		slotLimit = words64(cfg.MaxSuffixSize)
		if slotLimit == 0 {
			slotLimit = 1
		}
	}
	s := &serializer{
		words:        words,
		hashSizeBits: cfg.HashSizeBits,
		hw:           newBitWriter(make([]uint64, hwords)),
		se:           newSuffixEncoder(slotLimit),
	}
	if err := s.write(root, 0); err != nil {
		return nil, err
	}
	slots, err := s.se.Finish()
	if err != nil {
		return nil, err
	}
	if limit := cfg.MaxSuffixSize.Bytes(); limit > 0 && uint64(len(slots))*8 > limit {
		return nil, &CapacityError{Region: "suffix stream", Need: uint64(len(slots)) * 8, Limit: limit}
	}

	a.Header = s.hw.Words()
	a.HeaderBits = s.hw.Bits()
	a.Suffix = slots
	a.SuffixDigits = s.se.digits
	a.Stats = p.stats
	a.Stats.Words = len(words)
	a.Stats.HeaderBits = a.HeaderBits
	a.Stats.SuffixDigits = a.SuffixDigits
	a.Stats.SuffixSlots = len(slots)

	cfg.Logger.Info("built dictionary",
		"words", len(words),
		"internal", a.Stats.Internal,
		"leaves", a.Stats.Leaves,
		"largestBucket", a.Stats.LargestBucket,
		"header", datasize.ByteSize(len(a.Header)*8).HumanReadable(),
		"suffixes", datasize.ByteSize(len(a.Suffix)*8).HumanReadable())
	return a, nil
}
