package prefixdict

import (
	"bytes"
	"strings"
	"testing"

	"github.com/c2h5oh/datasize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuilder(t *testing.T, cfg Config) *Builder {
	t.Helper()
	b, err := New(cfg)
	require.NoError(t, err)
	return b
}

func TestBuilderIntake(t *testing.T) {
	b := newTestBuilder(t, testConfig(4))

	require.NoError(t, b.Add("apple"))
	require.NoError(t, b.Add("apple"))
	require.NoError(t, b.Add("Banana"))
	require.NoError(t, b.Add("cherry"))
	require.NoError(t, b.Add("cherry-pie"))
	require.NoError(t, b.Add("date"))

	require.True(t, b.CanAdd("egg"))
	require.False(t, b.CanAdd("date"))
	require.False(t, b.CanAdd("Egg"))

	err := b.Add("banana")
	require.ErrorIs(t, err, ErrUnsorted)

	r := b.Report()
	assert.Equal(t, 7, r.Tokens)
	assert.Equal(t, 3, r.Added)
	assert.Equal(t, 1, r.Duplicates)
	assert.Equal(t, 2, r.Malformed)
	assert.Equal(t, 3, r.Skipped())
	require.Len(t, r.Warnings, 3)
	assert.Equal(t, Warning{Index: 1, Word: "apple", Reason: "duplicate word"}, r.Warnings[0])
	assert.Equal(t, 2, r.Warnings[1].Index)
	assert.Equal(t, "cherry-pie", r.Warnings[2].Word)

	a, err := b.Finish()
	require.NoError(t, err)
	assert.Equal(t, 3, a.NumWords())

	require.ErrorIs(t, b.Add("fig"), ErrFinished)
	again, err := b.Finish()
	require.NoError(t, err)
	assert.Same(t, a, again)
}

func TestBuilderRejectMalformed(t *testing.T) {
	cfg := testConfig(4)
	cfg.Malformed = RejectMalformed
	b := newTestBuilder(t, cfg)

	require.NoError(t, b.Add("ok"))
	err := b.Add("no1")
	var mwe *MalformedWordError
	require.ErrorAs(t, err, &mwe)
	assert.Equal(t, 1, mwe.Index)
	assert.Equal(t, 2, mwe.Pos)
	require.ErrorIs(t, err, ErrMalformedWord)
	assert.Contains(t, err.Error(), "0x31")

	require.ErrorIs(t, b.Add(""), ErrMalformedWord)
}

func TestBuilderFoldAccents(t *testing.T) {
	cfg := testConfig(4)
	cfg.FoldAccents = true
	b := newTestBuilder(t, cfg)

	require.NoError(t, b.AddAll([]string{"Café", "naïve", "NAIVE", "résumé"}))
	r := b.Report()
	assert.Equal(t, 3, r.Added)
	assert.Equal(t, 1, r.Duplicates)

	a, err := b.Finish()
	require.NoError(t, err)
	d, err := a.Dict()
	require.NoError(t, err)
	assert.Equal(t, []string{"cafe", "naive", "resume"}, d.Words())
}

func TestBuilderAddFrom(t *testing.T) {
	b := newTestBuilder(t, testConfig(4))
	input := "\n  aa\naal\r\naalii\taam aani\n\n"
	require.NoError(t, b.AddFrom(strings.NewReader(input)))
	assert.Equal(t, 5, b.NumAdded())
	assert.Equal(t, 0, b.Report().Skipped())
}

func TestBuilderConfig(t *testing.T) {
	for _, h := range []uint{0, 31} {
		_, err := New(testConfig(h))
		require.ErrorIs(t, err, ErrConfig)
	}
	cfg := testConfig(4)
	cfg.MaxPrefixLen = 0
	_, err := New(cfg)
	require.ErrorIs(t, err, ErrConfig)

	cfg = testConfig(4)
	cfg.Logger = nil
	b, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, b.logger)
}

func TestBuilderCapacity(t *testing.T) {
	words := enumerateWords("abcd", 5)

	cfg := testConfig(2)
	cfg.MaxHeaderSize = 8 * datasize.B
	b := newTestBuilder(t, cfg)
	require.NoError(t, b.AddAll(words))
	_, err := b.Finish()
	var ce *CapacityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "header", ce.Region)
	assert.Equal(t, uint64(8), ce.Limit)

	cfg = testConfig(2)
	cfg.MaxSuffixSize = 64 * datasize.B
	b = newTestBuilder(t, cfg)
	require.NoError(t, b.AddAll(words))
	_, err = b.Finish()
	require.ErrorIs(t, err, ErrCapacity)
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "suffix stream", ce.Region)

	cfg.MaxSuffixSize = datasize.MB
	cfg.MaxHeaderSize = datasize.MB
	b = newTestBuilder(t, cfg)
	require.NoError(t, b.AddAll(words))
	_, err = b.Finish()
	require.NoError(t, err)
}

func TestBuilderDeterministic(t *testing.T) {
	words := randomWords(3, 4000, "abcdefghijklmnopqrstuvwxyz", 10)

	encode := func(format Format) []byte {
		cfg := testConfig(5)
		cfg.Format = format
		b := newTestBuilder(t, cfg)
		require.NoError(t, b.AddAll(words))
		var buf bytes.Buffer
		n, err := b.Write(&buf)
		require.NoError(t, err)
		require.Equal(t, int64(buf.Len()), n)
		return buf.Bytes()
	}

	first := encode(FormatFramed)
	require.Equal(t, first, encode(FormatFramed))
	raw := encode(FormatRaw)
	require.Equal(t, raw, encode(FormatRaw))
	require.Equal(t, first[preambleSize:], raw)
}

func TestBuilderStats(t *testing.T) {
	words := enumerateWords("abc", 4)
	b := newTestBuilder(t, testConfig(2))
	require.NoError(t, b.AddAll(words))
	a, err := b.Finish()
	require.NoError(t, err)

	s := a.Stats
	assert.Equal(t, len(words), s.Words)
	assert.Equal(t, s.Words, s.BucketWords+s.ExactWords)
	assert.LessOrEqual(t, s.LargestBucket, 4)
	assert.Equal(t, a.HeaderBits, uint64(s.Internal)*internalBits+uint64(s.Leaves)*leafBits(2))
	assert.Equal(t, len(a.Suffix), s.SuffixSlots)
	assert.Equal(t, (a.SuffixDigits+digitsPerSlot-1)/digitsPerSlot, uint64(len(a.Suffix)))
}

func TestBuilderEmpty(t *testing.T) {
	b := newTestBuilder(t, testConfig(4))
	a, err := b.Finish()
	require.NoError(t, err)
	assert.Zero(t, a.NumWords())
	assert.Empty(t, a.Header)
	assert.Empty(t, a.Suffix)
	assert.Equal(t, int64(preambleSize), a.Size())
}
