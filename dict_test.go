package prefixdict

import (
	"bufio"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slices"
)

func openDict(t *testing.T, hashSizeBits uint, words []string) *Dict {
	t.Helper()
	d, err := buildArtifact(t, testConfig(hashSizeBits), words).Dict()
	require.NoError(t, err)
	return d
}

func testLookups(t *testing.T, d *Dict, words []string) {
	t.Helper()
	require.Equal(t, len(words), d.NumWords())
	for i, w := range words {
		if got := d.IndexOf(w); got != i {
			t.Fatalf("IndexOf(%q) = %d, want %d", w, got, i)
		}
		got, ok := d.WordAt(i)
		if !ok || got != w {
			t.Fatalf("WordAt(%d) = %q, %v, want %q", i, got, ok, w)
		}
	}
}

func TestDictLookups(t *testing.T) {
	lists := map[string][]string{
		"aa":         aaWords,
		"enumerated": enumerateWords("abcd", 5),
		"random":     randomWords(5, 5000, "abcdefghijklmnopqrstuvwxyz", 14),
		"single":     {"a"},
	}
	for name, words := range lists {
		for _, h := range []uint{1, 2, 4, 7, 12} {
			t.Run(name, func(t *testing.T) {
				testLookups(t, openDict(t, h, words), words)
			})
		}
	}
}

func TestDictMisses(t *testing.T) {
	d := openDict(t, 2, aaWords)
	for _, w := range []string{"", "a", "aab", "aali", "aardvarks", "aaronitica", "b", "zzz", "aa-", "AA"} {
		assert.False(t, d.Contains(w), w)
		assert.Equal(t, -1, d.IndexOf(w), w)
	}
	_, ok := d.WordAt(-1)
	assert.False(t, ok)
	_, ok = d.WordAt(len(aaWords))
	assert.False(t, ok)
}

func TestDictEndToEnd(t *testing.T) {
	// everything lands in one bucket under the root
	d := openDict(t, 4, aaWords)
	require.Equal(t, 1, d.NumNodes())
	require.Equal(t, 1, d.NumLeaves())
	require.Equal(t, aaWords, d.Words())

	d = openDict(t, 1, aaWords)
	require.Greater(t, d.NumLeaves(), 1)
	require.Equal(t, aaWords, d.Words())
}

func TestFindAllPrefixesOf(t *testing.T) {
	words := []string{"blip", "cat", "catnip", "cats", "catsup", "dog"}
	for _, h := range []uint{1, 2, 4} {
		d := openDict(t, h, words)
		assert.Equal(t, []FindResult{
			{Word: "cat", Index: 1},
			{Word: "cats", Index: 3},
			{Word: "catsup", Index: 4},
		}, d.FindAllPrefixesOf("catsups"), "h=%d", h)
		assert.Empty(t, d.FindAllPrefixesOf("ca"))
		assert.Empty(t, d.FindAllPrefixesOf("zebra"))
	}

	d := openDict(t, 1, aaWords)
	assert.Equal(t, []FindResult{
		{Word: "aa", Index: 0},
		{Word: "aaronitic", Index: 10},
	}, d.FindAllPrefixesOf("aaronitics"))
}

func TestEnumerate(t *testing.T) {
	words := enumerateWords("abc", 3)
	d := openDict(t, 1, words)

	var got []string
	require.NoError(t, d.Enumerate(func(index int, word string) EnumerationResult {
		assert.Equal(t, words[index], word)
		got = append(got, word)
		if len(got) == 5 {
			return Stop
		}
		return Continue
	}))
	assert.Equal(t, words[:5], got)

	// skipping at "b" drops its whole subtree
	got = got[:0]
	require.NoError(t, d.Enumerate(func(index int, word string) EnumerationResult {
		got = append(got, word)
		if word == "b" {
			return Skip
		}
		return Continue
	}))
	assert.Contains(t, got, "b")
	assert.Contains(t, got, "c")
	assert.NotContains(t, got, "ba")
	assert.NotContains(t, got, "bcc")
}

func TestEnumerateSkipInBucket(t *testing.T) {
	words := []string{"blip", "cat", "catnip", "cats", "dog"}
	for _, h := range []uint{1, 2, 4} {
		d := openDict(t, h, words)

		var got []string
		require.NoError(t, d.Enumerate(func(index int, word string) EnumerationResult {
			got = append(got, word)
			if word == "blip" || word == "cat" {
				return Skip
			}
			return Continue
		}))
		assert.Equal(t, []string{"blip", "cat", "dog"}, got, "h=%d", h)
	}

	// one bucket holds every word
	d := openDict(t, 4, words)
	require.Equal(t, 1, d.NumLeaves())
	var got []string
	require.NoError(t, d.Enumerate(func(index int, word string) EnumerationResult {
		assert.Equal(t, words[index], word)
		got = append(got, word)
		if word == "catnip" {
			return Skip
		}
		return Continue
	}))
	assert.Equal(t, words, got)
}

func TestDictClose(t *testing.T) {
	d := openDict(t, 2, aaWords)
	require.NoError(t, d.Close())
	assert.Zero(t, d.NumWords())
	assert.Zero(t, d.NumNodes())
	_, ok := d.WordAt(0)
	assert.False(t, ok)
	assert.False(t, d.Contains("aa"))
	assert.Empty(t, d.Words())
	assert.Empty(t, d.FindAllPrefixesOf("aardvark"))
}

func TestDump(t *testing.T) {
	d := openDict(t, 2, aaWords)
	var out strings.Builder
	require.NoError(t, d.Dump(&out))

	s := out.String()
	assert.Contains(t, s, "words=12")
	assert.Contains(t, s, `internal "" word=false next=a`)
	assert.Contains(t, s, `internal "aa" word=true next=lmnr`)
	assert.Contains(t, s, "aaro|nitic")
}

func readDictWords(t *testing.T) []string {
	dict := "/usr/share/dict/words"
	file, err := os.Open(dict)
	if os.IsNotExist(err) {
		t.Logf("Skipping full dictionary test; can't find %s", dict)
		return nil
	}
	require.NoError(t, err)
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		w := scanner.Text()
		if w != "" && invalidByte(w) < 0 {
			words = append(words, w)
		}
	}
	slices.Sort(words)
	return slices.Compact(words)
}

func TestFullDict(t *testing.T) {
	words := readDictWords(t)
	if len(words) == 0 {
		t.Skip("no dictionary")
	}
	a := buildArtifact(t, testConfig(DefaultHashSizeBits), words)
	d, err := a.Dict()
	require.NoError(t, err)
	testLookups(t, d, words)

	t.Logf("%d words: %d internal, %d leaves, %d header bytes, %d suffix bytes",
		len(words), a.Stats.Internal, a.Stats.Leaves, len(a.Header)*8, len(a.Suffix)*8)
}
