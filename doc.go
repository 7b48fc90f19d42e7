/*
Package prefixdict stores a sorted list of lowercase words in a compact,
read-only form that can be searched in place.

The words are split into a shallow trie of prefixes. Every node of the trie
either branches on the next letter or, once few enough words share its
prefix, becomes a leaf bucket. The trie is written as a bit-packed header:
internal nodes carry a 26-bit map of the letters that follow, leaves carry
the size of their bucket. What remains of each word after its bucket's
prefix is packed, 13 letters to a 64-bit word, into a separate suffix
stream using base-27 digits where the 27th digit terminates a suffix. A
summary of the file format is found at the top of disk.go.

To use it you first create a builder using prefixdict.New(). You then add
words in strictly increasing order. Words with characters outside a-z are
skipped and reported, or rejected when Config.Malformed says so. Repeated
words are skipped.

After all the words are added, call Finish() to get the encoded Artifact, or
Save() to write it to disk. The dictionary can then be opened again later
using Load(), which maps the file into memory. The resulting Dict can tell
whether a word is present, look up a word's index or the word at an index,
find all words which are prefixes of a string, and enumerate the words in
order.
*/
package prefixdict
