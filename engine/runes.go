package engine

// runeSlice extracts the substring spanning rune offsets [start, end).
// regexp2's Match.Index/Length (and hence every position derived from a
// match — mbegin, newPos, capture group spans) count runes, not bytes,
// so any text[start:end] byte slice keyed on those offsets corrupts
// multi-byte input; this is the rune-indexed equivalent.
func runeSlice(s string, start, end int) string {
	return string([]rune(s)[start:end])
}
