package digest

// Chunk splits text into consecutive parts of at most size characters.
// Concatenating the parts yields text; every part but the last is full.
func Chunk(text string, size int) []string {
	if text == "" || size <= 0 {
		return nil
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)

	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}

	return chunks
}
