package document

import "strings"

const (
	DefaultChunkWords   = 500
	DefaultOverlapWords = 50
)

// Chunk splits text into word windows of size window that advance by
// window-overlap words. The last window ends exactly at the last word, so
// text of at most window words yields one chunk. Invalid parameters fall
// back to the defaults.
func Chunk(text string, window, overlap int) []string {
	if window <= 0 || overlap < 0 || overlap >= window {
		window, overlap = DefaultChunkWords, DefaultOverlapWords
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := window - overlap
	chunks := make([]string, 0, (len(words)+step-1)/step)
	for start := 0; ; start += step {
		end := min(start+window, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
