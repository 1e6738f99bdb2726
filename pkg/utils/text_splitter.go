package utils

// SplitText splits a long string into rune chunks of at most chunkSize, with
// an overlap carried between consecutive chunks so retrieval does not lose
// context at the boundaries. Character-based on purpose: the embedding models
// in use tolerate mid-word cuts better than dropped text.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	var chunks []string
	for i := 0; i < len(runes); i += step {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
