package scoring

import (
	"strings"

	"quiz-scoring/internal/common/errors"
)

// ExtractObject returns the span from the first '{' to the last '}' of model
// output, which tolerates prose or code fences around the object.
func ExtractObject(text string) (string, error) {
	return extractSpan(text, "{", "}")
}

// ExtractArray is ExtractObject for a top-level JSON array.
func ExtractArray(text string) (string, error) {
	return extractSpan(text, "[", "]")
}

func extractSpan(text, opening, closing string) (string, error) {
	start := strings.Index(text, opening)
	end := strings.LastIndex(text, closing)
	if start < 0 || end < start {
		return "", errors.NewDataFormatError("no "+opening+closing+" span in model output", nil)
	}
	return text[start : end+1], nil
}
