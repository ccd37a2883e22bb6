// Package classify maps free-text user input to a request category.
//
// Classification is a case-insensitive substring match against fixed keyword
// sets, tested in a fixed priority order: image, then voice, then coding,
// with text as the default. The first matching set wins.
package classify

import (
	"strings"

	"github.com/polychat/chat-backend/internal/types"
)

// Keyword sets, exported so tests can cover them exhaustively.
var (
	ImageKeywords = []string{
		"image", "picture", "draw", "drawing", "photo", "illustration",
		"sketch", "paint", "render", "wallpaper", "logo",
	}
	VoiceKeywords = []string{
		"voice", "speak", "say this", "read aloud", "audio", "pronounce",
		"text to speech", "speech",
	}
	CodingKeywords = []string{
		"code", "function", "debug", "program", "script", "compile",
		"refactor", "bug", "algorithm", "regex", "sql", "snippet",
	}
)

// Classify returns the request category for the given input.
// Pure and deterministic; it never fails.
func Classify(text string) types.Category {
	lowered := strings.ToLower(text)
	switch {
	case matchesAny(lowered, ImageKeywords):
		return types.CategoryImage
	case matchesAny(lowered, VoiceKeywords):
		return types.CategoryVoice
	case matchesAny(lowered, CodingKeywords):
		return types.CategoryCoding
	default:
		return types.CategoryText
	}
}

func matchesAny(lowered string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}
