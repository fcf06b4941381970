package moderation

import (
	"fmt"
	"log/slog"
	"member-chat/errors"
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
)

// Cleaned is message content ready to be stored.
type Cleaned struct {
	Content  string
	Language string // ISO 639-1, empty when unknown
	Censored []string
}

// ContentFilter runs the send/edit content pipeline: length check,
// censorship, language detection.
type ContentFilter struct {
	moderator Moderator
	maxLength int
	log       *slog.Logger
}

func NewContentFilter(moderator Moderator, maxLength int, log *slog.Logger) ContentFilter {
	return ContentFilter{moderator: moderator, maxLength: maxLength, log: log}
}

func (f ContentFilter) Clean(content string) (Cleaned, error) {
	if strings.TrimSpace(content) == "" {
		return Cleaned{}, errors.ErrEmptyMessage
	}
	if length := utf8.RuneCountInString(content); f.maxLength > 0 && length > f.maxLength {
		return Cleaned{}, fmt.Errorf("%w: %d characters, limit is %d", errors.ErrContentTooLong, length, f.maxLength)
	}

	sanitized, words := f.moderator.Censor(content)
	if len(words) > 0 {
		f.log.Debug("Censored words found", "count", len(words))
	}
	return Cleaned{Content: sanitized, Language: detectLanguage(content), Censored: words}, nil
}

// detectLanguage only trusts reliable detections; short messages such as
// "ok" are too ambiguous to be tagged.
func detectLanguage(content string) string {
	info := whatlanggo.Detect(content)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
