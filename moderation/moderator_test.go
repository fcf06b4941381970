package moderation

import (
	"log/slog"
	"member-chat/errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The dictionary avoids short words that would hit inside longer ones
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	mod, err := NewModerator([]string{"idiot", "loser", "moron"}, replacementChar, log)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{
			name:     "Single word keeps surrounding spaces",
			input:    "You are an idiot today",
			expected: "You are an ***** today",
			words:    []string{"idiot"},
		},
		{
			name:     "Repeated word",
			input:    "loser loser",
			expected: "***** *****",
			words:    []string{"loser", "loser"},
		},
		{
			name:     "Leet speak with inner punctuation",
			input:    "what a m.0.r.0.n",
			expected: "what a *********",
			words:    []string{"moron"},
		},
		{
			name:     "Uppercase and dashes",
			input:    "I-D-I-O-T or L0SER",
			expected: "********* or *****",
			words:    []string{"idiot", "loser"},
		},
		{
			name:     "Accented text around a match",
			input:    "Un été avec un idiot",
			expected: "Un été avec un *****",
			words:    []string{"idiot"},
		},
		{
			name:     "Nothing to censor",
			input:    "See you at the climbing gym",
			expected: "See you at the climbing gym",
			words:    nil,
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
			words:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, words := mod.Censor(tt.input)
			req.Equal(tt.expected, content, "test=%s,", tt.name)
			req.Equal(tt.words, words)
		})
	}
}

func TestModerator_Skips_Noise_Entries(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given entries made only of punctuation
	mod, err := NewModerator([]string{"...", ",,,", "", "moron"}, replacementChar, log)
	req.NoError(err)

	content, words := mod.Censor("Hello ...")
	req.Equal("Hello ...", content)
	req.Nil(words)

	content, words = mod.Censor("moron")
	req.Equal("*****", content)
	req.Equal([]string{"moron"}, words)

	// Given nothing usable at all
	empty, err := NewModerator([]string{"???"}, replacementChar, log)
	req.NoError(err)
	content, words = empty.Censor("anything goes")
	req.Equal("anything goes", content)
	req.Nil(words)
}

func TestCensoredLoader_LoadAll(t *testing.T) {
	req := require.New(t)
	fsys := fstest.MapFS{
		"words/en.txt":    {Data: []byte("idiot\r\nloser\n\n  moron  \n")},
		"words/fr.txt":    {Data: []byte("abruti\nidiot\n")},
		"words/README.md": {Data: []byte("ignored")},
	}

	data, err := NewCensoredLoader(fsys).LoadAll("words")
	req.NoError(err)
	req.Equal([]string{"abruti", "idiot", "loser", "moron"}, data.Words)
	req.ElementsMatch([]string{"en", "fr"}, data.Languages)

	_, err = NewCensoredLoader(fstest.MapFS{"words/en.txt": {Data: []byte("\n")}}).LoadAll("words")
	req.ErrorIs(err, errors.ErrEmptyWords)
}

func TestCensoredLoader_Embedded_Lists(t *testing.T) {
	req := require.New(t)
	data, err := DefaultCensoredLoader().LoadAll("censored")
	req.NoError(err)
	req.NotEmpty(data.Words)
	req.Contains(data.Languages, "en")
}

func TestContentFilter_Clean(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	mod, err := NewModerator([]string{"idiot"}, replacementChar, log)
	req.NoError(err)
	filter := NewContentFilter(mod, 40, log)

	cleaned, err := filter.Clean("Only an idiot would skip the meeting")
	req.NoError(err)
	req.Equal("Only an ***** would skip the meeting", cleaned.Content)
	req.Equal([]string{"idiot"}, cleaned.Censored)

	_, err = filter.Clean("   ")
	req.ErrorIs(err, errors.ErrEmptyMessage)

	_, err = filter.Clean(strings.Repeat("é", 41))
	req.ErrorIs(err, errors.ErrContentTooLong)
	req.ErrorIs(err, errors.ErrValidation)
}

func TestContentFilter_Detects_Language(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	mod, err := NewModerator([]string{"idiot"}, replacementChar, log)
	req.NoError(err)
	filter := NewContentFilter(mod, 0, log)

	cleaned, err := filter.Clean("Bonjour à tous, nous nous retrouvons demain matin devant la gare pour partir ensemble à la montagne.")
	req.NoError(err)
	req.Equal("fr", cleaned.Language)
}
