package moderation

import (
	"regexp"
	"strings"
)

// Config is the [moderation] section of the bot config.
type Config struct {
	Enabled     bool     `toml:"enabled"`
	BannedWords []string `toml:"banned_words"`
	BlockLinks  bool     `toml:"block_links"`
}

var linkPattern = regexp.MustCompile(`(?i)\b(?:https?://|www\.|discord\.gg/)\S+`)

// Verdict is the outcome of checking one message.
type Verdict struct {
	Allowed bool
	Reason  string
}

// Filter checks message content against the configured banned words and link
// policy. It holds no mutable state and is safe for concurrent use.
type Filter struct {
	enabled    bool
	banned     []string
	blockLinks bool
}

func NewFilter(cfg Config) *Filter {
	banned := make([]string, 0, len(cfg.BannedWords))
	for _, w := range cfg.BannedWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			banned = append(banned, w)
		}
	}
	return &Filter{
		enabled:    cfg.Enabled,
		banned:     banned,
		blockLinks: cfg.BlockLinks,
	}
}

// Check returns a non-allowed verdict with a short reason when the content
// violates policy.
func (f *Filter) Check(content string) Verdict {
	if !f.enabled {
		return Verdict{Allowed: true}
	}

	lowered := strings.ToLower(content)
	for _, word := range f.banned {
		if containsWord(lowered, word) {
			return Verdict{Reason: "banned word"}
		}
	}

	if f.blockLinks && linkPattern.MatchString(content) {
		return Verdict{Reason: "links are not allowed"}
	}

	return Verdict{Allowed: true}
}

// containsWord matches whole word-ish occurrences so "class" does not trip a
// ban on "ass".
func containsWord(haystack, word string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordByte(haystack[start-1])
		afterOK := end == len(haystack) || !isWordByte(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
