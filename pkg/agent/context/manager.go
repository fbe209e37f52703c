package context

import (
	"github.com/entrhq/n1browse/pkg/llm/tokenizer"
	"github.com/entrhq/n1browse/pkg/logging"
	"github.com/entrhq/n1browse/pkg/types"
)

// Report describes one trimming pass.
type Report struct {
	// SizeBytes is the estimated request size after trimming
	SizeBytes int

	// Removed is the number of images replaced in this pass
	Removed int

	// TextTokens estimates the tokens in the conversation's text
	TextTokens int
}

// SizeMB returns SizeBytes in mebibytes.
func (r Report) SizeMB() float64 {
	return float64(r.SizeBytes) / (1024 * 1024)
}

// Trimmer applies TrimImagesToFit with a fixed retention count and logs
// each pass.
type Trimmer struct {
	keepRecent int
	tokenizer  *tokenizer.Tokenizer
	log        *logging.Logger
}

// NewTrimmer creates a trimmer that always keeps the newest keepRecent
// image-bearing messages. A nil tokenizer or logger is allowed.
func NewTrimmer(keepRecent int, tok *tokenizer.Tokenizer, log *logging.Logger) *Trimmer {
	if tok == nil {
		tok = &tokenizer.Tokenizer{}
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Trimmer{keepRecent: keepRecent, tokenizer: tok, log: log}
}

// KeepRecent returns the retention count.
func (t *Trimmer) KeepRecent() int {
	return t.keepRecent
}

// Fit trims messages in place to fit maxBytes.
func (t *Trimmer) Fit(messages []*types.Message, maxBytes int) Report {
	size, removed := TrimImagesToFit(messages, maxBytes, t.keepRecent)
	report := Report{
		SizeBytes:  size,
		Removed:    removed,
		TextTokens: t.tokenizer.CountMessagesTokens(messages),
	}

	if removed > 0 {
		t.log.Infof("Trimmed %d image(s): %d bytes (budget %d, keep %d), ~%d text tokens",
			removed, size, maxBytes, t.keepRecent, report.TextTokens)
	} else {
		t.log.Debugf("Request size %d bytes (budget %d), ~%d text tokens", size, maxBytes, report.TextTokens)
	}
	if size > maxBytes {
		t.log.Warnf("Request still over budget after trimming: %d > %d bytes", size, maxBytes)
	}
	return report
}
