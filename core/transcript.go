package core

import "sync"

// Transcript is the ordered conversation of one run. Hand-offs share the
// transcript of the run they continue; nested agent-tool runs start a fresh one.
// It is safe for concurrent access.
type Transcript struct {
	mu       sync.RWMutex
	contents []Content
}

// NewTranscript creates a transcript seeded with the given contents.
func NewTranscript(seed ...Content) *Transcript {
	t := &Transcript{}
	t.contents = append(t.contents, seed...)
	return t
}

// Append adds content to the end of the transcript.
func (t *Transcript) Append(c Content) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.contents = append(t.contents, c)
}

// Contents returns a copy of the transcript, optionally limited to the last n
// entries (n <= 0 returns everything). The first user message is always kept
// so a truncated history still carries the original question.
func (t *Transcript) Contents(n int) []Content {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if n <= 0 || len(t.contents) <= n {
		out := make([]Content, len(t.contents))
		copy(out, t.contents)
		return out
	}

	tail := t.contents[len(t.contents)-n:]
	// A tool response without its originating call is rejected by providers.
	for len(tail) > 0 && tail[0].Role == RoleTool {
		tail = tail[1:]
	}

	out := make([]Content, 0, n+1)
	if first := t.contents[0]; first.Role == RoleUser && len(tail) > 0 && tail[0].Role != RoleUser {
		out = append(out, first)
	}
	return append(out, tail...)
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.contents)
}

// LastText returns the text of the most recent assistant content that carries
// text and no function calls.
func (t *Transcript) LastText() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := len(t.contents) - 1; i >= 0; i-- {
		c := t.contents[i]
		if c.Role != RoleAssistant || len(c.FunctionCalls()) > 0 {
			continue
		}
		if txt := c.Text(); txt != "" {
			return txt, true
		}
	}
	return "", false
}
