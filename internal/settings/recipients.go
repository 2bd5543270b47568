package settings

import (
	"regexp"
	"strings"
	"sync"
)

var emailPattern = regexp.MustCompile(`^[\p{L}\p{N}_.-]+@[\p{L}\p{N}_.-]+\.[\p{L}\p{N}_]+$`)

// ParseRecipients splits comma-separated addresses, drops blanks and
// duplicates, and rejects the whole batch if any entry is malformed.
func ParseRecipients(text string) ([]string, error) {
	var (
		out  []string
		bad  []string
		seen = map[string]bool{}
	)
	for _, part := range strings.Split(text, ",") {
		e := strings.TrimSpace(part)
		if e == "" {
			continue
		}
		if !emailPattern.MatchString(e) {
			bad = append(bad, e)
			continue
		}
		key := strings.ToLower(e)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}

	if len(bad) > 0 {
		return nil, &ValidationError{Field: "recipients", Message: "invalid email format", Invalid: bad}
	}
	if len(out) == 0 {
		return nil, invalid("recipients", "please enter at least one email address")
	}
	return out, nil
}

// RecipientBook holds the current recipient list for the process lifetime.
type RecipientBook struct {
	mu     sync.RWMutex
	emails []string
}

func (b *RecipientBook) Set(emails []string) {
	cp := append([]string(nil), emails...)
	b.mu.Lock()
	b.emails = cp
	b.mu.Unlock()
}

// List returns a copy of the current recipients.
func (b *RecipientBook) List() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.emails...)
}
