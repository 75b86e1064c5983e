package talk

import (
	"fmt"
	"strings"
)

// Resolve finds slide hyperlink target refers to. Exact title match wins and
// returns card 0 meaning "do not change card". Otherwise target may carry
// ".N" card suffix.
func (t *Talk) Resolve(target string) (*Slide, int, error) {
	if sl := t.byTitle[target]; sl != nil {
		return sl, 0, nil
	}

	pos := strings.LastIndexByte(target, '.')
	if pos < 0 {
		return nil, 0, fmt.Errorf("%q: %w", target, ErrNotFound)
	}
	card, ok := cardNumber(target[pos+1:])
	if !ok {
		return nil, 0, fmt.Errorf("%q: %w", target, ErrNotFound)
	}
	if sl := t.byTitle[target[:pos]]; sl != nil {
		return sl, card, nil
	}
	return nil, 0, fmt.Errorf("%q: %w", target, ErrNotFound)
}

// cardNumber accepts non-empty string of decimal digits only.
func cardNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
		if n > 1<<20 {
			return 0, false
		}
	}
	return n, true
}
