package service

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"hiddenplaces/internal/domain"
)

// fieldErrors collects the first problem found per form field.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) required(field, v string) {
	if strings.TrimSpace(v) == "" {
		f.add(field, "This field is required.")
	}
}

func (f fieldErrors) maxLen(field, v string, n int) {
	if utf8.RuneCountInString(v) > n {
		f.add(field, fmt.Sprintf("Must be at most %d characters long.", n))
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return domain.NewValidationError(f)
}

func normalizeEmail(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

func validEmail(s string) bool {
	if s == "" || len(s) > domain.MaxEmailLen {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func validHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
