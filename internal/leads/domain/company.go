package domain

import "strings"

// NormalizeDomain reduces a website or domain to its bare lower-case host:
// scheme, leading "www.", port, path and query are removed.
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	if d == "" {
		return ""
	}
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.LastIndex(d, "@"); i >= 0 {
		d = d[i+1:]
	}
	if i := strings.Index(d, ":"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimPrefix(d, "www.")
	return strings.Trim(d, ".")
}

// DomainFromEmail returns the normalized domain part of an email address.
func DomainFromEmail(email string) string {
	i := strings.LastIndex(email, "@")
	if i < 0 {
		return ""
	}
	return NormalizeDomain(email[i+1:])
}
