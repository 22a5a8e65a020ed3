// Package redact scrubs secret values out of strings before they reach a
// persisted Update log: secret values must never appear in persisted logs.
// It is a narrow, single-purpose sibling
// to pkg/interpolate, split out so every writer of Update.Logs (actions,
// webhooks, anything that touches a secret Variable) can depend on it
// without pulling in interpolation's variable-lookup machinery.
package redact

import "strings"

// Replacer scrubs a fixed set of literal secret values from any string
// passed through it, replacing each with a fixed placeholder. Safe for
// concurrent use: it only wraps an immutable *strings.Replacer.
type Replacer struct {
	r *strings.Replacer
}

const placeholder = "***REDACTED***"

// New builds a Replacer over the given secret values. Empty values are
// skipped so an unset secret never turns into a replace-everything rule.
func New(secrets ...string) *Replacer {
	pairs := make([]string, 0, len(secrets)*2)
	for _, s := range secrets {
		if s == "" {
			continue
		}
		pairs = append(pairs, s, placeholder)
	}
	return &Replacer{r: strings.NewReplacer(pairs...)}
}

// Scrub returns s with every configured secret value replaced.
func (r *Replacer) Scrub(s string) string {
	if r == nil || r.r == nil {
		return s
	}
	return r.r.Replace(s)
}

// ScrubAll scrubs every string in ss in place and returns the slice.
func (r *Replacer) ScrubAll(ss []string) []string {
	for i, s := range ss {
		ss[i] = r.Scrub(s)
	}
	return ss
}
