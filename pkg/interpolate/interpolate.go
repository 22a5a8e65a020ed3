// Package interpolate resolves Variable references embedded in
// interpolatable strings: `[[name]]` for a plain Variable, `[[name]]!` for
// a secret one. Action file contents (pkg/execution's RunActionHandler)
// are the only caller.
package interpolate

import (
	"context"
	"fmt"
	"regexp"

	"github.com/komodo-run/komodo-core/pkg/models"
)

// VariableLookup resolves a Variable by name; pkg/database's Client
// implements this directly (GetVariable).
type VariableLookup interface {
	GetVariable(ctx context.Context, name string) (*models.Variable, error)
}

// reference matches both `[[name]]` and `[[name]]!`, capturing the name and
// the optional trailing `!` that marks a secret reference.
var reference = regexp.MustCompile(`\[\[([a-zA-Z0-9_\.-]+)\]\](!?)`)

// Replacement records one substitution made during Resolve, for the
// execution engine to log (plain) or withhold (secret)
type Replacement struct {
	Name     string
	IsSecret bool
}

// Resolve replaces every `[[name]]`/`[[name]]!` reference in s with the
// corresponding Variable's value. A secret reference (`!`) requires the
// looked-up Variable to have IsSecret=true; referencing a non-secret
// Variable with `!` is an error, and vice versa, since the two forms carry
// different redaction guarantees for the caller.
func Resolve(ctx context.Context, lookup VariableLookup, s string) (resolved string, used []Replacement, err error) {
	var firstErr error
	out := reference.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}
		groups := reference.FindStringSubmatch(match)
		name, bang := groups[1], groups[2] == "!"

		v, lookupErr := lookup.GetVariable(ctx, name)
		if lookupErr != nil {
			firstErr = fmt.Errorf("interpolate: %s: %w", name, lookupErr)
			return match
		}
		if v.IsSecret != bang {
			firstErr = fmt.Errorf("interpolate: %s: secret marker mismatch (variable is_secret=%v, reference secret=%v)", name, v.IsSecret, bang)
			return match
		}

		used = append(used, Replacement{Name: name, IsSecret: v.IsSecret})
		return v.Value
	})
	if firstErr != nil {
		return "", nil, firstErr
	}
	return out, used, nil
}

// SecretValues filters used down to just the resolved secret values,
// for handing straight to pkg/redact.New.
func SecretValues(ctx context.Context, lookup VariableLookup, used []Replacement) ([]string, error) {
	var out []string
	for _, r := range used {
		if !r.IsSecret {
			continue
		}
		v, err := lookup.GetVariable(ctx, r.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, v.Value)
	}
	return out, nil
}
