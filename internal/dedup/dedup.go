// Package dedup removes duplicate records and folds an entity's records into
// one field map. Every function keeps the first occurrence and preserves
// input order.
package dedup

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/lead-cli/internal/model"
)

// NameKey normalizes a name for exact matching: Unicode NFKC, trimmed and
// case-folded. "Acme Dental " and "ACME DENTAL" share a key.
func NameKey(s string) string {
	s = strings.TrimSpace(norm.NFKC.String(s))
	if s == "" {
		return ""
	}
	// Casers are stateful, so each call gets its own.
	return cases.Fold().String(s)
}

// EmailKey normalizes an email address.
func EmailKey(s string) string {
	return NameKey(s)
}

// PhoneKey reduces a phone number to its digits.
func PhoneKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FieldKey returns a key function that normalizes one record field with
// NameKey.
func FieldKey(field string) func(model.Record) string {
	return func(r model.Record) string {
		return NameKey(r.String(field))
	}
}

// KindURLKey keys a record by kind and normalized URL. Records without a
// URL get no key and are never treated as duplicates.
func KindURLKey(r model.Record) string {
	u := NameKey(r.String(model.FieldURL))
	if u == "" {
		return ""
	}
	return string(r.Kind) + "|" + u
}

// Records drops every record whose key was already seen. Records with an
// empty key are always kept.
func Records(records []model.Record, key func(model.Record) string) []model.Record {
	return By(records, func(r model.Record) []string { return []string{key(r)} })
}

// By drops every item sharing any non-empty key with an earlier kept item.
// A kept item registers all of its keys.
func By[T any](items []T, keys func(T) []string) []T {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		ks := keys(it)
		dup := false
		for _, k := range ks {
			if k == "" {
				continue
			}
			if _, ok := seen[k]; ok {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		for _, k := range ks {
			if k != "" {
				seen[k] = struct{}{}
			}
		}
		out = append(out, it)
	}
	return out
}

// Contacts dedups contacts by email, then by phone digits.
func Contacts(contacts []model.Contact) []model.Contact {
	return By(contacts, func(c model.Contact) []string {
		return []string{EmailKey(c.Email), PhoneKey(c.Phone)}
	})
}

// MergeFields folds record fields into one map. The first record providing a
// present value for a key wins.
func MergeFields(records []model.Record) map[string]any {
	merged := make(map[string]any)
	for _, r := range records {
		for k, v := range r.Fields {
			if _, ok := merged[k]; ok || !model.Present(v) {
				continue
			}
			merged[k] = v
		}
	}
	return merged
}
