// Package bilingual resolves language-keyed analysis content to the active
// display language.
package bilingual

import (
	"bytes"
	"encoding/json"
)

// Fallback is the language consulted when the requested one is missing.
const Fallback = "en"

// Bundle holds either a language-keyed set of values or a single legacy value
// stored before analysis payloads became bilingual.
type Bundle[T any] struct {
	Localized map[string]T
	Legacy    *T
}

// Of builds a language-keyed bundle.
func Of[T any](byLang map[string]T) Bundle[T] {
	return Bundle[T]{Localized: byLang}
}

// Plain wraps a legacy, non language-keyed value.
func Plain[T any](v T) Bundle[T] {
	return Bundle[T]{Legacy: &v}
}

// IsLegacy reports whether the bundle carries a plain value.
func (b Bundle[T]) IsLegacy() bool {
	return b.Legacy != nil
}

// Languages lists the keys present in a language-keyed bundle.
func (b Bundle[T]) Languages() []string {
	langs := make([]string, 0, len(b.Localized))
	for k := range b.Localized {
		langs = append(langs, k)
	}
	return langs
}

// Resolve returns the legacy value unchanged, else the entry for lang, else
// the Fallback entry, else the zero value of T.
func Resolve[T any](b Bundle[T], lang string) T {
	if b.Legacy != nil {
		return *b.Legacy
	}
	if v, ok := b.Localized[lang]; ok {
		return v
	}
	if v, ok := b.Localized[Fallback]; ok {
		return v
	}
	var zero T
	return zero
}

// UnmarshalJSON accepts an object keyed by language or any plain value of T.
// An object that does not decode as map[string]T is treated as legacy.
func (b *Bundle[T]) UnmarshalJSON(data []byte) error {
	*b = Bundle[T]{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '{' {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		localized := make(map[string]T, len(raw))
		ok := true
		for lang, msg := range raw {
			if bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
				continue
			}
			var v T
			if err := json.Unmarshal(msg, &v); err != nil {
				ok = false
				break
			}
			localized[lang] = v
		}
		if ok {
			b.Localized = localized
			return nil
		}
	}

	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return err
	}
	b.Legacy = &v
	return nil
}

func (b Bundle[T]) MarshalJSON() ([]byte, error) {
	if b.Legacy != nil {
		return json.Marshal(*b.Legacy)
	}
	if b.Localized == nil {
		return []byte("null"), nil
	}
	return json.Marshal(b.Localized)
}
