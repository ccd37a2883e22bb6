// Package keystore is a thin accessor over persisted configuration:
// per-category provider credentials and the language preference.
package keystore

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/polychat/chat-backend/internal/kv"
	"github.com/polychat/chat-backend/internal/types"
)

const (
	credentialKeyPrefix = "config:credential:"
	languageKey         = "config:language"
)

// Store reads and writes configuration values in the shared key-value store.
type Store struct {
	kv          kv.Store
	logger      *logrus.Logger
	defaultLang types.Language
}

// New creates a keystore over the given key-value store.
func New(kvStore kv.Store, logger *logrus.Logger, defaultLang types.Language) *Store {
	if !defaultLang.Valid() {
		defaultLang = types.LangEnglish
	}
	return &Store{kv: kvStore, logger: logger, defaultLang: defaultLang}
}

func credentialKey(category types.Category) string {
	return credentialKeyPrefix + string(category)
}

// Credential returns the secret for a category and whether one is configured.
// A storage failure reads as unconfigured and is logged.
func (s *Store) Credential(ctx context.Context, category types.Category) (string, bool) {
	val, err := s.kv.Get(ctx, credentialKey(category))
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logger.WithError(err).WithField("category", category).Warn("failed to read credential")
		}
		return "", false
	}
	if val == "" {
		return "", false
	}
	return val, true
}

// CredentialStatus reports whether a credential is configured for the category.
func (s *Store) CredentialStatus(ctx context.Context, category types.Category) bool {
	_, ok := s.Credential(ctx, category)
	return ok
}

// SetCredential stores the secret for a category. An empty value clears it.
func (s *Store) SetCredential(ctx context.Context, category types.Category, value string) error {
	if !category.Valid() {
		return fmt.Errorf("unknown category %q", category)
	}
	if value == "" {
		if err := s.kv.Delete(ctx, credentialKey(category)); err != nil {
			return fmt.Errorf("clear credential: %w", err)
		}
		return nil
	}
	if err := s.kv.Set(ctx, credentialKey(category), value); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// Credentials returns the full category-to-secret mapping, omitting
// unconfigured categories.
func (s *Store) Credentials(ctx context.Context) types.Credentials {
	creds := make(types.Credentials)
	for _, category := range types.Categories {
		if val, ok := s.Credential(ctx, category); ok {
			creds[category] = val
		}
	}
	return creds
}

// Language returns the current language preference. Unset, unrecognized or
// unreadable values fall back to the default.
func (s *Store) Language(ctx context.Context) types.Language {
	val, err := s.kv.Get(ctx, languageKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logger.WithError(err).Warn("failed to read language preference")
		}
		return s.defaultLang
	}
	lang := types.Language(val)
	if !lang.Valid() {
		return s.defaultLang
	}
	return lang
}

// SetLanguage stores the language preference.
func (s *Store) SetLanguage(ctx context.Context, lang types.Language) error {
	if !lang.Valid() {
		return fmt.Errorf("unknown language %q", lang)
	}
	if err := s.kv.Set(ctx, languageKey, string(lang)); err != nil {
		return fmt.Errorf("store language: %w", err)
	}
	return nil
}
