package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	"github.com/couchcryptid/shore-hazard-service/internal/store"
	"golang.org/x/text/language"
)

// DefaultLanguage is used when neither a saved preference nor the client's
// Accept-Language header names a supported language.
const DefaultLanguage = "en"

// SupportedLanguages lists the interface languages in menu order.
var SupportedLanguages = []language.Tag{
	language.English,
	language.Hindi,
	language.Tamil,
	language.Telugu,
	language.Malayalam,
	language.Bengali,
}

var matcher = language.NewMatcher(SupportedLanguages)

// SetLanguage saves the interface language for identity id.
func (m *Manager) SetLanguage(ctx context.Context, id, lang string) (string, error) {
	code, ok := supportedCode(lang)
	if !ok {
		return "", fmt.Errorf("%w: unsupported language %q", domain.ErrValidationFailed, lang)
	}
	if err := m.store.Set(ctx, languageKeyPrefix+id, []byte(code)); err != nil {
		return "", fmt.Errorf("persist language preference: %w", err)
	}
	return code, nil
}

// Language returns the saved preference for id, falling back to the best
// match for acceptLanguage and then DefaultLanguage.
func (m *Manager) Language(ctx context.Context, id, acceptLanguage string) string {
	saved, err := m.store.Get(ctx, languageKeyPrefix+id)
	switch {
	case err == nil:
		if code, ok := supportedCode(string(saved)); ok {
			return code
		}
	case !errors.Is(err, store.ErrNotFound):
		m.logger.Warn("load language preference failed", "identity_id", id, "error", err)
	}
	return MatchLanguage(acceptLanguage)
}

// MatchLanguage picks the supported language best matching an
// Accept-Language header value.
func MatchLanguage(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLanguage
	}
	base, _ := SupportedLanguages[idx].Base()
	return base.String()
}

func supportedCode(lang string) (string, bool) {
	tag, err := language.Parse(lang)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	for _, s := range SupportedLanguages {
		if sb, _ := s.Base(); sb == base {
			return base.String(), true
		}
	}
	return "", false
}
