package intake

import "strings"

// Language selects the prompt set and the speech pipeline used for a session.
type Language string

const (
	LanguageEnglish Language = "english"
	LanguageFrench  Language = "french"
)

// ParseLanguage accepts "english"/"french" in any case, plus their French names.
func ParseLanguage(raw string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "english", "anglais":
		return LanguageEnglish, nil
	case "french", "français", "francais":
		return LanguageFrench, nil
	}
	return "", ErrUnsupportedLanguage
}

func (l Language) valid() bool {
	return l == LanguageEnglish || l == LanguageFrench
}
