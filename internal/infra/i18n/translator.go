package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// Translator maps message keys to user-facing text in one language.
type Translator struct {
	translations map[string]string
}

func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := filepath.Join("locales", fmt.Sprintf("%s.yaml", langCode))

	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
	}

	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}

	return &Translator{translations: translations}, nil
}

// T translates key, formatting args into the message when present.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// BalanceRelated reports whether a gateway rejection message is about the
// payer's wallet balance, so it can be replaced with the localized
// insufficient-funds text.
func BalanceRelated(gatewayMessage string) bool {
	m := strings.ToLower(gatewayMessage)
	return strings.Contains(m, "balance") || strings.Contains(m, "insufficient")
}
