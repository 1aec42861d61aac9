package fallback

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"loan-advisor/internal/models"
)

//go:embed locales/*.yaml
var embeddedLocales embed.FS

// Bundle maps message keys to localized text for one language.
type Bundle map[string]string

// Bundles holds one Bundle per language.
type Bundles map[models.Language]Bundle

// Lookup returns the text for key in lang, falling back to English.
func (b Bundles) Lookup(lang models.Language, key string) (string, bool) {
	if text, ok := b[lang][key]; ok && text != "" {
		return text, true
	}
	if text, ok := b[models.LanguageEnglish][key]; ok && text != "" {
		return text, true
	}
	return "", false
}

// LoadBundles reads every <lang>.yaml file in dir of fsys. Files for
// unsupported languages are ignored.
func LoadBundles(fsys fs.FS, dir string) (Bundles, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read locale dir %s: %w", dir, err)
	}

	bundles := make(Bundles, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".yaml" {
			continue
		}
		lang := models.Language(strings.TrimSuffix(name, ".yaml"))
		if !lang.IsSupported() {
			continue
		}

		raw, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", name, err)
		}
		var bundle Bundle
		if err := yaml.Unmarshal(raw, &bundle); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", name, err)
		}
		bundles[lang] = bundle
	}

	if _, ok := bundles[models.LanguageEnglish]; !ok {
		return nil, fmt.Errorf("locale dir %s has no en.yaml", dir)
	}
	return bundles, nil
}

// DefaultBundles returns the locale bundles compiled into the binary.
func DefaultBundles() (Bundles, error) {
	return LoadBundles(embeddedLocales, "locales")
}
