// ABOUTME: Default language catalog seeding from an embedded TOML file
// ABOUTME: Both store implementations seed an empty languages table on startup

package store

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
)

//go:embed languages.toml
var defaultLanguagesTOML []byte

type languageCatalog struct {
	Languages []struct {
		Name   string `toml:"name"`
		Code   string `toml:"code"`
		Active bool   `toml:"active"`
		Region string `toml:"region"`
	} `toml:"languages"`
}

// DefaultLanguages returns the embedded language catalog.
func DefaultLanguages() ([]*Language, error) {
	var catalog languageCatalog
	if err := toml.Unmarshal(defaultLanguagesTOML, &catalog); err != nil {
		return nil, fmt.Errorf("parsing language catalog: %w", err)
	}

	langs := make([]*Language, 0, len(catalog.Languages))
	for _, l := range catalog.Languages {
		langs = append(langs, &Language{
			Name:     l.Name,
			Code:     l.Code,
			IsActive: l.Active,
			Region:   l.Region,
		})
	}
	return langs, nil
}

// seedLanguages inserts the default catalog into a store whose languages
// table is empty. Safe to call on every startup.
func seedLanguages(ctx context.Context, s Store) error {
	existing, err := s.GetLanguages(ctx)
	if err != nil {
		return fmt.Errorf("listing languages: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	defaults, err := DefaultLanguages()
	if err != nil {
		return err
	}
	for _, lang := range defaults {
		if err := s.CreateLanguage(ctx, lang); err != nil {
			return fmt.Errorf("seeding language %s: %w", lang.Code, err)
		}
	}
	return nil
}
