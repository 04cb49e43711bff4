// Package fieldconfig holds the editorial field configuration: labels,
// help texts, and generated default texts.
//
// This used to be the classic process-wide singleton. It is now an explicit
// value object resolved once per request or batch run and passed into the
// versioning engine and the press-through propagator, so two concurrent jobs
// can never observe each other's configuration.
package fieldconfig

import (
	"fmt"

	"sdgcatalog/internal/catalog/models"
)

// Config is an immutable snapshot of the field configuration.
type Config struct {
	// Labels maps a payload field name to its editorial label.
	Labels map[string]string
	// HelpTexts maps a payload field name to its tooltip text.
	HelpTexts map[string]string
	// unavailableTemplates formats the generated product_aanwezig_toelichting
	// per language; the two verb arguments are body name and product title.
	unavailableTemplates map[models.Language]string
}

// Default returns the built-in configuration. Deployments override labels
// and help texts through the admin surface; the templates ship fixed.
func Default() Config {
	return Config{
		Labels:    map[string]string{},
		HelpTexts: map[string]string{},
		unavailableTemplates: map[models.Language]string{
			models.LanguageNL: "%s levert het product %s niet.",
			models.LanguageEN: "%s does not offer the product %s.",
		},
	}
}

// UnavailableNote computes the placeholder toelichting seeded onto a
// specific product when a press-through turns it unavailable and the
// payload supplies no override.
func (c Config) UnavailableNote(lang models.Language, bodyName, productTitle string) string {
	tmpl, ok := c.unavailableTemplates[lang]
	if !ok {
		tmpl = c.unavailableTemplates[models.LanguageNL]
	}
	return fmt.Sprintf(tmpl, bodyName, productTitle)
}

// Label returns the configured label for a field, falling back to the field
// name itself.
func (c Config) Label(field string) string {
	if l, ok := c.Labels[field]; ok && l != "" {
		return l
	}
	return field
}
