// Package content holds the static GDPR teaching material served next to
// the simulator: concept cards and record category display metadata.
package content

import (
	"errors"
	"fmt"

	"github.com/privacyguard/privacyguard/internal/simulator"
)

// ErrDuplicateConcept is returned when two concepts share an id.
var ErrDuplicateConcept = errors.New("duplicate concept id")

// Concept is a GDPR concept card.
type Concept struct {
	ID          string
	Title       string
	Icon        string
	Description string
	Example     string
	GDPRArticle string
}

// CategoryMetadata is the display configuration of a record category.
type CategoryMetadata struct {
	Category    simulator.Category
	Label       string
	Description string
	Icon        string
	Tone        string
}

// Catalog is an immutable, ordered set of concepts. Safe for concurrent use.
type Catalog struct {
	concepts []Concept
	byID     map[string]int
}

// NewCatalog builds a catalog preserving the given order.
func NewCatalog(concepts []Concept) (*Catalog, error) {
	c := &Catalog{
		concepts: make([]Concept, len(concepts)),
		byID:     make(map[string]int, len(concepts)),
	}
	copy(c.concepts, concepts)

	for i, concept := range c.concepts {
		if concept.ID == "" {
			return nil, fmt.Errorf("concept %d: missing id", i)
		}
		if _, ok := c.byID[concept.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateConcept, concept.ID)
		}
		c.byID[concept.ID] = i
	}
	return c, nil
}

// Default returns the compiled-in catalog.
func Default() *Catalog {
	c, err := NewCatalog(defaultConcepts)
	if err != nil {
		panic(err)
	}
	return c
}

// Concepts returns all concepts in catalog order.
func (c *Catalog) Concepts() []Concept {
	out := make([]Concept, len(c.concepts))
	copy(out, c.concepts)
	return out
}

// Concept returns a single concept by id.
func (c *Catalog) Concept(id string) (Concept, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Concept{}, false
	}
	return c.concepts[i], true
}

// Categories returns the display metadata of every record category, in
// essential, optional, sensitive order.
func Categories() []CategoryMetadata {
	out := make([]CategoryMetadata, len(categories))
	copy(out, categories)
	return out
}

// CategoryFor returns the display metadata of one category.
func CategoryFor(cat simulator.Category) (CategoryMetadata, bool) {
	for _, m := range categories {
		if m.Category == cat {
			return m, true
		}
	}
	return CategoryMetadata{}, false
}

var categories = []CategoryMetadata{
	{
		Category:    simulator.CategoryEssential,
		Label:       "Essential",
		Description: "Needed to provide the service. Processed on the basis of the contract.",
		Icon:        "shield",
		Tone:        "safe",
	},
	{
		Category:    simulator.CategoryOptional,
		Label:       "Optional",
		Description: "Processed only while the visitor has given consent.",
		Icon:        "eye",
		Tone:        "info",
	},
	{
		Category:    simulator.CategorySensitive,
		Label:       "Sensitive",
		Description: "Data whose exposure carries a high risk. Requires explicit consent.",
		Icon:        "alert-triangle",
		Tone:        "sensitive",
	},
}

var defaultConcepts = []Concept{
	{
		ID:          "data-minimization",
		Title:       "Data minimisation",
		Icon:        "🎯",
		Description: "Collect only the personal data you actually need for a stated purpose, and nothing more.",
		Example:     "A newsletter sign-up asks for an email address, not a date of birth or a phone number.",
		GDPRArticle: "Art. 5(1)(c) GDPR",
	},
	{
		ID:          "consent",
		Title:       "Informed consent",
		Icon:        "✅",
		Description: "Consent must be freely given, specific, informed and unambiguous. It can be withdrawn as easily as it was given.",
		Example:     "Marketing emails start only after the user ticks an unchecked box, and an unsubscribe link is in every message.",
		GDPRArticle: "Art. 6-7 GDPR",
	},
	{
		ID:          "right-of-access",
		Title:       "Right of access",
		Icon:        "🔍",
		Description: "Anyone can ask an organisation which personal data it holds about them, why, and for how long.",
		Example:     "A customer downloads a copy of every record the shop keeps about them from their account page.",
		GDPRArticle: "Art. 15 GDPR",
	},
	{
		ID:          "right-to-erasure",
		Title:       "Right to be forgotten",
		Icon:        "🗑️",
		Description: "People can ask for their data to be erased when it is no longer needed or consent is withdrawn.",
		Example:     "Closing an account removes the profile, addresses and purchase history instead of just hiding them.",
		GDPRArticle: "Art. 17 GDPR",
	},
	{
		ID:          "data-portability",
		Title:       "Data portability",
		Icon:        "📦",
		Description: "People can receive their data in a structured, machine-readable format and move it to another provider.",
		Example:     "A music service exports playlists as a JSON file that another service can import.",
		GDPRArticle: "Art. 20 GDPR",
	},
	{
		ID:          "privacy-by-design",
		Title:       "Privacy by design and by default",
		Icon:        "🏗️",
		Description: "Protection is built into systems from the start, and the most private settings are the default.",
		Example:     "A new app ships with location sharing off until the user turns it on.",
		GDPRArticle: "Art. 25 GDPR",
	},
	{
		ID:          "pseudonymization",
		Title:       "Pseudonymisation and anonymisation",
		Icon:        "🎭",
		Description: "Pseudonymised data can still be linked back to a person with extra information. Truly anonymous data falls outside the GDPR.",
		Example:     "Analytics store a random identifier instead of the customer's name, with the lookup table kept separately.",
		GDPRArticle: "Art. 4(5) GDPR, Recital 26",
	},
}
