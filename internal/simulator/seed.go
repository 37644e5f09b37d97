package simulator

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Seed validation errors.
var (
	ErrEmptySeed           = errors.New("seed has no records")
	ErrDuplicateRecordID   = errors.New("duplicate record id")
	ErrInvalidCategory     = errors.New("invalid record category")
	ErrInvalidGovernedBy   = errors.New("invalid governing consent category")
	ErrEssentialGoverned   = errors.New("essential record cannot be governed by a consent category")
	ErrMissingConsentLabel = errors.New("consent option has no label")
)

// Seed is the initial dataset a simulator starts from and resets to.
type Seed struct {
	Records []SeedRecord    `yaml:"records"`
	Options []ConsentOption `yaml:"consent_options"`
}

// SeedRecord is a record as declared in a seed.
type SeedRecord struct {
	ID            string    `yaml:"id"`
	Field         string    `yaml:"field"`
	Value         string    `yaml:"value"`
	Category      Category  `yaml:"category"`
	GovernedBy    ConsentID `yaml:"governed_by"`
	RetentionDays int       `yaml:"retention_days"`
}

// DefaultSeed returns the built-in dataset: one fictional data subject with
// two essential fields and two fields per optional consent category.
func DefaultSeed() Seed {
	return Seed{
		Records: []SeedRecord{
			{ID: "rec_full_name", Field: "Full name", Value: "Mario Rossi", Category: CategoryEssential, RetentionDays: 3650},
			{ID: "rec_email", Field: "Email", Value: "mario.rossi@example.com", Category: CategoryEssential, RetentionDays: 3650},
			{ID: "rec_phone", Field: "Phone number", Value: "+39 340 1234567", Category: CategoryOptional, GovernedBy: ConsentContact, RetentionDays: 730},
			{ID: "rec_address", Field: "Address", Value: "Via Roma 42, Milano", Category: CategoryOptional, GovernedBy: ConsentContact, RetentionDays: 730},
			{ID: "rec_birth_date", Field: "Date of birth", Value: "15/03/1985", Category: CategorySensitive, GovernedBy: ConsentSensitive, RetentionDays: 365},
			{ID: "rec_tax_code", Field: "Tax code", Value: "RSSMRA85C15F205X", Category: CategorySensitive, GovernedBy: ConsentSensitive, RetentionDays: 365},
			{ID: "rec_marketing", Field: "Marketing preferences", Value: "Newsletter, seasonal offers", Category: CategoryOptional, GovernedBy: ConsentMarketing, RetentionDays: 180},
			{ID: "rec_purchases", Field: "Purchase history", Value: "Running shoes, headphones, coffee beans", Category: CategoryOptional, GovernedBy: ConsentMarketing, RetentionDays: 180},
		},
		Options: DefaultConsentOptions(),
	}
}

// DefaultConsentOptions returns the consent options offered by default.
func DefaultConsentOptions() []ConsentOption {
	return []ConsentOption{
		{
			ID:          ConsentEssential,
			Label:       "Essential data",
			Description: "Name and email, needed to provide the service. Always processed.",
			Category:    CategoryEssential,
			Required:    true,
		},
		{
			ID:          ConsentContact,
			Label:       "Contact details",
			Description: "Phone number and address, used to reach you about your orders.",
			Category:    CategoryOptional,
		},
		{
			ID:          ConsentSensitive,
			Label:       "Identity data",
			Description: "Date of birth and tax code, used for identity verification.",
			Category:    CategorySensitive,
		},
		{
			ID:          ConsentMarketing,
			Label:       "Marketing",
			Description: "Preferences and purchase history, used for personalised offers.",
			Category:    CategoryOptional,
		},
	}
}

// LoadSeedFile reads a YAML seed file. Environment variables referenced as
// ${VAR} are expanded before parsing. Consent options default to
// DefaultConsentOptions when the file declares none.
func LoadSeedFile(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &seed); err != nil {
		return Seed{}, fmt.Errorf("parse seed file: %w", err)
	}
	if len(seed.Options) == 0 {
		seed.Options = DefaultConsentOptions()
	}

	if err := seed.Validate(); err != nil {
		return Seed{}, err
	}
	return seed, nil
}

// Validate checks the seed for structural errors.
func (s Seed) Validate() error {
	if len(s.Records) == 0 {
		return ErrEmptySeed
	}

	seen := make(map[string]struct{}, len(s.Records))
	for _, rec := range s.Records {
		if _, dup := seen[rec.ID]; dup || rec.ID == "" {
			return fmt.Errorf("%w: %q", ErrDuplicateRecordID, rec.ID)
		}
		seen[rec.ID] = struct{}{}

		if !rec.Category.Valid() {
			return fmt.Errorf("%w: record %s has %q", ErrInvalidCategory, rec.ID, rec.Category)
		}
		if rec.Category == CategoryEssential {
			if rec.GovernedBy != "" {
				return fmt.Errorf("%w: record %s", ErrEssentialGoverned, rec.ID)
			}
			continue
		}
		if !rec.GovernedBy.Valid() || rec.GovernedBy == ConsentEssential {
			return fmt.Errorf("%w: record %s has %q", ErrInvalidGovernedBy, rec.ID, rec.GovernedBy)
		}
	}

	for _, opt := range s.Options {
		if !opt.ID.Valid() {
			return fmt.Errorf("%w: option %q", ErrInvalidGovernedBy, opt.ID)
		}
		if opt.Label == "" {
			return fmt.Errorf("%w: option %s", ErrMissingConsentLabel, opt.ID)
		}
	}
	return nil
}

// records materialises the seed into fresh records evaluated against the
// given consent state.
func (s Seed) records(consents map[ConsentID]bool) []Record {
	out := make([]Record, len(s.Records))
	for i, sr := range s.Records {
		out[i] = Record{
			ID:            sr.ID,
			Field:         sr.Field,
			Value:         sr.Value,
			Category:      sr.Category,
			GovernedBy:    sr.GovernedBy,
			HasConsent:    sr.Category == CategoryEssential || consents[sr.GovernedBy],
			RetentionDays: sr.RetentionDays,
		}
	}
	return out
}

func (s Seed) options() []ConsentOption {
	out := make([]ConsentOption, len(s.Options))
	copy(out, s.Options)
	return out
}
