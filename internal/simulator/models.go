// Package simulator provides the in-memory personal-data simulator: a consent
// registry, a record store and the display masking applied to anonymized values.
package simulator

// Category classifies a record by how the data may be processed.
type Category string

// Record categories.
const (
	CategoryEssential Category = "essential"
	CategoryOptional  Category = "optional"
	CategorySensitive Category = "sensitive"
)

// Valid reports whether c is a known record category.
func (c Category) Valid() bool {
	switch c {
	case CategoryEssential, CategoryOptional, CategorySensitive:
		return true
	}
	return false
}

// ConsentID identifies a consent category in the registry.
type ConsentID string

// Consent categories.
const (
	ConsentEssential ConsentID = "essential"
	ConsentContact   ConsentID = "contact"
	ConsentSensitive ConsentID = "sensitive"
	ConsentMarketing ConsentID = "marketing"
)

// ConsentIDs lists the fixed consent categories in display order.
var ConsentIDs = []ConsentID{ConsentEssential, ConsentContact, ConsentSensitive, ConsentMarketing}

// Valid reports whether id is one of the fixed consent categories.
func (id ConsentID) Valid() bool {
	for _, known := range ConsentIDs {
		if id == known {
			return true
		}
	}
	return false
}

// Record is a single simulated personal-data field.
type Record struct {
	ID            string
	Field         string
	Value         string
	Category      Category
	GovernedBy    ConsentID // empty for essential records
	HasConsent    bool
	RetentionDays int
	IsAnonymized  bool
	IsDeleted     bool
}

// DisplayValue returns the masked value for anonymized records and the raw
// value otherwise.
func (r Record) DisplayValue() string {
	if r.IsAnonymized {
		return Mask(r.Value)
	}
	return r.Value
}

// ConsentOption describes a consent category as offered to the user.
type ConsentOption struct {
	ID          ConsentID `yaml:"id"`
	Label       string    `yaml:"label"`
	Description string    `yaml:"description"`
	Category    Category  `yaml:"category"`
	Required    bool      `yaml:"required"`
}

// Counts holds the derived counters over the record collection.
type Counts struct {
	Total          int
	Active         int
	Deleted        int
	Anonymized     int
	WithoutConsent int
}

// Snapshot is a consistent, detached copy of a simulator's state.
type Snapshot struct {
	Consents map[ConsentID]bool
	Options  []ConsentOption
	Records  []Record
	Counts   Counts
}

// ActiveRecords returns the non-deleted records of the snapshot in order.
func (s *Snapshot) ActiveRecords() []Record {
	active := make([]Record, 0, s.Counts.Active)
	for _, rec := range s.Records {
		if !rec.IsDeleted {
			active = append(active, rec)
		}
	}
	return active
}

// CanAnonymizeAll reports whether at least one active record is still clear.
func (s *Snapshot) CanAnonymizeAll() bool {
	return s.Counts.Anonymized != s.Counts.Active
}

// CanDeleteWithoutConsent reports whether any active record lacks consent.
func (s *Snapshot) CanDeleteWithoutConsent() bool {
	return s.Counts.WithoutConsent > 0
}

// AllDeleted reports whether every record has been erased.
func (s *Snapshot) AllDeleted() bool {
	return s.Counts.Active == 0
}
