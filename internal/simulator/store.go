package simulator

// Store is the ordered collection of simulated records.
// It is not safe for concurrent use; Simulator serialises access.
type Store struct {
	records []Record
}

// NewStore returns a store holding the given records in order.
func NewStore(records []Record) *Store {
	return &Store{records: records}
}

func (s *Store) find(id string) *Record {
	for i := range s.records {
		if s.records[i].ID == id {
			return &s.records[i]
		}
	}
	return nil
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(id string) (Record, bool) {
	rec := s.find(id)
	if rec == nil {
		return Record{}, false
	}
	return *rec, true
}

// Anonymize flags a record as anonymized. The raw value is retained.
// It reports whether the id matched a record.
func (s *Store) Anonymize(id string) bool {
	rec := s.find(id)
	if rec == nil {
		return false
	}
	rec.IsAnonymized = true
	return true
}

// Delete flags a record as deleted and reports whether the id matched.
func (s *Store) Delete(id string) bool {
	rec := s.find(id)
	if rec == nil {
		return false
	}
	rec.IsDeleted = true
	return true
}

// AnonymizeAll flags every record as anonymized, deleted ones included, and
// returns how many records were not anonymized before.
func (s *Store) AnonymizeAll() int {
	changed := 0
	for i := range s.records {
		if !s.records[i].IsAnonymized {
			changed++
		}
		s.records[i].IsAnonymized = true
	}
	return changed
}

// DeleteWithoutConsent flags every record lacking consent as deleted and
// returns how many active records it removed.
func (s *Store) DeleteWithoutConsent() int {
	changed := 0
	for i := range s.records {
		if s.records[i].HasConsent {
			continue
		}
		if !s.records[i].IsDeleted {
			changed++
		}
		s.records[i].IsDeleted = true
	}
	return changed
}

// ApplyConsent sets HasConsent on every record governed by the category.
// Essential records are never governed and keep their consent.
func (s *Store) ApplyConsent(id ConsentID, granted bool) int {
	matched := 0
	for i := range s.records {
		if s.records[i].GovernedBy == id && s.records[i].Category != CategoryEssential {
			s.records[i].HasConsent = granted
			matched++
		}
	}
	return matched
}

// Records returns a copy of every record in insertion order.
func (s *Store) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// ActiveRecords returns copies of the non-deleted records in insertion order.
func (s *Store) ActiveRecords() []Record {
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		if !rec.IsDeleted {
			out = append(out, rec)
		}
	}
	return out
}

// Counts computes the derived counters.
func (s *Store) Counts() Counts {
	c := Counts{Total: len(s.records)}
	for _, rec := range s.records {
		if rec.IsDeleted {
			c.Deleted++
			continue
		}
		c.Active++
		if rec.IsAnonymized {
			c.Anonymized++
		}
		if !rec.HasConsent {
			c.WithoutConsent++
		}
	}
	return c
}
