package simulator

import "sync"

// Simulator binds a consent registry to a record store. Every method is
// atomic with respect to the others, and reads never observe partial updates.
type Simulator struct {
	mu       sync.RWMutex
	seed     Seed
	registry *Registry
	store    *Store
}

// New creates a simulator initialised from the seed.
func New(seed Seed) *Simulator {
	s := &Simulator{seed: seed}
	s.init()
	return s
}

func (s *Simulator) init() {
	s.registry = NewRegistry()
	s.store = NewStore(s.seed.records(s.registry.Map()))
}

// Tx is a write view of a simulator held under its lock. It is only valid
// inside the function passed to Update.
type Tx struct {
	s *Simulator
}

// SetConsent stores the state of a consent category and propagates it to
// the records it governs. It reports whether the category is known and how
// many records it governs; unknown categories are ignored.
func (tx *Tx) SetConsent(id ConsentID, granted bool) (bool, int) {
	if !tx.s.registry.Set(id, granted) {
		return false, 0
	}
	return true, tx.s.store.ApplyConsent(id, granted)
}

// Anonymize marks one record as anonymized. Unknown ids are ignored.
func (tx *Tx) Anonymize(id string) bool {
	return tx.s.store.Anonymize(id)
}

// DeleteRecord marks one record as deleted. Unknown ids are ignored.
func (tx *Tx) DeleteRecord(id string) bool {
	return tx.s.store.Delete(id)
}

// AnonymizeAll marks every record, deleted ones included, as anonymized.
func (tx *Tx) AnonymizeAll() int {
	return tx.s.store.AnonymizeAll()
}

// DeleteWithoutConsent deletes every record that lacks consent.
func (tx *Tx) DeleteWithoutConsent() int {
	return tx.s.store.DeleteWithoutConsent()
}

// Reset restores the seed records and the initial consent state.
func (tx *Tx) Reset() {
	tx.s.init()
}

// Update runs fn under the write lock and returns the state it left behind,
// captured before the lock is released.
func (s *Simulator) Update(fn func(tx *Tx)) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&Tx{s: s})
	return s.snapshot()
}

func (s *Simulator) write(fn func(tx *Tx)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&Tx{s: s})
}

// SetConsent is Tx.SetConsent under the simulator lock.
func (s *Simulator) SetConsent(id ConsentID, granted bool) (known bool, matched int) {
	s.write(func(tx *Tx) { known, matched = tx.SetConsent(id, granted) })
	return known, matched
}

// Anonymize is Tx.Anonymize under the simulator lock.
func (s *Simulator) Anonymize(id string) (ok bool) {
	s.write(func(tx *Tx) { ok = tx.Anonymize(id) })
	return ok
}

// DeleteRecord is Tx.DeleteRecord under the simulator lock.
func (s *Simulator) DeleteRecord(id string) (ok bool) {
	s.write(func(tx *Tx) { ok = tx.DeleteRecord(id) })
	return ok
}

// AnonymizeAll is Tx.AnonymizeAll under the simulator lock.
func (s *Simulator) AnonymizeAll() (n int) {
	s.write(func(tx *Tx) { n = tx.AnonymizeAll() })
	return n
}

// DeleteWithoutConsent is Tx.DeleteWithoutConsent under the simulator lock.
func (s *Simulator) DeleteWithoutConsent() (n int) {
	s.write(func(tx *Tx) { n = tx.DeleteWithoutConsent() })
	return n
}

// Reset is Tx.Reset under the simulator lock.
func (s *Simulator) Reset() {
	s.write(func(tx *Tx) { tx.Reset() })
}

// Record returns a copy of a single record.
func (s *Simulator) Record(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Get(id)
}

// ActiveRecords returns the non-deleted records in insertion order.
func (s *Simulator) ActiveRecords() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.ActiveRecords()
}

// Counts returns the derived counters.
func (s *Simulator) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Counts()
}

// Consents returns a copy of the consent registry.
func (s *Simulator) Consents() map[ConsentID]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Map()
}

// Snapshot returns a detached copy of the full simulator state.
func (s *Simulator) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Simulator) snapshot() *Snapshot {
	return &Snapshot{
		Consents: s.registry.Map(),
		Options:  s.seed.options(),
		Records:  s.store.Records(),
		Counts:   s.store.Counts(),
	}
}
