package models

import "github.com/privacyguard/privacyguard/internal/simulator"

// RecordView is a record as presented to the visitor. The raw value is only
// exposed while the record is not anonymized.
type RecordView struct {
	ID            string   `json:"id"`
	Field         string   `json:"field"`
	Value         string   `json:"value"`
	Category      Category `json:"category"`
	GovernedBy    *string  `json:"governedBy,omitempty"`
	HasConsent    bool     `json:"hasConsent"`
	RetentionDays int      `json:"retentionDays"`
	IsAnonymized  bool     `json:"isAnonymized"`
	IsDeleted     bool     `json:"isDeleted"`
}

// NewRecordView projects a record for display.
func NewRecordView(rec simulator.Record) RecordView {
	v := RecordView{
		ID:            rec.ID,
		Field:         rec.Field,
		Value:         rec.DisplayValue(),
		Category:      Category(rec.Category),
		HasConsent:    rec.HasConsent,
		RetentionDays: rec.RetentionDays,
		IsAnonymized:  rec.IsAnonymized,
		IsDeleted:     rec.IsDeleted,
	}
	if rec.GovernedBy != "" {
		g := string(rec.GovernedBy)
		v.GovernedBy = &g
	}
	return v
}

// NewRecordViews projects a list of records.
func NewRecordViews(records []simulator.Record) []RecordView {
	out := make([]RecordView, len(records))
	for i, rec := range records {
		out[i] = NewRecordView(rec)
	}
	return out
}

// ConsentView is one consent category with its current state.
type ConsentView struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Required    bool     `json:"required"`
	Granted     bool     `json:"granted"`
}

// NewConsentViews merges the consent options with the registry state, in
// option order.
func NewConsentViews(options []simulator.ConsentOption, consents map[simulator.ConsentID]bool) []ConsentView {
	out := make([]ConsentView, 0, len(options))
	for _, opt := range options {
		out = append(out, ConsentView{
			ID:          string(opt.ID),
			Label:       opt.Label,
			Description: opt.Description,
			Category:    Category(opt.Category),
			Required:    opt.Required,
			Granted:     consents[opt.ID],
		})
	}
	return out
}

// SimulatorCounts are the derived counters.
type SimulatorCounts struct {
	Total          int `json:"total"`
	Active         int `json:"active"`
	Deleted        int `json:"deleted"`
	Anonymized     int `json:"anonymized"`
	WithoutConsent int `json:"withoutConsent"`
}

// SimulatorActions reports which bulk actions currently have an effect.
type SimulatorActions struct {
	CanAnonymizeAll         bool `json:"canAnonymizeAll"`
	CanDeleteWithoutConsent bool `json:"canDeleteWithoutConsent"`
}

// SimulatorState is the full simulator snapshot.
type SimulatorState struct {
	Consents   []ConsentView    `json:"consents"`
	Records    []RecordView     `json:"records"`
	Counts     SimulatorCounts  `json:"counts"`
	Actions    SimulatorActions `json:"actions"`
	AllDeleted bool             `json:"allDeleted"`
}

// NewSimulatorState builds the response body for a snapshot. Only active
// records are listed.
func NewSimulatorState(snap *simulator.Snapshot) SimulatorState {
	return SimulatorState{
		Consents: NewConsentViews(snap.Options, snap.Consents),
		Records:  NewRecordViews(snap.ActiveRecords()),
		Counts:   NewSimulatorCounts(snap.Counts),
		Actions: SimulatorActions{
			CanAnonymizeAll:         snap.CanAnonymizeAll(),
			CanDeleteWithoutConsent: snap.CanDeleteWithoutConsent(),
		},
		AllDeleted: snap.AllDeleted(),
	}
}

// NewSimulatorCounts converts the core counters.
func NewSimulatorCounts(c simulator.Counts) SimulatorCounts {
	return SimulatorCounts{
		Total:          c.Total,
		Active:         c.Active,
		Deleted:        c.Deleted,
		Anonymized:     c.Anonymized,
		WithoutConsent: c.WithoutConsent,
	}
}

// RecordList is the response of the record listing.
type RecordList struct {
	Items  []RecordView    `json:"items"`
	Counts SimulatorCounts `json:"counts"`
}

// ConsentList is the response of the consent listing.
type ConsentList struct {
	Items []ConsentView `json:"items"`
}

// ConsentUpdate is the body of a consent toggle.
type ConsentUpdate struct {
	Granted *bool `json:"granted"`
}

// Validate validates the consent update.
func (u *ConsentUpdate) Validate() []FieldError {
	if u.Granted == nil {
		return []FieldError{{Field: "granted", Message: "granted is required", Code: "REQUIRED"}}
	}
	return nil
}

// HistoryEvent is one journaled operation.
type HistoryEvent struct {
	Operation string    `json:"operation"`
	Target    string    `json:"target,omitempty"`
	Applied   bool      `json:"applied"`
	Affected  int       `json:"affected"`
	At        Timestamp `json:"at"`
}

// History is the response of the history listing.
type History struct {
	Items []HistoryEvent `json:"items"`
}
