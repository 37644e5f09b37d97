package simulator

// Registry holds the granted or denied state of each consent category.
// It is not safe for concurrent use; Simulator serialises access.
type Registry struct {
	consents map[ConsentID]bool
}

// NewRegistry returns a registry in its initial state: essential granted,
// every other category denied.
func NewRegistry() *Registry {
	consents := make(map[ConsentID]bool, len(ConsentIDs))
	for _, id := range ConsentIDs {
		consents[id] = false
	}
	consents[ConsentEssential] = true
	return &Registry{consents: consents}
}

// Granted reports the state of a consent category. Unknown ids are denied.
func (r *Registry) Granted(id ConsentID) bool {
	return r.consents[id]
}

// Set stores the state of a known consent category and reports whether the
// id was known. Unknown ids leave the registry unchanged.
func (r *Registry) Set(id ConsentID, granted bool) bool {
	if _, ok := r.consents[id]; !ok {
		return false
	}
	r.consents[id] = granted
	return true
}

// Map returns a copy of the registry state.
func (r *Registry) Map() map[ConsentID]bool {
	out := make(map[ConsentID]bool, len(r.consents))
	for k, v := range r.consents {
		out[k] = v
	}
	return out
}
