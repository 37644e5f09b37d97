package models

// Category is a record category as exposed by the API.
type Category string

// CategoryMetadata is the display configuration of a record category.
type CategoryMetadata struct {
	Category    Category `json:"category"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Tone        string   `json:"tone"`
}

// CategoryList is the response of the category listing.
type CategoryList struct {
	Items []CategoryMetadata `json:"items"`
}

// Concept is a GDPR concept card.
type Concept struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Example     string `json:"example"`
	GDPRArticle string `json:"gdprArticle"`
}

// ConceptList is the response of the concept listing.
type ConceptList struct {
	Items []Concept `json:"items"`
}
