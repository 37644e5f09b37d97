package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/privacyguard/privacyguard/internal/api/models"
	"github.com/privacyguard/privacyguard/internal/api/response"
	"github.com/privacyguard/privacyguard/internal/content"
)

// ContentHandler serves the static teaching material.
type ContentHandler struct {
	catalog *content.Catalog
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(catalog *content.Catalog) *ContentHandler {
	return &ContentHandler{catalog: catalog}
}

// ListConcepts handles GET /v1/content/concepts.
func (h *ContentHandler) ListConcepts(w http.ResponseWriter, r *http.Request) {
	concepts := h.catalog.Concepts()
	list := models.ConceptList{Items: make([]models.Concept, len(concepts))}
	for i, c := range concepts {
		list.Items[i] = toConcept(c)
	}
	response.OK(w, r, list)
}

// GetConcept handles GET /v1/content/concepts/{conceptId}.
func (h *ContentHandler) GetConcept(w http.ResponseWriter, r *http.Request) {
	c, ok := h.catalog.Concept(chi.URLParam(r, "conceptId"))
	if !ok {
		response.NotFound(w, r, "concept not found")
		return
	}
	response.OK(w, r, toConcept(c))
}

// ListCategories handles GET /v1/content/categories.
func (h *ContentHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats := content.Categories()
	list := models.CategoryList{Items: make([]models.CategoryMetadata, len(cats))}
	for i, m := range cats {
		list.Items[i] = models.CategoryMetadata{
			Category:    models.Category(m.Category),
			Label:       m.Label,
			Description: m.Description,
			Icon:        m.Icon,
			Tone:        m.Tone,
		}
	}
	response.OK(w, r, list)
}

func toConcept(c content.Concept) models.Concept {
	return models.Concept{
		ID:          c.ID,
		Title:       c.Title,
		Icon:        c.Icon,
		Description: c.Description,
		Example:     c.Example,
		GDPRArticle: c.GDPRArticle,
	}
}
