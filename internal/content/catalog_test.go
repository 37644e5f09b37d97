package content_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privacyguard/privacyguard/internal/content"
	"github.com/privacyguard/privacyguard/internal/simulator"
)

func TestDefault(t *testing.T) {
	catalog := content.Default()
	concepts := catalog.Concepts()
	require.NotEmpty(t, concepts)

	for _, c := range concepts {
		assert.NotEmpty(t, c.Title, c.ID)
		assert.NotEmpty(t, c.Description, c.ID)
		assert.NotEmpty(t, c.Example, c.ID)
		assert.Contains(t, c.GDPRArticle, "GDPR", c.ID)

		got, ok := catalog.Concept(c.ID)
		require.True(t, ok, c.ID)
		assert.Equal(t, c, got)
	}

	erasure, ok := catalog.Concept("right-to-erasure")
	require.True(t, ok)
	assert.Equal(t, "Art. 17 GDPR", erasure.GDPRArticle)
}

func TestCatalog_UnknownConcept(t *testing.T) {
	_, ok := content.Default().Concept("right-to-be-annoyed")
	assert.False(t, ok)
}

func TestCatalog_ConceptsAreCopied(t *testing.T) {
	catalog := content.Default()
	concepts := catalog.Concepts()
	concepts[0].Title = "changed"

	assert.NotEqual(t, "changed", catalog.Concepts()[0].Title)
}

func TestNewCatalog_Errors(t *testing.T) {
	_, err := content.NewCatalog([]content.Concept{{ID: "a"}, {ID: "a"}})
	assert.ErrorIs(t, err, content.ErrDuplicateConcept)

	_, err = content.NewCatalog([]content.Concept{{Title: "no id"}})
	assert.Error(t, err)
}

func TestCategories(t *testing.T) {
	cats := content.Categories()
	require.Len(t, cats, 3)

	tests := []struct {
		category simulator.Category
		label    string
		icon     string
		tone     string
	}{
		{simulator.CategoryEssential, "Essential", "shield", "safe"},
		{simulator.CategoryOptional, "Optional", "eye", "info"},
		{simulator.CategorySensitive, "Sensitive", "alert-triangle", "sensitive"},
	}

	for i, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.category, cats[i].Category)

			m, ok := content.CategoryFor(tt.category)
			require.True(t, ok)
			assert.Equal(t, tt.label, m.Label)
			assert.Equal(t, tt.icon, m.Icon)
			assert.Equal(t, tt.tone, m.Tone)
		})
	}

	_, ok := content.CategoryFor("public")
	assert.False(t, ok)
}
