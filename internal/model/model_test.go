package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_Validate(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		field string
	}{
		{"valid", Query{Industry: "restaurants", Location: "Austin, TX", Limit: 5}, ""},
		{"blank industry", Query{Industry: "  ", Location: "Austin", Limit: 5}, "industry"},
		{"blank location", Query{Industry: "dental", Location: "", Limit: 5}, "location"},
		{"zero limit", Query{Industry: "dental", Location: "Austin", Limit: 0}, "limit"},
		{"negative limit", Query{Industry: "dental", Location: "Austin", Limit: -2}, "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ce *ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestStageEmptyError_Message(t *testing.T) {
	allFailed := &StageEmptyError{Stage: StageDiscovery, Attempted: 3, Failed: 3}
	assert.Equal(t, "stage discovery: no results (all 3 adapters failed)", allFailed.Error())

	nothingFound := &StageEmptyError{Stage: StageDiscovery, Attempted: 3, Failed: 1}
	assert.Equal(t, "stage discovery: no results", nothingFound.Error())
}

func TestErrorHelpers_SeeThroughWrapping(t *testing.T) {
	base := errors.New("timeout")
	adapterErr := &AdapterError{Source: "yelp", Stage: StageDiscovery, Err: base}
	wrapped := fmt.Errorf("fanout: %w", adapterErr)

	assert.True(t, IsAdapterError(wrapped))
	assert.ErrorIs(t, wrapped, base)
	assert.False(t, IsStageEmpty(wrapped))
	assert.False(t, IsConfigurationError(wrapped))

	entityErr := &EntityProcessingError{EntityID: "e1", Stage: StageEnrichment, Err: adapterErr}
	assert.True(t, IsAdapterError(entityErr))
	assert.Contains(t, entityErr.Error(), "entity e1 (enrichment)")

	assert.True(t, IsConfigurationError(fmt.Errorf("load: %w", &ConfigurationError{Field: "limit", Reason: "bad"})))
	assert.True(t, IsStageEmpty(&StageEmptyError{Stage: StageContacts}))
}

func TestEntity_FieldPrefersEnrichment(t *testing.T) {
	e := Entity{
		Discovery:  MergedEntity{MergedFields: map[string]any{FieldPhone: "111", FieldWebsite: "a.com"}},
		Enrichment: MergedEntity{MergedFields: map[string]any{FieldPhone: "222"}},
	}
	assert.Equal(t, "222", e.Field(FieldPhone))
	assert.Equal(t, "a.com", e.Field(FieldWebsite))
	assert.Nil(t, e.Field(FieldEmail))
}

func TestEntity_RecordsOfKind(t *testing.T) {
	e := Entity{Enrichment: MergedEntity{Records: []Record{
		{Source: "social_media", Kind: KindSocialProfile},
		{Source: "news_api", Kind: KindNewsArticle},
		{Source: "social_media", Kind: KindSocialProfile},
	}}}
	assert.Len(t, e.RecordsOfKind(KindSocialProfile), 2)
	assert.Len(t, e.RecordsOfKind(KindNewsArticle), 1)
	assert.Empty(t, e.RecordsOfKind(KindDirectoryListing))
}

func TestAsStringAndPresent(t *testing.T) {
	assert.Equal(t, "", AsString(nil))
	assert.Equal(t, "abc", AsString("abc"))
	assert.Equal(t, "1999", AsString(1999))
	assert.Equal(t, "2.5", AsString(2.5))
	assert.Equal(t, "true", AsString(true))

	assert.False(t, Present(nil))
	assert.False(t, Present(""))
	assert.False(t, Present(0))
	assert.True(t, Present("x"))
	assert.True(t, Present(12))
	assert.True(t, Present([]string{}))
}

func TestContactFromRecord(t *testing.T) {
	r := Record{
		Source:     "linkedin",
		Kind:       KindContact,
		Confidence: 0.8,
		Fields: map[string]any{
			FieldName:  "Dana Ruiz",
			FieldTitle: "Owner",
			FieldEmail: "dana@example.com",
		},
	}
	c := ContactFromRecord(r, 3)
	assert.Equal(t, Contact{
		Name:       "Dana Ruiz",
		Title:      "Owner",
		Email:      "dana@example.com",
		Source:     "linkedin",
		Confidence: 0.8,
		Order:      3,
	}, c)
}
