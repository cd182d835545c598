// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package patch_test

import (
	"encoding/json"
	"testing"

	"codeberg.org/acmclub/certificates/internal/patch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workshopPatch struct {
	Title       patch.Field[string]   `json:"title"`
	Description patch.Field[string]   `json:"description"`
	Skills      patch.Field[[]string] `json:"skills"`
}

func TestField_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		titleSet  bool
		descSet   bool
		descNull  bool
		wantTitle string
	}{
		{name: "absent", body: `{}`},
		{name: "value", body: `{"title":"Go"}`, titleSet: true, wantTitle: "Go"},
		{name: "null", body: `{"description":null}`, descSet: true, descNull: true},
		{name: "empty string is a value", body: `{"title":""}`, titleSet: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p workshopPatch
			require.NoError(t, json.Unmarshal([]byte(tt.body), &p))

			assert.Equal(t, tt.titleSet, p.Title.Set)
			assert.Equal(t, tt.wantTitle, p.Title.Value)
			assert.Equal(t, tt.descSet, p.Description.Set)
			assert.Equal(t, tt.descNull, p.Description.Null)
		})
	}
}

func TestField_Slice(t *testing.T) {
	var p workshopPatch
	require.NoError(t, json.Unmarshal([]byte(`{"skills":["Go","SQL"]}`), &p))

	assert.True(t, p.Skills.HasValue())
	assert.Equal(t, []string{"Go", "SQL"}, p.Skills.Value)
}

func TestField_TypeMismatch(t *testing.T) {
	var p workshopPatch
	err := json.Unmarshal([]byte(`{"title":42}`), &p)

	assert.Error(t, err)
}

func TestField_Ptr(t *testing.T) {
	assert.Nil(t, patch.Null[string]().Ptr())

	v := patch.Value("text").Ptr()
	require.NotNil(t, v)
	assert.Equal(t, "text", *v)
}

func TestField_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(workshopPatch{Title: patch.Value("Go"), Description: patch.Null[string]()})

	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Go","description":null,"skills":null}`, string(out))
}
