package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Igreja Batista Central", "igreja-batista-central"},
		{"accents", "Comunidade São João", "comunidade-sao-joao"},
		{"punctuation runs", "  Igreja -- Vida!! Nova ", "igreja-vida-nova"},
		{"digits kept", "Assembleia 2ª Região", "assembleia-2-regiao"},
		{"cedilla", "Congregação", "congregacao"},
		{"empty", "", ""},
		{"only symbols", "***", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugField_FollowsNameUntilEdited(t *testing.T) {
	f := NewSlugField("")
	assert.False(t, f.Manual())

	f.SetName("Igreja Batista")
	assert.Equal(t, "igreja-batista", f.Value())
	f.SetName("Igreja Batista Central")
	assert.Equal(t, "igreja-batista-central", f.Value())

	f.SetSlug("ibc")
	assert.True(t, f.Manual())
	f.SetName("Outro Nome")
	assert.Equal(t, "ibc", f.Value())
}

func TestSlugField_ExistingSlugIsManual(t *testing.T) {
	f := NewSlugField("primeira-igreja")
	f.SetName("Segunda Igreja")
	assert.Equal(t, "primeira-igreja", f.Value())
}
