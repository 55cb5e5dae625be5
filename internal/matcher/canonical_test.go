package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "CARDIOLOGY", "cardiology"},
		{"strips accents", "Cardiología", "cardiologia"},
		{"strips tilde", "Niñez Temprana", "ninez temprana"},
		{"trims whitespace", "  Pediatría  ", "pediatria"},
		{"already canonical", "oncologia", "oncologia"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Canonicalize(tc.input))
		})
	}
}

func TestMatch(t *testing.T) {
	candidates := []string{"Cardiología", "Neurología", "Pediatría"}

	t.Run("matches despite diacritics and case", func(t *testing.T) {
		assert.Equal(t, []int{0}, Match("cardiologia", candidates))
		assert.Equal(t, []int{1}, Match("NEUROLOGIA", candidates))
	})

	t.Run("exact equality, not substring", func(t *testing.T) {
		assert.Empty(t, Match("cardio", candidates))
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, Match("dermatologia", candidates))
	})

	t.Run("reports every canonical collision", func(t *testing.T) {
		colliding := []string{"Pediatria", "Pediatría"}
		assert.Equal(t, []int{0, 1}, Match("pediatria", colliding))
	})
}
