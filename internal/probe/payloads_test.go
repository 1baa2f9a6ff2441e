package probe

import (
	"testing"

	"github.com/dmitrijs2005/gophportal/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	tests := []struct {
		kind       Kind
		categories []string
		payloads   int
	}{
		{KindSQLi, []string{"Authentication Bypass", "Union Based", "Error Based", "Blind SQL"}, 23},
		{KindXSS, []string{"Basic XSS", "Event Handlers", "HTML Attribute Break-outs", "Encoded XSS"}, 16},
		{KindHTML, []string{"Basic HTML", "HTML with Attributes", "Form Elements", "HTML5 Elements"}, 16},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			cats, err := Catalog(tt.kind)
			require.NoError(t, err)

			var names []string
			for _, c := range cats {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.categories, names)
			assert.Equal(t, tt.payloads, countPayloads(cats))
		})
	}
}

func TestCatalog_ReturnsCopy(t *testing.T) {
	cats, err := Catalog(KindSQLi)
	require.NoError(t, err)
	cats[0].Payloads[0] = "changed"

	again, err := Catalog(KindSQLi)
	require.NoError(t, err)
	assert.Equal(t, "' OR '1'='1", again[0].Payloads[0])
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" XSS ")
	require.NoError(t, err)
	assert.Equal(t, KindXSS, k)

	_, err = ParseKind("rce")
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = Catalog(Kind("rce"))
	require.ErrorIs(t, err, common.ErrValidation)
}
