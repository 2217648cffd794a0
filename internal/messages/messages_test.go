package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnglishDefaults(t *testing.T) {
	c, err := New("en")
	require.NoError(t, err)

	assert.Equal(t, "Book added successfully!", c.Get(BookAdded))
	assert.Equal(t, "Unauthorized. Please log in again.", c.Get(Unauthorized))
	assert.Equal(t, c.Get(LoginFailed), English().Get(LoginFailed))
}

func TestSpanishTranslation(t *testing.T) {
	c, err := New("es")
	require.NoError(t, err)

	assert.Equal(t, "¡Libro añadido correctamente!", c.Get(BookAdded))
}

func TestUnknownLanguageFallsBackToEnglish(t *testing.T) {
	c, err := New("xx")
	require.NoError(t, err)

	assert.Equal(t, "Book deleted successfully!", c.Get(BookDeleted))
}

func TestEveryIDHasADefault(t *testing.T) {
	for id, text := range defaults {
		assert.NotEmpty(t, text, id)
	}
	assert.Len(t, defaults, 12)
}
