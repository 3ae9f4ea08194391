package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidRating(t *testing.T) {
	for _, r := range []float64{0, 0.5, 1, 3.5, 4.5, 5} {
		assert.True(t, ValidRating(r), "%v", r)
	}
	for _, r := range []float64{-0.5, 5.5, 3.2, 4.75, math.NaN()} {
		assert.False(t, ValidRating(r), "%v", r)
	}
}

func TestHalfStarValue(t *testing.T) {
	assert.Equal(t, 0.5, HalfStarValue(0, 3, 20))
	assert.Equal(t, 1.0, HalfStarValue(0, 10, 20))
	assert.Equal(t, 4.5, HalfStarValue(4, 9.9, 20))
	assert.Equal(t, 5.0, HalfStarValue(4, 19, 20))
	assert.Equal(t, 3.0, HalfStarValue(2, 0, 0), "unknown width selects the full star")
}

func TestDateAndParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), d)

	assert.Equal(t, d, Date(time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC)))

	_, err = ParseDate("06/01/2024")
	assert.Error(t, err)
}

func TestProfile_DisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&Profile{FirstName: "Ada", LastName: "Lovelace"}).DisplayName())
	assert.Equal(t, "ada", (&Profile{Email: "ada@puros.app"}).DisplayName())
	assert.Equal(t, "Someone", (&Profile{}).DisplayName())
}
