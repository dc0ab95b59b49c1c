package render_test

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/duskforge/arena/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCard_Dimensions(t *testing.T) {
	img := render.Card(render.CardView{ID: 1, Name: "Lobo", Rank: "bronze", Level: 2, HP: 10, HPMax: 25})
	bounds := img.Bounds()
	assert.Equal(t, 360, bounds.Dx())
	assert.Equal(t, 140, bounds.Dy())
}

func TestCard_WithPortrait(t *testing.T) {
	portrait := image.NewRGBA(image.Rect(0, 0, 64, 64))
	img := render.Card(render.CardView{ID: 2, Name: "Lobo", HP: 0, HPMax: 25, Portrait: portrait})
	assert.Equal(t, 360, img.Bounds().Dx())
}

func TestGrid_Layout(t *testing.T) {
	card := render.Card(render.CardView{ID: 1, Name: "Lobo", HP: 5, HPMax: 5})

	grid := render.Grid([]image.Image{card, card, card, card}, 3)
	require.NotNil(t, grid)
	assert.Equal(t, 3*360, grid.Bounds().Dx(), "four cards in three columns span three card widths")
	assert.Equal(t, 2*140, grid.Bounds().Dy())

	narrow := render.Grid([]image.Image{card, card}, 3)
	assert.Equal(t, 2*360, narrow.Bounds().Dx(), "row narrower than the column count shrinks to fit")

	assert.Nil(t, render.Grid(nil, 3))
}

func TestEncodePNG_RoundTrips(t *testing.T) {
	card := render.Card(render.CardView{ID: 1, Name: "Lobo", HP: 5, HPMax: 5})
	data, err := render.EncodePNG(card)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, card.Bounds(), decoded.Bounds())
}
