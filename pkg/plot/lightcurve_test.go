package plot

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPNG(t *testing.T) {
	x := make([]float64, 200)
	y := make([]float64, 200)
	for i := range x {
		x[i] = float64(i) * 0.15
		y[i] = 1
	}
	for i := 90; i <= 110; i++ {
		y[i] = 0.99
	}

	b, err := RenderPNG(x, y, []Span{{From: 90, To: 110}, {From: 190, To: 500}}, WithSize(400, 200), WithTitle("test"))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestRenderPNG_Empty(t *testing.T) {
	_, err := RenderPNG(nil, nil, nil)
	assert.Error(t, err)
}
