package usecase

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"

	domrepo "CosmicOptic/internal/domain/repository"
	"CosmicOptic/internal/services/lightcurve"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_FrameOrder(t *testing.T) {
	f := newFixture(t)
	var frames []StreamFrame
	err := f.svc.Stream(context.Background(), "kepler-186f", 300, func(fr StreamFrame) error {
		frames = append(frames, fr)
		return nil
	})
	require.NoError(t, err)

	// meta + ceil(1000/300) chunks + explanation + done
	require.Len(t, frames, 1+4+1+1)
	assert.Equal(t, FrameMeta, frames[0].Type)
	require.NotNil(t, frames[0].Result)
	assert.Nil(t, frames[0].Result.LightCurveData)
	assert.NotEmpty(t, frames[0].Result.HighlightedRegions)

	total := 0
	for i, fr := range frames[1:5] {
		assert.Equal(t, FrameChunk, fr.Type)
		assert.Equal(t, i*300, fr.Offset)
		assert.Equal(t, len(fr.Time), len(fr.Flux))
		total += len(fr.Flux)
	}
	assert.Equal(t, lightcurve.DefaultNumPoints, total)
	assert.Equal(t, FrameExplanation, frames[5].Type)
	require.NotNil(t, frames[5].Explanation)
	assert.Equal(t, FrameDone, frames[6].Type)

	for i, fr := range frames {
		assert.Equal(t, i, fr.Seq)
	}
}

func TestStream_StopsOnEmitError(t *testing.T) {
	f := newFixture(t)
	stop := errors.New("client gone")
	calls := 0
	err := f.svc.Stream(context.Background(), "eb-001", 0, func(StreamFrame) error {
		calls++
		if calls == 2 {
			return stop
		}
		return nil
	})
	assert.True(t, errors.Is(err, stop))
	assert.Equal(t, 2, calls)
}

func TestStream_UnknownSample(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Stream(context.Background(), "nope", 0, func(StreamFrame) error {
		t.Fatal("no frame expected")
		return nil
	})
	assert.True(t, errors.Is(err, domrepo.ErrSampleNotFound))
}

func TestPlotLightCurve(t *testing.T) {
	f := newFixture(t)
	b, err := f.svc.PlotLightCurve(context.Background(), "trappist-1e", 600, 240)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dx())
}
