package usecase

import (
	"context"

	"CosmicOptic/internal/domain/models"
	"CosmicOptic/pkg/plot"
)

// Frame kinds sent by Stream, in order: meta, chunk..., explanation, done.
const (
	FrameMeta        = "meta"
	FrameChunk       = "chunk"
	FrameExplanation = "explanation"
	FrameDone        = "done"
)

const DefaultChunkSize = 100

// StreamFrame is one message of a streamed analysis.
type StreamFrame struct {
	Type        string                 `json:"type"`
	Seq         int                    `json:"seq"`
	Offset      int                    `json:"offset,omitempty"`
	Time        []float64              `json:"time_points,omitempty"`
	Flux        []float64              `json:"light_curve_data,omitempty"`
	Result      *models.AnalysisResult `json:"result,omitempty"`
	Explanation *models.Explanation    `json:"shap_explanation,omitempty"`
}

// Stream analyzes sampleID and hands the result to emit piecewise so a
// client can draw the light curve progressively. The meta frame carries the
// result without its series.
func (s *PredictionService) Stream(ctx context.Context, sampleID string, chunk int, emit func(StreamFrame) error) error {
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	res, err := s.Predict(ctx, sampleID)
	if err != nil {
		return err
	}

	meta := *res
	meta.LightCurveData, meta.TimePoints, meta.SHAPExplanation = nil, nil, nil
	seq := 0
	if err := emit(StreamFrame{Type: FrameMeta, Seq: seq, Result: &meta}); err != nil {
		return err
	}

	n := min(len(res.TimePoints), len(res.LightCurveData))
	for off := 0; off < n; off += chunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(off+chunk, n)
		seq++
		if err := emit(StreamFrame{
			Type:   FrameChunk,
			Seq:    seq,
			Offset: off,
			Time:   res.TimePoints[off:end],
			Flux:   res.LightCurveData[off:end],
		}); err != nil {
			return err
		}
	}

	seq++
	if err := emit(StreamFrame{Type: FrameExplanation, Seq: seq, Explanation: res.SHAPExplanation}); err != nil {
		return err
	}
	seq++
	return emit(StreamFrame{Type: FrameDone, Seq: seq})
}

// PlotLightCurve renders the analysed light curve of sampleID as PNG with
// its highlighted transit regions.
func (s *PredictionService) PlotLightCurve(ctx context.Context, sampleID string, width, height int) ([]byte, error) {
	res, err := s.Predict(ctx, sampleID)
	if err != nil {
		return nil, err
	}
	spans := make([]plot.Span, 0, len(res.HighlightedRegions))
	for _, r := range res.HighlightedRegions {
		spans = append(spans, plot.Span{From: r.StartIndex, To: r.EndIndex})
	}
	return plot.RenderPNG(res.TimePoints, res.LightCurveData, spans,
		plot.WithSize(width, height),
		plot.WithTitle(res.Analysis.StarName+" ("+string(res.Classification)+")"),
	)
}
