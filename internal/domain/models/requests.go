package models

// Requests for prediction HTTP endpoints. Defined in domain for reuse by the Kafka transport.

type PredictRequest struct {
	SampleID string `query:"sample_id" json:"sample_id" validate:"required,max=128"`
}

type PlotRequest struct {
	ID     string `param:"id" validate:"required,max=128"`
	Width  int    `query:"width" default:"900" validate:"gte=200,lte=4000"`
	Height int    `query:"height" default:"320" validate:"gte=100,lte=2000"`
}

// PredictEvent is the Kafka request payload.
type PredictEvent struct {
	RequestID string `json:"request_id"`
	SampleID  string `json:"sample_id" validate:"required,max=128"`
}

// PredictOutcome is published for every consumed PredictEvent.
type PredictOutcome struct {
	RequestID string          `json:"request_id"`
	SampleID  string          `json:"sample_id"`
	Result    *AnalysisResult `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}
