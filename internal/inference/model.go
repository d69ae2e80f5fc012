package inference

import (
	"context"
	"errors"

	"visionserver/internal/model"
)

var ErrModelNotLoaded = errors.New("model not loaded")

// Model is the inference capability. The runtime behind it is an external
// collaborator; this package ships the simulated implementation used by the
// reference deployment.
type Model interface {
	Load() error
	// Infer runs the model against one frame. It must honor ctx cancellation.
	Infer(ctx context.Context, frame *model.Frame) (*model.InferenceOutcome, error)
	Loaded() bool
}
