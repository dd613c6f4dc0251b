package emotion

import (
	"context"
	"fmt"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

// HugotClassifier runs an exported text-classification model (for example
// j-hartmann/emotion-english-distilroberta-base) in-process through hugot.
type HugotClassifier struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
}

// NewHugotClassifier loads the ONNX model found at modelPath.
func NewHugotClassifier(modelPath string) (*HugotClassifier, error) {
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "emotion-classifier",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create emotion pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create emotion pipeline: %w", err)
	}

	return &HugotClassifier{session: session, pipeline: pipeline}, nil
}

// Classify implements Classifier, returning the top label of the model.
func (c *HugotClassifier) Classify(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	return runWithContext(ctx, func() (string, error) {
		result, err := c.pipeline.RunPipeline([]string{text})
		if err != nil {
			return "", fmt.Errorf("failed to run emotion pipeline: %w", err)
		}
		if len(result.ClassificationOutputs) == 0 || len(result.ClassificationOutputs[0]) == 0 {
			return "", fmt.Errorf("emotion pipeline returned no label")
		}

		best := result.ClassificationOutputs[0][0]
		for _, candidate := range result.ClassificationOutputs[0][1:] {
			if candidate.Score > best.Score {
				best = candidate
			}
		}
		return strings.ToLower(best.Label), nil
	})
}

// Close releases the hugot session.
func (c *HugotClassifier) Close() error {
	if c == nil || c.session == nil {
		return nil
	}
	return c.session.Destroy()
}
