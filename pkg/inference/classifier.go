// Package inference provides the MRI dementia classifiers: a bundled
// simulator for deployments without a model service, and an HTTP client
// for a real inference backend.
package inference

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/neurocare-patient-server/internal/domain"
)

// classWeights skews the simulator towards the milder classes, roughly
// matching the class balance of the public Alzheimer's MRI datasets.
var classWeights = []struct {
	class  domain.DementiaClass
	weight uint32
}{
	{domain.NON_DEMENTED, 40},
	{domain.VERY_MILD, 30},
	{domain.MILD, 20},
	{domain.MODERATE, 10},
}

// StubClassifier simulates the model service. The prediction is a pure
// function of the image bytes, so resubmitting the same scan yields the
// same class and confidence.
type StubClassifier struct {
	modelVersion string
}

// NewStubClassifier creates the simulator. An empty model version falls
// back to the default.
func NewStubClassifier(modelVersion string) *StubClassifier {
	if modelVersion == "" {
		modelVersion = domain.DefaultModelVersion
	}
	return &StubClassifier{modelVersion: modelVersion}
}

// Classify produces a deterministic prediction for the image.
func (c *StubClassifier) Classify(ctx context.Context, image []byte) (*domain.Prediction, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("classifying empty image")
	}

	h := fnv.New32a()
	h.Write(image)
	digest := h.Sum32()

	var total uint32
	for _, cw := range classWeights {
		total += cw.weight
	}

	pick := digest % total
	class := classWeights[len(classWeights)-1].class
	for _, cw := range classWeights {
		if pick < cw.weight {
			class = cw.class
			break
		}
		pick -= cw.weight
	}

	// Confidence in [70, 99], also derived from the digest
	confidence := 70.0 + float64(digest%2900)/100.0

	return &domain.Prediction{
		PredictedClass: class,
		Confidence:     confidence,
		ModelVersion:   c.modelVersion,
	}, nil
}
