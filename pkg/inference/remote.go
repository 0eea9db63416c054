package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/neurocare-patient-server/internal/domain"
)

// predictRequest is the wire format sent to the model service.
type predictRequest struct {
	Image string `json:"image"`
}

// predictResponse is the wire format returned by the model service.
type predictResponse struct {
	PredictedClass string  `json:"predictedClass"`
	Confidence     float64 `json:"confidence"`
	ModelVersion   string  `json:"modelVersion"`
}

// RemoteClassifier calls an external model service over HTTP, guarded by
// a circuit breaker and a client-side rate limiter.
type RemoteClassifier struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	rateLimit  *rate.Limiter
	logger     *logrus.Logger
}

// NewRemoteClassifier creates a classifier client from the inference
// config.
func NewRemoteClassifier(config domain.InferenceConfig, logger *logrus.Logger) *RemoteClassifier {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rateLimit := config.RateLimit
	if rateLimit <= 0 {
		rateLimit = 5
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "inference",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &RemoteClassifier{
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		rateLimit:  rate.NewLimiter(rate.Limit(rateLimit), 1),
		logger:     logger,
	}
}

// Classify sends the image to the model service.
func (c *RemoteClassifier) Classify(ctx context.Context, image []byte) (*domain.Prediction, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("classifying empty image")
	}

	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.predict(ctx, image)
	})
	if err != nil {
		return nil, fmt.Errorf("model service prediction failed: %w", err)
	}

	return result.(*domain.Prediction), nil
}

func (c *RemoteClassifier) predict(ctx context.Context, image []byte) (*domain.Prediction, error) {
	body, err := json.Marshal(predictRequest{
		Image: base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding prediction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building prediction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling model service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("model service returned status %d: %s", resp.StatusCode, payload)
	}

	var decoded predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding prediction response: %w", err)
	}

	class := domain.DementiaClass(decoded.PredictedClass)
	if !class.Valid() {
		return nil, fmt.Errorf("model service returned unknown class %q", decoded.PredictedClass)
	}
	if decoded.Confidence < 0 || decoded.Confidence > 100 {
		return nil, fmt.Errorf("model service returned confidence %g out of range", decoded.Confidence)
	}

	modelVersion := decoded.ModelVersion
	if modelVersion == "" {
		modelVersion = domain.DefaultModelVersion
	}

	return &domain.Prediction{
		PredictedClass: class,
		Confidence:     decoded.Confidence,
		ModelVersion:   modelVersion,
	}, nil
}
