package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurocare-patient-server/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestStubClassifierDeterministic(t *testing.T) {
	classifier := NewStubClassifier("")
	ctx := context.Background()
	image := []byte("mri scan payload")

	first, err := classifier.Classify(ctx, image)
	require.NoError(t, err)
	second, err := classifier.Classify(ctx, image)
	require.NoError(t, err)

	assert.Equal(t, first.PredictedClass, second.PredictedClass)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, domain.DefaultModelVersion, first.ModelVersion)
}

func TestStubClassifierOutputRanges(t *testing.T) {
	classifier := NewStubClassifier("test-model")
	ctx := context.Background()

	images := [][]byte{
		[]byte("scan one"),
		[]byte("scan two"),
		[]byte("scan three"),
		[]byte("a much longer synthetic scan payload for variety"),
	}

	for _, image := range images {
		prediction, err := classifier.Classify(ctx, image)
		require.NoError(t, err)
		assert.True(t, prediction.PredictedClass.Valid(),
			"class %q must be a supported value", prediction.PredictedClass)
		assert.GreaterOrEqual(t, prediction.Confidence, 70.0)
		assert.Less(t, prediction.Confidence, 99.0)
		assert.Equal(t, "test-model", prediction.ModelVersion)
	}
}

func TestStubClassifierEmptyImage(t *testing.T) {
	classifier := NewStubClassifier("")
	_, err := classifier.Classify(context.Background(), nil)
	assert.Error(t, err)
}

func remoteConfig(baseURL string) domain.InferenceConfig {
	return domain.InferenceConfig{
		Mode:      "remote",
		BaseURL:   baseURL,
		Timeout:   5 * time.Second,
		RateLimit: 100,
	}
}

func TestRemoteClassifier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)

		var req predictRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.Image)

		json.NewEncoder(w).Encode(predictResponse{
			PredictedClass: "Very Mild Dementia",
			Confidence:     88.4,
			ModelVersion:   "resnet-v2",
		})
	}))
	defer server.Close()

	classifier := NewRemoteClassifier(remoteConfig(server.URL), testLogger())

	prediction, err := classifier.Classify(context.Background(), []byte("scan"))
	require.NoError(t, err)
	assert.Equal(t, domain.VERY_MILD, prediction.PredictedClass)
	assert.Equal(t, 88.4, prediction.Confidence)
	assert.Equal(t, "resnet-v2", prediction.ModelVersion)
}

func TestRemoteClassifierRejectsBadResponses(t *testing.T) {
	tests := []struct {
		name     string
		response predictResponse
	}{
		{"unknown class", predictResponse{PredictedClass: "Severe", Confidence: 50}},
		{"confidence out of range", predictResponse{PredictedClass: "Mild Dementia", Confidence: 150}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			classifier := NewRemoteClassifier(remoteConfig(server.URL), testLogger())
			_, err := classifier.Classify(context.Background(), []byte("scan"))
			assert.Error(t, err)
		})
	}
}

func TestRemoteClassifierServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	classifier := NewRemoteClassifier(remoteConfig(server.URL), testLogger())
	_, err := classifier.Classify(context.Background(), []byte("scan"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestRemoteClassifierCircuitOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	classifier := NewRemoteClassifier(remoteConfig(server.URL), testLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := classifier.Classify(ctx, []byte("scan"))
		require.Error(t, err)
	}

	// Breaker is open now; the request fails without reaching the server
	_, err := classifier.Classify(ctx, []byte("scan"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "circuit breaker is open")
}
