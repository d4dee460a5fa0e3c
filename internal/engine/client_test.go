package engine_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/book-expert/vc-service/internal/core"
	"github.com/book-expert/vc-service/internal/engine"
)

// testEngineConfig returns the configuration used by the wire-format tests.
func testEngineConfig() core.ConversionConfig {
	return core.ConversionConfig{
		Tag:                        "USER_12345678",
		ModelPath:                  "/models/narrator.pth",
		PitchAlgorithm:             "rmvpe",
		PitchLevel:                 0,
		IndexPath:                  "/models/narrator.index",
		IndexInfluence:             0.75,
		RespirationMedianFiltering: true,
		EnvelopeRatio:              0.25,
		ConsonantBreathProtection:  false,
		AudioFiles:                 []string{"/in/chapter-01.wav"},
		ResampleRate:               44100,
	}
}

// TestNewClient verifies client creation with proper configuration.
func TestNewClient(t *testing.T) {
	t.Parallel()

	const (
		testBaseURL = "http://localhost:8001"
		testTimeout = 30 * time.Second
	)

	client := engine.NewClient(testBaseURL, testTimeout)

	if client == nil {
		t.Fatal("NewClient returned nil")
	}
}

// TestClient_ApplyConfig_Success verifies the configuration wire format.
func TestClient_ApplyConfig_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, request *http.Request) {
			validateConfigRequest(t, request)
			validateConfigPayload(t, request)
			responseWriter.WriteHeader(http.StatusOK)
		},
	))
	defer server.Close()

	client := engine.NewClient(server.URL, 10*time.Second)

	err := client.ApplyConfig(context.Background(), testEngineConfig())
	if err != nil {
		t.Fatalf("ApplyConfig failed: %v", err)
	}
}

func validateConfigRequest(t *testing.T, request *http.Request) {
	t.Helper()

	if request.Method != http.MethodPost {
		t.Errorf("Expected POST, got %s", request.Method)
	}

	if request.URL.Path != "/v1/config" {
		t.Errorf("Expected /v1/config, got %s", request.URL.Path)
	}

	if contentType := request.Header.Get("Content-Type"); contentType != "application/json" {
		t.Errorf(
			"Expected Content-Type application/json, got %s",
			contentType,
		)
	}
}

// validateConfigPayload pins the JSON field names of the engine contract.
func validateConfigPayload(t *testing.T, request *http.Request) {
	t.Helper()

	var payload map[string]any

	err := json.NewDecoder(request.Body).Decode(&payload)
	if err != nil {
		t.Fatalf("Failed to decode config payload: %v", err)
	}

	expected := map[string]any{
		"tag":                          "USER_12345678",
		"file_model":                   "/models/narrator.pth",
		"pitch_algo":                   "rmvpe",
		"pitch_lvl":                    float64(0),
		"file_index":                   "/models/narrator.index",
		"index_influence":              0.75,
		"respiration_median_filtering": true,
		"envelope_ratio":               0.25,
		"consonant_breath_protection":  false,
		"resample_sr":                  float64(44100),
	}

	for key, want := range expected {
		got, exists := payload[key]
		if !exists {
			t.Errorf("Config payload is missing key %q", key)

			continue
		}

		if got != want {
			t.Errorf("Config payload key %q = %v, want %v", key, got, want)
		}
	}

	files, ok := payload["audio_files"].([]any)
	if !ok || len(files) != 1 || files[0] != "/in/chapter-01.wav" {
		t.Errorf(
			"Config payload audio_files = %v, want [/in/chapter-01.wav]",
			payload["audio_files"],
		)
	}
}

// TestClient_ApplyConfig_ServerError verifies structured error parsing.
func TestClient_ApplyConfig_ServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			responseWriter.Header().Set("Content-Type", "application/json")
			responseWriter.WriteHeader(http.StatusInternalServerError)

			_, err := responseWriter.Write([]byte(`{"error":"model load failed"}`))
			if err != nil {
				t.Errorf("Failed to write mock error response: %v", err)
			}
		},
	))
	defer server.Close()

	client := engine.NewClient(server.URL, 10*time.Second)

	err := client.ApplyConfig(context.Background(), testEngineConfig())
	if err == nil {
		t.Fatal("Expected error for server error, got nil")
	}

	expectedSubstrings := []string{
		"engine service error",
		"model load failed",
	}

	for _, substring := range expectedSubstrings {
		if !strings.Contains(err.Error(), substring) {
			t.Errorf("Expected error to contain %q, got: %v", substring, err)
		}
	}
}

// TestClient_ApplyConfig_NonJSONError verifies the raw-body fallback.
func TestClient_ApplyConfig_NonJSONError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			responseWriter.WriteHeader(http.StatusServiceUnavailable)

			_, err := responseWriter.Write([]byte("engine overloaded"))
			if err != nil {
				t.Errorf("Failed to write mock error response: %v", err)
			}
		},
	))
	defer server.Close()

	client := engine.NewClient(server.URL, 10*time.Second)

	err := client.ApplyConfig(context.Background(), testEngineConfig())
	if err == nil {
		t.Fatal("Expected error for non-JSON failure, got nil")
	}

	if !strings.Contains(err.Error(), "engine service returned non-OK status") {
		t.Errorf("Expected raw-body fallback error, got: %v", err)
	}
}

// TestClient_ConfigReady verifies the readiness probe round trip.
func TestClient_ConfigReady(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		body     string
		expected bool
	}{
		{name: "acknowledged", body: `{"ready":true}`, expected: true},
		{name: "pending", body: `{"ready":false}`, expected: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(
				func(responseWriter http.ResponseWriter, request *http.Request) {
					if request.Method != http.MethodGet {
						t.Errorf("Expected GET, got %s", request.Method)
					}

					if request.URL.Path != "/v1/config/ready" {
						t.Errorf(
							"Expected /v1/config/ready, got %s",
							request.URL.Path,
						)
					}

					if tag := request.URL.Query().Get("tag"); tag != "USER_12345678" {
						t.Errorf("Expected tag USER_12345678, got %q", tag)
					}

					responseWriter.Header().Set("Content-Type", "application/json")
					responseWriter.WriteHeader(http.StatusOK)

					_, err := responseWriter.Write([]byte(testCase.body))
					if err != nil {
						t.Errorf("Failed to write mock readiness response: %v", err)
					}
				},
			))
			defer server.Close()

			client := engine.NewClient(server.URL, 10*time.Second)

			ready, err := client.ConfigReady(context.Background(), "USER_12345678")
			if err != nil {
				t.Fatalf("ConfigReady failed: %v", err)
			}

			if ready != testCase.expected {
				t.Errorf("ConfigReady() = %v, want %v", ready, testCase.expected)
			}
		})
	}
}

// TestClient_Convert_Success verifies the conversion request and response
// wire formats.
func TestClient_Convert_Success(t *testing.T) {
	t.Parallel()

	expectedResults := []core.ConversionResult{
		{
			Tag:             "USER_12345678",
			SourcePath:      "/in/chapter-01.wav",
			OutputPath:      "/out/chapter-01-converted.wav",
			SampleRate:      44100,
			DurationSeconds: 12.5,
		},
	}

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, request *http.Request) {
			if request.URL.Path != "/v1/convert" {
				t.Errorf("Expected /v1/convert, got %s", request.URL.Path)
			}

			validateConvertPayload(t, request)

			responseWriter.Header().Set("Content-Type", "application/json")
			responseWriter.WriteHeader(http.StatusOK)

			err := json.NewEncoder(responseWriter).Encode(engine.ConvertResponse{
				Results: expectedResults,
			})
			if err != nil {
				t.Errorf("Failed to encode mock conversion response: %v", err)
			}
		},
	))
	defer server.Close()

	client := engine.NewClient(server.URL, 10*time.Second)

	results, err := client.Convert(context.Background(), engine.ConvertRequest{
		AudioFiles:      []string{"/in/chapter-01.wav"},
		Tag:             "USER_12345678",
		Overwrite:       false,
		ParallelWorkers: 8,
	})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if len(results) != 1 || results[0] != expectedResults[0] {
		t.Errorf("Convert() = %+v, want %+v", results, expectedResults)
	}
}

func validateConvertPayload(t *testing.T, request *http.Request) {
	t.Helper()

	var payload map[string]any

	err := json.NewDecoder(request.Body).Decode(&payload)
	if err != nil {
		t.Fatalf("Failed to decode convert payload: %v", err)
	}

	if payload["tag"] != "USER_12345678" {
		t.Errorf("Convert payload tag = %v, want USER_12345678", payload["tag"])
	}

	if payload["overwrite"] != false {
		t.Errorf("Convert payload overwrite = %v, want false", payload["overwrite"])
	}

	if payload["parallel_workers"] != float64(8) {
		t.Errorf(
			"Convert payload parallel_workers = %v, want 8",
			payload["parallel_workers"],
		)
	}

	files, ok := payload["audio_files"].([]any)
	if !ok || len(files) != 1 {
		t.Errorf("Convert payload audio_files = %v, want one entry", payload["audio_files"])
	}
}

// TestClient_Convert_MalformedResponse verifies decode error handling.
func TestClient_Convert_MalformedResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			responseWriter.WriteHeader(http.StatusOK)

			_, err := responseWriter.Write([]byte("not json"))
			if err != nil {
				t.Errorf("Failed to write mock malformed response: %v", err)
			}
		},
	))
	defer server.Close()

	client := engine.NewClient(server.URL, 10*time.Second)

	_, err := client.Convert(context.Background(), engine.ConvertRequest{
		AudioFiles:      []string{"/in/chapter-01.wav"},
		Tag:             "USER_12345678",
		Overwrite:       false,
		ParallelWorkers: 8,
	})
	if err == nil {
		t.Fatal("Expected error for malformed response, got nil")
	}

	if !strings.Contains(err.Error(), "failed to decode conversion response") {
		t.Errorf("Expected decode error, got: %v", err)
	}
}

// TestClient_HealthCheck_Success verifies successful health checks.
func TestClient_HealthCheck_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, request *http.Request) {
			if request.Method != http.MethodGet {
				t.Errorf("Expected GET, got %s", request.Method)
			}

			if request.URL.Path != "/health" {
				t.Errorf("Expected /health, got %s", request.URL.Path)
			}

			responseWriter.WriteHeader(http.StatusOK)
		},
	))
	defer server.Close()

	client := engine.NewClient(server.URL, 10*time.Second)

	err := client.HealthCheck(context.Background())
	if err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
}

// TestClient_HealthCheck_ServiceDown verifies health check failure handling.
func TestClient_HealthCheck_ServiceDown(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			responseWriter.WriteHeader(http.StatusServiceUnavailable)
		},
	))
	defer server.Close()

	client := engine.NewClient(server.URL, 10*time.Second)

	err := client.HealthCheck(context.Background())
	if err == nil {
		t.Fatal("Expected error for service unavailable, got nil")
	}

	if !strings.Contains(err.Error(), "health check failed with status") {
		t.Errorf("Expected 'health check failed with status' error, got: %v", err)
	}
}

// TestClient_HealthCheck_NetworkError verifies network error handling.
func TestClient_HealthCheck_NetworkError(t *testing.T) {
	t.Parallel()
	// Use an invalid URL to simulate network error
	client := engine.NewClient("http://invalid-host:9999", 1*time.Second)

	err := client.HealthCheck(context.Background())
	if err == nil {
		t.Fatal("Expected network error, got nil")
	}
}
