package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h2brasil/delivery-backend/internal/models"
)

// interceptTransport answers every request locally so no test touches the
// real generation endpoint.
type interceptTransport struct {
	status   int
	body     string
	lastReq  *http.Request
	lastBody []byte
}

func (t *interceptTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.lastReq = req
	if req.Body != nil {
		t.lastBody, _ = io.ReadAll(req.Body)
	}
	return &http.Response{
		StatusCode: t.status,
		Body:       io.NopCloser(strings.NewReader(t.body)),
		Header:     make(http.Header),
	}, nil
}

func generationAnswer(t *testing.T, plan RoutePlan) string {
	t.Helper()
	text, err := json.Marshal(plan)
	require.NoError(t, err)
	answer, err := json.Marshal(map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"parts": []map[string]string{{"text": string(text)}},
			}},
		},
	})
	require.NoError(t, err)
	return string(answer)
}

func TestGenerateRoute(t *testing.T) {
	transport := &interceptTransport{
		status: http.StatusOK,
		body: generationAnswer(t, RoutePlan{
			OrderedIDs:       []string{"ubs-imaru", "ubs-murta"},
			Summary:          "Centro primeiro",
			TotalDistanceEst: "8 km",
		}),
	}
	client := NewGeminiClient("test-key", &http.Client{Transport: transport})

	plan, err := client.GenerateRoute(context.Background(), testStart, []models.DeliveryPoint{
		{ID: "ubs-imaru", Name: "UBS Imaruí"},
		{ID: "ubs-murta", Name: "UBS Murta"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ubs-imaru", "ubs-murta"}, plan.OrderedIDs)
	assert.Equal(t, "8 km", plan.TotalDistanceEst)

	// The key travels in the header, never in the URL.
	require.NotNil(t, transport.lastReq)
	assert.Equal(t, "test-key", transport.lastReq.Header.Get("x-goog-api-key"))
	assert.NotContains(t, transport.lastReq.URL.String(), "test-key")

	// The request constrains the answer shape and carries the selection.
	var sent map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(transport.lastBody, &sent))
	assert.Contains(t, string(sent["generationConfig"]), "orderedIds")
	assert.Contains(t, string(sent["contents"]), "ubs-murta")
}

func TestGenerateRouteUpstreamError(t *testing.T) {
	transport := &interceptTransport{status: http.StatusTooManyRequests, body: `{"error":"quota"}`}
	client := NewGeminiClient("test-key", &http.Client{Transport: transport})

	_, err := client.GenerateRoute(context.Background(), testStart, []models.DeliveryPoint{{ID: "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGenerateRouteEmptyAnswer(t *testing.T) {
	transport := &interceptTransport{status: http.StatusOK, body: `{"candidates":[]}`}
	client := NewGeminiClient("test-key", &http.Client{Transport: transport})

	_, err := client.GenerateRoute(context.Background(), testStart, []models.DeliveryPoint{{ID: "a"}})
	assert.ErrorIs(t, err, ErrBadOptimizationResponse)
}

func TestParseRoutePlan(t *testing.T) {
	plan, err := ParseRoutePlan(`{"orderedIds":["a","b"],"summary":"ok","totalDistanceEst":"5 km"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, plan.OrderedIDs)

	_, err = ParseRoutePlan(`not json at all`)
	assert.ErrorIs(t, err, ErrBadOptimizationResponse)

	_, err = ParseRoutePlan(`{"orderedIds":[],"summary":"","totalDistanceEst":""}`)
	assert.ErrorIs(t, err, ErrBadOptimizationResponse)
}

func TestBuildRoutePrompt(t *testing.T) {
	prompt, err := buildRoutePrompt(testStart, []models.DeliveryPoint{
		{ID: "ubs-imaru", Name: "UBS Imaruí", Coords: models.Coordinate{Lat: -26.9, Lng: -48.67}},
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Ponto de Partida")
	assert.Contains(t, prompt, "ubs-imaru")
	assert.Contains(t, prompt, "-26.9046")
}
