package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/h2brasil/delivery-backend/internal/models"
)

const (
	geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"
	geminiModel    = "gemini-2.5-flash"
)

const geminiSystemInstruction = `Você é um sistema especialista em logística e roteirização para a cidade de Itajaí, SC.
Sua tarefa é organizar uma lista de pontos de entrega na ordem mais eficiente de visitação para um entregador.

Considere:
1. O ponto de partida do entregador.
2. A distância geográfica (use a lógica do Caixeiro Viajante / TSP para minimizar a distância total).
3. A geografia de Itajaí (bairros próximos devem ser agrupados).

Retorne um JSON contendo a lista ordenada de IDs, uma estimativa de distância total e um breve resumo explicativo da rota.`

// GeminiClient calls the hosted generation API with a response schema that
// constrains the answer to {orderedIds, summary, totalDistanceEst}.
type GeminiClient struct {
	apiKey  string
	model   string
	session *http.Client
}

// NewGeminiClient creates a client for the generateContent endpoint.
func NewGeminiClient(apiKey string, session *http.Client) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		model:   geminiModel,
		session: session,
	}
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"system_instruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string          `json:"response_mime_type"`
	ResponseSchema   json.RawMessage `json:"response_schema"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// routePlanSchema mirrors the RoutePlan shape in the API's schema dialect.
var routePlanSchema = json.RawMessage(`{
	"type": "OBJECT",
	"properties": {
		"orderedIds": {
			"type": "ARRAY",
			"items": {"type": "STRING"},
			"description": "Delivery point IDs in the optimized visiting order"
		},
		"summary": {
			"type": "STRING",
			"description": "Brief textual explanation of the route strategy (max 2 sentences)"
		},
		"totalDistanceEst": {
			"type": "STRING",
			"description": "Estimated total distance (e.g., '15 km')"
		}
	},
	"required": ["orderedIds", "summary", "totalDistanceEst"]
}`)

// GenerateRoute asks the model for the visiting order. Single attempt; the
// caller decides whether a user action retries.
func (g *GeminiClient) GenerateRoute(ctx context.Context, start models.Coordinate, points []models.DeliveryPoint) (*RoutePlan, error) {
	prompt, err := buildRoutePrompt(start, points)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: geminiSystemInstruction}}},
		Contents:          []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   routePlanSchema,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal generation request: %w", err)
	}

	url := fmt.Sprintf(geminiEndpoint, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.session.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call generation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("generation service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadOptimizationResponse, err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty answer", ErrBadOptimizationResponse)
	}

	return ParseRoutePlan(parsed.Candidates[0].Content.Parts[0].Text)
}

// ParseRoutePlan decodes the model's JSON answer and rejects structurally
// invalid shapes.
func ParseRoutePlan(text string) (*RoutePlan, error) {
	var plan RoutePlan
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadOptimizationResponse, err)
	}
	if len(plan.OrderedIDs) == 0 {
		return nil, fmt.Errorf("%w: orderedIds is empty", ErrBadOptimizationResponse)
	}
	return &plan, nil
}

func buildRoutePrompt(start models.Coordinate, points []models.DeliveryPoint) (string, error) {
	type destination struct {
		ID   string  `json:"id"`
		Name string  `json:"name"`
		Lat  float64 `json:"lat"`
		Lng  float64 `json:"lng"`
	}

	destinations := make([]destination, 0, len(points))
	for _, p := range points {
		destinations = append(destinations, destination{
			ID:   p.ID,
			Name: p.Name,
			Lat:  p.Coords.Lat,
			Lng:  p.Coords.Lng,
		})
	}

	startPayload, err := json.Marshal(map[string]interface{}{
		"name": "Local Atual do Entregador",
		"lat":  start.Lat,
		"lng":  start.Lng,
	})
	if err != nil {
		return "", fmt.Errorf("marshal start payload: %w", err)
	}

	destPayload, err := json.Marshal(destinations)
	if err != nil {
		return "", fmt.Errorf("marshal destinations payload: %w", err)
	}

	return fmt.Sprintf("Ponto de Partida: %s\nDestinos: %s\n\nPor favor, retorne a ordem otimizada de entrega.",
		startPayload, destPayload), nil
}

func envGeminiKey() string {
	return os.Getenv("GEMINI_API_KEY")
}
