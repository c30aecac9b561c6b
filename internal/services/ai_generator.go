package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"course-assistant/internal/models"
)

const (
	anthropicVersion = "2023-06-01"
	maxTokens        = 800
)

// ErrAgentLoopExceeded is returned when the model keeps requesting tools
// after the configured number of tool rounds has been spent.
var ErrAgentLoopExceeded = errors.New("model requested tools beyond the maximum number of tool rounds")

const systemPrompt = `You are an AI assistant specialized in course materials and educational content, with a search tool for finding specific course information.

Search tool usage:
- Use the search tool only for questions about specific course content or detailed educational materials
- One search per question maximum
- Synthesize search results into accurate, fact-based answers
- If a search yields no results, say so clearly without offering alternatives

Response requirements:
- For general knowledge questions, answer from your own knowledge without searching
- For course-specific questions, search first, then answer
- Never mention the search process, reasoning, or tool names in your reply
- Keep answers brief, concise and focused
- Provide examples only when they aid understanding`

// AIGenerator calls the Anthropic Messages API and drives the tool-calling
// loop. The model may request tools for at most maxToolRounds rounds before
// it is forced to answer.
type AIGenerator struct {
	apiKey        string
	model         string
	baseURL       string
	maxToolRounds int
	httpClient    *http.Client
	logger        *log.Logger
}

// NewAIGenerator creates a generator for the given API endpoint and model.
func NewAIGenerator(baseURL, apiKey, model string, maxToolRounds int, logger *log.Logger) *AIGenerator {
	if maxToolRounds <= 0 {
		maxToolRounds = 2
	}
	return &AIGenerator{
		apiKey:        apiKey,
		model:         model,
		baseURL:       baseURL,
		maxToolRounds: maxToolRounds,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

// Anthropic Messages API wire format. Content is either a plain string or a
// list of typed blocks.
type anthropicMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentBlock struct {
	Type      string                 `json:"type"`
	Text      string                 `json:"text,omitempty"`
	ID        string                 `json:"id,omitempty"`
	Name      string                 `json:"name,omitempty"`
	Input     map[string]interface{} `json:"input,omitempty"`
	ToolUseID string                 `json:"tool_use_id,omitempty"`
	Content   string                 `json:"content,omitempty"`
}

type toolChoice struct {
	Type string `json:"type"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Tools       []ToolDefinition   `json:"tools,omitempty"`
	ToolChoice  *toolChoice        `json:"tool_choice,omitempty"`
}

type anthropicResponse struct {
	ID         string         `json:"id"`
	Role       string         `json:"role"`
	StopReason string         `json:"stop_reason"`
	Content    []contentBlock `json:"content"`
}

// GenerateResponse answers one user query. conversationHistory is appended
// to the system prompt when non-empty. When the model requests tools they
// are executed through the registry and the results fed back; sources from
// every executed tool call are accumulated in call order and returned with
// the final answer.
func (g *AIGenerator) GenerateResponse(ctx context.Context, query, conversationHistory string, tools []ToolDefinition, registry *ToolRegistry) (string, []models.Source, error) {
	system := systemPrompt
	if conversationHistory != "" {
		system += "\n\nPrevious conversation:\n" + conversationHistory
	}

	messages := []anthropicMessage{
		{Role: "user", Content: query},
	}

	var sources []models.Source
	rounds := 0

	for {
		resp, err := g.createMessage(ctx, system, messages, tools)
		if err != nil {
			return "", nil, err
		}

		if resp.StopReason != "tool_use" || registry == nil {
			return extractText(resp), sources, nil
		}
		if rounds >= g.maxToolRounds {
			return "", nil, ErrAgentLoopExceeded
		}
		rounds++

		toolResults := make([]contentBlock, 0)
		for _, block := range resp.Content {
			if block.Type != "tool_use" {
				continue
			}
			g.logger.Printf("Tool call round %d: %s", rounds, block.Name)

			output, toolSources, err := registry.Execute(ctx, block.Name, block.Input)
			if err != nil {
				return "", nil, fmt.Errorf("tool %s failed: %w", block.Name, err)
			}
			sources = append(sources, toolSources...)
			toolResults = append(toolResults, contentBlock{
				Type:      "tool_result",
				ToolUseID: block.ID,
				Content:   output,
			})
		}

		messages = append(messages,
			anthropicMessage{Role: "assistant", Content: resp.Content},
			anthropicMessage{Role: "user", Content: toolResults},
		)
	}
}

func (g *AIGenerator) createMessage(ctx context.Context, system string, messages []anthropicMessage, tools []ToolDefinition) (*anthropicResponse, error) {
	request := anthropicRequest{
		Model:       g.model,
		MaxTokens:   maxTokens,
		Temperature: 0,
		System:      system,
		Messages:    messages,
	}
	if len(tools) > 0 {
		request.Tools = tools
		request.ToolChoice = &toolChoice{Type: "auto"}
	}

	jsonBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal messages request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/v1/messages", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create messages request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach Anthropic API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Anthropic response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Anthropic API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse Anthropic response: %w", err)
	}
	return &parsed, nil
}

func extractText(resp *anthropicResponse) string {
	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text
		}
	}
	return ""
}
