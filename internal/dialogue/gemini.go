package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Model sends one turn of a session's chat and returns the response parts.
type Model interface {
	Send(ctx context.Context, sessionID string, tools []*genai.Tool, system string, parts ...genai.Part) ([]genai.Part, error)
	Forget(sessionID string)
}

type chat struct {
	model   *genai.GenerativeModel
	session *genai.ChatSession
}

// GeminiModel keeps one chat history per intake session.
type GeminiModel struct {
	client  *genai.Client
	modelID string

	mu    sync.Mutex
	chats map[string]*chat
}

func NewGeminiModel(ctx context.Context, apiKey, modelID string, opts ...option.ClientOption) (*GeminiModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("dialogue: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-1.5-flash"
	}
	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("dialogue: failed to create gemini client: %w", err)
	}
	return &GeminiModel{client: client, modelID: modelID, chats: make(map[string]*chat)}, nil
}

func (g *GeminiModel) chatFor(sessionID string) *chat {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.chats[sessionID]
	if !ok {
		model := g.client.GenerativeModel(g.modelID)
		c = &chat{model: model, session: model.StartChat()}
		g.chats[sessionID] = c
	}
	return c
}

// Send applies the current tools and system instruction, then sends parts.
func (g *GeminiModel) Send(ctx context.Context, sessionID string, tools []*genai.Tool, system string, parts ...genai.Part) ([]genai.Part, error) {
	c := g.chatFor(sessionID)
	c.model.Tools = tools
	if strings.TrimSpace(system) != "" {
		c.model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	resp, err := c.session.SendMessage(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("dialogue: gemini send failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("dialogue: gemini returned no candidates")
	}
	return resp.Candidates[0].Content.Parts, nil
}

// Forget drops the chat history of a finished session.
func (g *GeminiModel) Forget(sessionID string) {
	g.mu.Lock()
	delete(g.chats, sessionID)
	g.mu.Unlock()
}

func (g *GeminiModel) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
