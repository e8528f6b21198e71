package preview

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const (
	DefaultModel = "gemini-2.5-pro"
	agentName    = "resume analyzer"
	previewUser  = "local-preview"
)

func newAgent(ctx context.Context, apiKey, modelName string) (agent.Agent, error) {
	model, err := gemini.NewModel(ctx, modelName, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	resumeAgent, err := llmagent.New(llmagent.Config{
		Name:        agentName,
		Model:       model,
		Description: "Analyze Resume",
		Instruction: instruction,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	return resumeAgent, nil
}

// agentGenerator runs each prompt in a throwaway in-memory agent session.
type agentGenerator struct {
	runner   *runner.Runner
	sessions session.Service
	appName  string
}

func newAgentGenerator(ctx context.Context, apiKey, modelName string) (*agentGenerator, error) {
	a, err := newAgent(ctx, apiKey, modelName)
	if err != nil {
		return nil, err
	}
	sessions := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        a.Name(),
		Agent:          a,
		SessionService: sessions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}
	return &agentGenerator{runner: r, sessions: sessions, appName: a.Name()}, nil
}

func (g *agentGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	created, err := g.sessions.Create(ctx, &session.CreateRequest{
		AppName:   g.appName,
		UserID:    previewUser,
		SessionID: uuid.NewString(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create agent session: %w", err)
	}
	defer g.sessions.Delete(ctx, &session.DeleteRequest{
		AppName:   created.Session.AppName(),
		UserID:    created.Session.UserID(),
		SessionID: created.Session.ID(),
	})

	stream := g.runner.Run(ctx, created.Session.UserID(), created.Session.ID(), &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}, agent.RunConfig{})

	var output string
	for event, err := range stream {
		if err != nil {
			return "", err
		}
		if event != nil && event.IsFinalResponse() && event.Content != nil && len(event.Content.Parts) > 0 {
			output = event.Content.Parts[0].Text
		}
	}
	if output == "" {
		return "", fmt.Errorf("empty agent response")
	}
	return output, nil
}
