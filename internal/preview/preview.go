package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/muhammadolammi/jobmatchclient/internal/models"
	"github.com/muhammadolammi/jobmatchclient/internal/resume"
	"github.com/muhammadolammi/jobmatchclient/internal/retry"
)

const agentAttempts = 2

// Generator turns one prompt into the model's final text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Analyzer scores resumes locally with the same instructions the backend
// worker uses, so users can check a resume before spending a scan.
type Analyzer struct {
	gen    Generator
	logger *log.Logger
}

func New(ctx context.Context, apiKey, modelName string, logger *log.Logger) (*Analyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("empty GOOGLE_API_KEY in env")
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	gen, err := newAgentGenerator(ctx, apiKey, modelName)
	if err != nil {
		return nil, err
	}
	return NewWithGenerator(gen, logger), nil
}

func NewWithGenerator(gen Generator, logger *log.Logger) *Analyzer {
	if logger == nil {
		logger = log.Default()
	}
	return &Analyzer{gen: gen, logger: logger}
}

// Analyze returns one result per file, in order. Files that fail are
// reported as error results rather than failing the batch.
func (a *Analyzer) Analyze(ctx context.Context, jobTitle, jobDescription string, files []*resume.File) ([]models.AnalysesResult, error) {
	if err := models.Required("Job title and description are required.", map[string]string{
		"job_title":       jobTitle,
		"job_description": jobDescription,
	}); err != nil {
		return nil, err
	}

	results := make([]models.AnalysesResult, 0, len(files))
	for _, f := range files {
		text, err := f.Text()
		if err != nil {
			a.logger.Printf("⚠️ Text extraction failed for %s: %v", f.Name, err)
			results = aggregateResult(results, "", fmt.Errorf("text extraction error: %w", err))
			continue
		}

		prompt := message(jobTitle, jobDescription, text)
		output, err := retry.Do(ctx, agentAttempts, func() (string, error) {
			return a.gen.Generate(ctx, prompt)
		})
		if err != nil {
			a.logger.Printf("⚠️ Agent failed for %s after retries: %v", f.Name, err)
			results = aggregateResult(results, "", fmt.Errorf("agent stream error: %w", err))
			continue
		}
		results = aggregateResult(results, output, nil)
	}
	return results, ctx.Err()
}

func aggregateResult(results []models.AnalysesResult, output string, failure error) []models.AnalysesResult {
	var result models.AnalysesResult
	switch {
	case failure != nil:
		result = models.ErrorResult(failure.Error())
	case strings.TrimSpace(output) == "":
		result = models.ErrorResult("empty response from agent")
	default:
		if err := json.Unmarshal([]byte(CleanJSON(output)), &result); err != nil {
			result = models.ErrorResult("json unmarshal error: " + err.Error())
		}
	}
	return append(results, result)
}

// CleanJSON strips the markdown code fence models like to wrap JSON in.
func CleanJSON(input string) string {
	clean := strings.TrimSpace(input)

	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")
	clean = strings.TrimSuffix(clean, "```")

	return strings.TrimSpace(clean)
}
