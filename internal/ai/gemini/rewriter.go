package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/hh-resume-bot/internal/ai"
	"github.com/spigell/hh-resume-bot/internal/entity"
	"github.com/spigell/hh-resume-bot/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

//go:embed gap_prompt.md
var gapPromptTemplate string

//go:embed rewrite_prompt.md
var rewritePromptTemplate string

const (
	defaultMaxLogLength = 200

	gapSystemInstruction     = "You analyze how well a resume matches a vacancy. Answer only with JSON matching the schema."
	rewriteSystemInstruction = "You rewrite resume sections following a gap analysis. Answer only with JSON matching the schema."
)

type jsonGenerator interface {
	GenerateJSON(ctx context.Context, system, prompt string, schema *genai.Schema) (string, error)
}

// Rewriter implements ai.Rewriter on top of a Gemini generator.
type Rewriter struct {
	generator jsonGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Rewriter = (*Rewriter)(nil)

func NewRewriter(generator jsonGenerator, logger *zap.Logger, maxLogLength int) *Rewriter {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Rewriter{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (r *Rewriter) GapAnalysis(ctx context.Context, resume *entity.Resume, vacancy *entity.Vacancy) (*entity.GapAnalysis, error) {
	if resume == nil {
		return nil, fmt.Errorf("resume is required")
	}
	if vacancy == nil {
		return nil, fmt.Errorf("vacancy is required")
	}

	resumeJSON, err := json.MarshalIndent(resume, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal resume payload: %w", err)
	}

	vacancyJSON, err := json.MarshalIndent(vacancy, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal vacancy payload: %w", err)
	}

	prompt := renderPrompt(gapPromptTemplate, map[string]string{
		"{{RESUME_JSON}}":      string(resumeJSON),
		"{{VACANCY_JSON}}":     string(vacancyJSON),
		"{{EXPERIENCE_COUNT}}": strconv.Itoa(len(resume.Experience)),
	})

	raw, err := r.generate(ctx, "gap_analysis", gapSystemInstruction, prompt, gapAnalysisSchema())
	if err != nil {
		return nil, err
	}

	gap, err := parseGapAnalysis(raw)
	if err != nil {
		return nil, err
	}

	if len(gap.Recommendations) == 0 {
		return nil, ai.ErrEmptyResult
	}

	if got, want := gap.ExperienceRecommendations(), len(resume.Experience); got != want {
		return nil, fmt.Errorf("%w: %d experience recommendations for %d experience entries", ai.ErrInvalidResult, got, want)
	}

	return gap, nil
}

func (r *Rewriter) Rewrite(ctx context.Context, resume *entity.Resume, gap *entity.GapAnalysis) (*entity.RewrittenResume, error) {
	if resume == nil {
		return nil, fmt.Errorf("resume is required")
	}
	if gap == nil {
		return nil, fmt.Errorf("gap analysis is required")
	}

	resumeJSON, err := json.MarshalIndent(resume, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal resume payload: %w", err)
	}

	gapJSON, err := json.MarshalIndent(gap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal gap analysis payload: %w", err)
	}

	prompt := renderPrompt(rewritePromptTemplate, map[string]string{
		"{{RESUME_JSON}}":      string(resumeJSON),
		"{{GAP_JSON}}":         string(gapJSON),
		"{{EXPERIENCE_COUNT}}": strconv.Itoa(len(resume.Experience)),
	})

	raw, err := r.generate(ctx, "rewrite", rewriteSystemInstruction, prompt, rewrittenResumeSchema())
	if err != nil {
		return nil, err
	}

	var rewritten entity.RewrittenResume
	if err := json.Unmarshal([]byte(extractJSON(raw)), &rewritten); err != nil {
		return nil, fmt.Errorf("%w: parse rewrite response: %v", ai.ErrInvalidResult, err)
	}

	if rewritten.Title == "" && rewritten.Skills == "" && len(rewritten.SkillSet) == 0 && len(rewritten.Experience) == 0 {
		return nil, ai.ErrEmptyResult
	}

	if got, want := len(rewritten.Experience), len(resume.Experience); got != want {
		return nil, fmt.Errorf("%w: %d rewritten experience entries for %d original ones", ai.ErrInvalidResult, got, want)
	}

	return &rewritten, nil
}

func (r *Rewriter) generate(ctx context.Context, operation, system, prompt string, schema *genai.Schema) (string, error) {
	r.logger.Debug("gemini generate content request",
		zap.String("operation", operation),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, r.maxLogLen)),
	)

	raw, err := r.generator.GenerateJSON(ctx, system, prompt, schema)
	if err != nil {
		return "", err
	}

	r.logger.Debug("gemini generate content response",
		zap.String("operation", operation),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, r.maxLogLen)),
	)

	if strings.TrimSpace(raw) == "" {
		return "", ai.ErrEmptyResult
	}

	return raw, nil
}

func renderPrompt(template string, values map[string]string) string {
	prompt := template
	for placeholder, value := range values {
		prompt = strings.ReplaceAll(prompt, placeholder, value)
	}
	return prompt
}

func parseGapAnalysis(raw string) (*entity.GapAnalysis, error) {
	var gap entity.GapAnalysis
	if err := json.Unmarshal([]byte(extractJSON(raw)), &gap); err != nil {
		return nil, fmt.Errorf("%w: parse gap analysis response: %v", ai.ErrInvalidResult, err)
	}

	recommendations := make([]entity.Recommendation, 0, len(gap.Recommendations))
	for _, rec := range gap.Recommendations {
		section, ok := normalizeSection(string(rec.Section))
		if !ok {
			return nil, fmt.Errorf("%w: unknown section %q", ai.ErrInvalidResult, rec.Section)
		}

		action, ok := normalizeAction(string(rec.Action))
		if !ok {
			return nil, fmt.Errorf("%w: unknown recommendation type %q", ai.ErrInvalidResult, rec.Action)
		}

		recommendations = append(recommendations, entity.Recommendation{
			Section: section,
			Action:  action,
			Details: strings.TrimSpace(rec.Details),
		})
	}

	gap.Recommendations = recommendations
	return &gap, nil
}

// normalizeSection accepts indexed sections like "experience[2]".
func normalizeSection(raw string) (entity.Section, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if idx := strings.IndexByte(value, '['); idx != -1 {
		value = value[:idx]
	}

	for _, section := range entity.Sections {
		if string(section) == value {
			return section, true
		}
	}
	return "", false
}

func normalizeAction(raw string) (entity.Action, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "delete" {
		value = string(entity.ActionRemove)
	}

	for _, action := range entity.Actions {
		if string(action) == value {
			return action, true
		}
	}
	return "", false
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}
