// Package pipeline turns a resume link and a vacancy link into an updated hh.ru resume.
package pipeline

import (
	"context"
	"errors"

	"github.com/spigell/hh-resume-bot/internal/ai"
	"github.com/spigell/hh-resume-bot/internal/entity"
	"github.com/spigell/hh-resume-bot/internal/headhunter"
	"github.com/spigell/hh-resume-bot/internal/logger"
	"go.uber.org/zap"
)

// Platform is the part of the hh.ru client the pipeline needs.
type Platform interface {
	GetResume(ctx context.Context, id string) (map[string]any, error)
	GetVacancy(ctx context.Context, id string) (map[string]any, error)
	UpdateResume(ctx context.Context, id string, doc map[string]any) error
	ResumeURL(id string) string
}

type Pipeline struct {
	platform  Platform
	extractor *entity.Extractor
	rewriter  ai.Rewriter
	auditor   *Auditor
	logger    *zap.Logger
}

// New builds a pipeline. auditor may be nil to disable the audit log.
func New(platform Platform, extractor *entity.Extractor, rewriter ai.Rewriter, auditor *Auditor, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if extractor == nil {
		extractor = entity.NewExtractor(log)
	}

	return &Pipeline{
		platform:  platform,
		extractor: extractor,
		rewriter:  rewriter,
		auditor:   auditor,
		logger:    log,
	}
}

type ResumeResult struct {
	ID       string
	Original map[string]any
	Parsed   *entity.Resume
}

type VacancyResult struct {
	ID       string
	Original map[string]any
	Parsed   *entity.Vacancy
}

// RewriteInput is everything collected by the resume and vacancy steps.
type RewriteInput struct {
	ResumeID       string
	OriginalResume map[string]any
	Resume         *entity.Resume
	VacancyID      string
	Vacancy        *entity.Vacancy
}

// ProcessResume resolves the resume link in text, fetches the resume and extracts it.
func (p *Pipeline) ProcessResume(ctx context.Context, text string, progress Progress) (*ResumeResult, error) {
	id, err := headhunter.ResumeIDFromText(text)
	if err != nil {
		return nil, stageError(StageResumeLink, ErrInvalidResumeURL)
	}

	log := p.logger.With(zap.String(logger.FieldResumeID, id))

	raw, err := p.platform.GetResume(ctx, id)
	if err != nil {
		log.Error("fetching resume failed", zap.Error(err))
		return nil, stageError(StageFetchResume, err)
	}
	progress.emit(EventResumeFound)

	parsed, err := p.extractor.ExtractResume(raw)
	if err != nil {
		log.Error("extracting resume failed", zap.Error(err))
		return nil, stageError(StageExtractResume, err)
	}
	progress.emit(EventResumeParsed)

	log.Info("resume processed", zap.Int("experience_entries", len(parsed.Experience)))

	return &ResumeResult{ID: id, Original: raw, Parsed: parsed}, nil
}

// ValidateVacancyLink returns the vacancy id found in text.
func (p *Pipeline) ValidateVacancyLink(text string) (string, error) {
	id, err := headhunter.VacancyIDFromText(text)
	if err != nil {
		return "", stageError(StageVacancyLink, ErrInvalidVacancyURL)
	}
	return id, nil
}

// ProcessVacancy resolves the vacancy link in text, fetches the vacancy and extracts it.
func (p *Pipeline) ProcessVacancy(ctx context.Context, text string, progress Progress) (*VacancyResult, error) {
	id, err := p.ValidateVacancyLink(text)
	if err != nil {
		return nil, err
	}

	log := p.logger.With(zap.String(logger.FieldVacancyID, id))

	raw, err := p.platform.GetVacancy(ctx, id)
	if err != nil {
		log.Error("fetching vacancy failed", zap.Error(err))
		return nil, stageError(StageFetchVacancy, err)
	}
	progress.emit(EventVacancyFound)

	parsed, err := p.extractor.ExtractVacancy(raw)
	if err != nil {
		log.Error("extracting vacancy failed", zap.Error(err))
		return nil, stageError(StageExtractVacancy, err)
	}
	progress.emit(EventVacancyParsed)

	return &VacancyResult{ID: id, Original: raw, Parsed: parsed}, nil
}

// Rewrite runs gap analysis and rewrite, records the audit log, merges the
// result into the original resume and submits it. It returns the resume URL.
func (p *Pipeline) Rewrite(ctx context.Context, in RewriteInput, progress Progress) (string, error) {
	if in.ResumeID == "" || in.Resume == nil || in.Vacancy == nil || in.OriginalResume == nil {
		return "", stageError(StageGapAnalysis, ErrMissingInput)
	}

	log := p.logger.With(
		zap.String(logger.FieldResumeID, in.ResumeID),
		zap.String(logger.FieldVacancyID, in.VacancyID),
	)

	progress.emit(EventAnalysisStarted)
	gap, err := p.rewriter.GapAnalysis(ctx, in.Resume, in.Vacancy)
	if err == nil && (gap == nil || len(gap.Recommendations) == 0) {
		err = ai.ErrEmptyResult
	}
	if err != nil {
		log.Error("gap analysis failed", zap.Error(err))
		return "", stageError(StageGapAnalysis, err)
	}
	log.Info("gap analysis done", zap.Int("recommendations", len(gap.Recommendations)))

	progress.emit(EventRewriteStarted)
	rewritten, err := p.rewriter.Rewrite(ctx, in.Resume, gap)
	if err == nil && rewritten == nil {
		err = ai.ErrEmptyResult
	}
	if err != nil {
		log.Error("rewrite failed", zap.Error(err))
		return "", stageError(StageRewrite, err)
	}

	p.auditor.Record(Record{
		ResumeID:       in.ResumeID,
		OriginalResume: in.OriginalResume,
		ParsedResume:   in.Resume,
		ParsedVacancy:  in.Vacancy,
		GapAnalysis:    gap,
		FinalResume:    rewritten,
	})

	merged, err := Merge(in.OriginalResume, rewritten, log)
	if err != nil {
		return "", stageError(StageMerge, err)
	}

	progress.emit(EventUpdateStarted)
	if err := p.platform.UpdateResume(ctx, in.ResumeID, merged); err != nil {
		log.Error("updating resume failed", zap.Error(err))
		return "", stageError(StageUpdate, err)
	}

	log.Info("resume updated")
	return p.platform.ResumeURL(in.ResumeID), nil
}

// IsInputError reports whether err is caused by malformed user input.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidResumeURL) || errors.Is(err, ErrInvalidVacancyURL)
}
