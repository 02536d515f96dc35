// Package ai defines the language model operations used by the rewrite pipeline.
package ai

import (
	"context"
	"errors"

	"github.com/spigell/hh-resume-bot/internal/entity"
)

var (
	// ErrEmptyResult is returned when the model answered without usable content.
	ErrEmptyResult = errors.New("language model returned empty result")
	// ErrInvalidResult is returned when the model output breaks the expected shape.
	ErrInvalidResult = errors.New("language model returned invalid result")
)

// Rewriter runs the two structured model calls of a resume rewrite.
type Rewriter interface {
	GapAnalysis(ctx context.Context, resume *entity.Resume, vacancy *entity.Vacancy) (*entity.GapAnalysis, error)
	Rewrite(ctx context.Context, resume *entity.Resume, gap *entity.GapAnalysis) (*entity.RewrittenResume, error)
}
