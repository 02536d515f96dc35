package pipeline

import (
	"errors"
	"fmt"
)

// Stage names a step of the rewrite pipeline.
type Stage string

const (
	StageResumeLink     Stage = "resume_link"
	StageFetchResume    Stage = "fetch_resume"
	StageExtractResume  Stage = "extract_resume"
	StageVacancyLink    Stage = "vacancy_link"
	StageFetchVacancy   Stage = "fetch_vacancy"
	StageExtractVacancy Stage = "extract_vacancy"
	StageGapAnalysis    Stage = "gap_analysis"
	StageRewrite        Stage = "rewrite"
	StageMerge          Stage = "merge"
	StageUpdate         Stage = "update_resume"
)

var (
	ErrInvalidResumeURL  = errors.New("not a hh.ru resume link")
	ErrInvalidVacancyURL = errors.New("not a hh.ru vacancy link")
	ErrMissingInput      = errors.New("resume or vacancy data is missing")
)

// StageError tags an error with the pipeline stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage of err, or "" when err carries none.
func FailedStage(err error) Stage {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}

func stageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// Event is a progress notification emitted between stages.
type Event string

const (
	EventResumeFound     Event = "resume_found"
	EventResumeParsed    Event = "resume_parsed"
	EventVacancyFound    Event = "vacancy_found"
	EventVacancyParsed   Event = "vacancy_parsed"
	EventAnalysisStarted Event = "analysis_started"
	EventRewriteStarted  Event = "rewrite_started"
	EventUpdateStarted   Event = "update_started"
)

// Progress receives pipeline events. A nil Progress is ignored.
type Progress func(Event)

func (p Progress) emit(e Event) {
	if p != nil {
		p(e)
	}
}
