// Package session keeps per-user conversation state for the lifetime of the process.
package session

import (
	"github.com/spigell/hh-resume-bot/internal/entity"
)

type State string

const (
	StateInitial       State = "INITIAL"
	StateUnauthorized  State = "UNAUTHORIZED"
	StateAuthorized    State = "AUTHORIZED"
	StateRewriteResume State = "REWRITE_RESUME"
	// StateFinal is reserved and not reached by the current flow.
	StateFinal State = "FINAL"
)

func (s State) String() string {
	return string(s)
}

// RewriteData is the scratch data of the resume rewrite flow.
type RewriteData struct {
	ResumeID       string
	OriginalResume map[string]any
	ParsedResume   *entity.Resume

	VacancyID     string
	ParsedVacancy *entity.Vacancy
}

// ResumeProcessed reports whether the resume step finished and a vacancy link is expected.
func (d RewriteData) ResumeProcessed() bool {
	return d.ParsedResume != nil
}

type Session struct {
	State State
	Data  RewriteData
}

// Reset moves the session to state and drops all scratch data.
func (s *Session) Reset(state State) {
	s.State = state
	s.Data = RewriteData{}
}
