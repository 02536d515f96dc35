package bot

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/hh-resume-bot/internal/headhunter"
	"github.com/spigell/hh-resume-bot/internal/logger"
	"github.com/spigell/hh-resume-bot/internal/pipeline"
	"github.com/spigell/hh-resume-bot/internal/session"
)

var progressTexts = map[pipeline.Event]string{
	pipeline.EventResumeFound:     textResumeFound,
	pipeline.EventResumeParsed:    textResumeParsed,
	pipeline.EventVacancyFound:    textVacancyFound,
	pipeline.EventVacancyParsed:   textVacancyParsed,
	pipeline.EventAnalysisStarted: textAnalysisStarted,
	pipeline.EventRewriteStarted:  textRewriteStarted,
	pipeline.EventUpdateStarted:   textUpdateStarted,
}

func (m *Machine) handleAuthorized(ctx context.Context, log *zap.Logger, msg Message, sess *session.Session) {
	switch msg.Text {
	case ButtonEditResume:
		sess.Reset(session.StateRewriteResume)
		m.reply(ctx, log, msg.ChatID, Reply{Text: textWaitingResumeLink})
		log.Info("resume rewrite started")
	case ButtonCreateResume:
		m.reply(ctx, log, msg.ChatID, Reply{Text: textCreateUnavailable, Keyboard: mainKeyboard()})
	default:
		m.reply(ctx, log, msg.ChatID, Reply{Text: textDefault, Keyboard: mainKeyboard()})
	}
}

func (m *Machine) handleRewrite(ctx context.Context, log *zap.Logger, msg Message, sess *session.Session) {
	if !sess.Data.ResumeProcessed() {
		m.handleResumeLink(ctx, log, msg, sess)
		return
	}

	m.handleVacancyLink(ctx, log, msg, sess)
}

func (m *Machine) handleResumeLink(ctx context.Context, log *zap.Logger, msg Message, sess *session.Session) {
	res, err := m.pipeline.ProcessResume(ctx, msg.Text, m.progress(ctx, log, msg.ChatID))
	if err != nil {
		log.Warn("resume step failed", zap.String("stage", string(pipeline.FailedStage(err))), zap.Error(err))
		m.reply(ctx, log, msg.ChatID, Reply{Text: failureText(err)})
		return
	}

	sess.Data.ResumeID = res.ID
	sess.Data.OriginalResume = res.Original
	sess.Data.ParsedResume = res.Parsed

	log.Info("resume accepted", zap.String(logger.FieldResumeID, res.ID))
}

// handleVacancyLink runs the rest of the pipeline. Once the link is valid the
// user always ends up in AUTHORIZED with the scratch data dropped, even on panic.
func (m *Machine) handleVacancyLink(ctx context.Context, log *zap.Logger, msg Message, sess *session.Session) {
	if _, err := m.pipeline.ValidateVacancyLink(msg.Text); err != nil {
		m.reply(ctx, log, msg.ChatID, Reply{Text: textInvalidVacancyLink})
		return
	}

	data := sess.Data

	defer func() {
		sess.Reset(session.StateAuthorized)
		m.sessions.Set(msg.UserID, *sess)
	}()

	progress := m.progress(ctx, log, msg.ChatID)

	vacancy, err := m.pipeline.ProcessVacancy(ctx, msg.Text, progress)
	if err != nil {
		log.Warn("vacancy step failed", zap.String("stage", string(pipeline.FailedStage(err))), zap.Error(err))
		m.reply(ctx, log, msg.ChatID, Reply{Text: failureText(err), Keyboard: mainKeyboard()})
		return
	}

	url, err := m.pipeline.Rewrite(ctx, pipeline.RewriteInput{
		ResumeID:       data.ResumeID,
		OriginalResume: data.OriginalResume,
		Resume:         data.ParsedResume,
		VacancyID:      vacancy.ID,
		Vacancy:        vacancy.Parsed,
	}, progress)
	if err != nil {
		log.Error("rewrite failed", zap.String("stage", string(pipeline.FailedStage(err))), zap.Error(err))
		m.reply(ctx, log, msg.ChatID, Reply{Text: failureText(err), Keyboard: mainKeyboard()})
		return
	}

	m.reply(ctx, log, msg.ChatID, Reply{Text: fmt.Sprintf(textResumeUpdated, url), Keyboard: mainKeyboard()})
	log.Info("resume rewritten", zap.String(logger.FieldResumeID, data.ResumeID), zap.String(logger.FieldVacancyID, vacancy.ID))
}

func (m *Machine) progress(ctx context.Context, log *zap.Logger, chatID int64) pipeline.Progress {
	return func(e pipeline.Event) {
		if text, ok := progressTexts[e]; ok {
			m.reply(ctx, log, chatID, Reply{Text: text})
		}
	}
}

// failureText picks the user message for a pipeline error.
func failureText(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrInvalidResumeURL):
		return textInvalidResumeLink
	case errors.Is(err, pipeline.ErrInvalidVacancyURL):
		return textInvalidVacancyLink
	case errors.Is(err, headhunter.ErrNotAuthenticated),
		errors.Is(err, headhunter.ErrNoRefreshToken),
		errors.Is(err, headhunter.ErrUnauthorized):
		return textAuthExpired
	}

	switch pipeline.FailedStage(err) {
	case pipeline.StageFetchResume, pipeline.StageExtractResume:
		return textResumeFailed
	case pipeline.StageFetchVacancy, pipeline.StageExtractVacancy:
		return textVacancyFailed
	case pipeline.StageGapAnalysis:
		return textGapFailed
	case pipeline.StageRewrite:
		return textRewriteFailed
	case pipeline.StageMerge, pipeline.StageUpdate:
		return textUpdateFailed
	default:
		return textError
	}
}
