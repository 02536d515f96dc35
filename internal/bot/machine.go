// Package bot implements the per-user conversation state machine of the resume bot.
package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/hh-resume-bot/internal/callback"
	"github.com/spigell/hh-resume-bot/internal/logger"
	"github.com/spigell/hh-resume-bot/internal/pipeline"
	"github.com/spigell/hh-resume-bot/internal/session"
)

// Message is an inbound chat message.
type Message struct {
	UserID   int64
	ChatID   int64
	Text     string
	FullName string
}

// Reply is an outbound chat message. A nil Keyboard leaves the current one in place.
type Reply struct {
	Text     string
	Keyboard Keyboard
}

// Sender delivers replies to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, reply Reply) error
}

// Authenticator is the OAuth2 side of the hh.ru client.
type Authenticator interface {
	AuthURL() string
	ExchangeCode(ctx context.Context, code string) error
}

// CallbackServer receives the OAuth2 redirect.
type CallbackServer interface {
	Start(handler callback.Handler) bool
}

// Pipeline is the resume rewrite flow driven by the REWRITE_RESUME state.
type Pipeline interface {
	ProcessResume(ctx context.Context, text string, progress pipeline.Progress) (*pipeline.ResumeResult, error)
	ValidateVacancyLink(text string) (string, error)
	ProcessVacancy(ctx context.Context, text string, progress pipeline.Progress) (*pipeline.VacancyResult, error)
	Rewrite(ctx context.Context, in pipeline.RewriteInput, progress pipeline.Progress) (string, error)
}

type Deps struct {
	Sessions *session.Store
	Sender   Sender
	Auth     Authenticator
	Callback CallbackServer
	Pipeline Pipeline
	Logger   *zap.Logger
}

// Machine owns user sessions and routes every inbound message to the handler of the user's state.
type Machine struct {
	sessions *session.Store
	sender   Sender
	auth     Authenticator
	callback CallbackServer
	pipeline Pipeline
	logger   *zap.Logger

	mu      sync.Mutex
	pending *pendingAuth
}

func NewMachine(deps Deps) *Machine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewStore()
	}

	return &Machine{
		sessions: deps.Sessions,
		sender:   deps.Sender,
		auth:     deps.Auth,
		callback: deps.Callback,
		pipeline: deps.Pipeline,
		logger:   deps.Logger,
	}
}

// Handle processes one inbound message. It is the recovery boundary for the
// message: a panic is logged, answered with a generic apology and the session
// is left as it was.
func (m *Machine) Handle(ctx context.Context, msg Message) (err error) {
	log := logger.ForUser(m.logger, msg.UserID)

	unlock := m.sessions.Lock(msg.UserID)
	defer unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while handling message", zap.Any("panic", r), zap.Stack("stack"))
			m.reply(ctx, log, msg.ChatID, Reply{Text: textError})
			err = fmt.Errorf("panic while handling message: %v", r)
		}
	}()

	sess, ok := m.sessions.Get(msg.UserID)
	if !ok {
		m.sessions.Set(msg.UserID, session.Session{State: session.StateInitial})
		log.Info("new session created")
		m.reply(ctx, log, msg.ChatID, Reply{Text: textRestart, Keyboard: initialKeyboard()})
		return nil
	}

	log = log.With(zap.String(logger.FieldState, sess.State.String()))
	log.Debug("handling message")

	switch command(msg.Text) {
	case CommandStart:
		m.handleStart(ctx, log, msg, &sess)
	case CommandAuth:
		m.handleAuth(ctx, log, msg, &sess)
	default:
		switch sess.State {
		case session.StateInitial:
			m.reply(ctx, log, msg.ChatID, Reply{Text: textNeedAuth, Keyboard: unauthorizedKeyboard()})
		case session.StateUnauthorized:
			m.reply(ctx, log, msg.ChatID, Reply{Text: textAuthReminder})
		case session.StateAuthorized, session.StateFinal:
			m.handleAuthorized(ctx, log, msg, &sess)
		case session.StateRewriteResume:
			m.handleRewrite(ctx, log, msg, &sess)
		default:
			log.Warn("unknown state, resetting session")
			sess.Reset(session.StateInitial)
			m.reply(ctx, log, msg.ChatID, Reply{Text: textRestart, Keyboard: initialKeyboard()})
		}
	}

	m.sessions.Set(msg.UserID, sess)
	return nil
}

// State returns the current state of a user, if the user has a session.
func (m *Machine) State(userID int64) (session.State, bool) {
	sess, ok := m.sessions.Get(userID)
	return sess.State, ok
}

func (m *Machine) reply(ctx context.Context, log *zap.Logger, chatID int64, reply Reply) {
	if err := m.sender.Send(ctx, chatID, reply); err != nil {
		log.Error("failed to send reply", zap.Error(err))
	}
}

// command returns the leading command token of text, without a bot mention.
func command(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}

	cmd, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(cmd)
}
