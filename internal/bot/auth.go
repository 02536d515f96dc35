package bot

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/hh-resume-bot/internal/callback"
	"github.com/spigell/hh-resume-bot/internal/logger"
	"github.com/spigell/hh-resume-bot/internal/session"
)

var ErrNoPendingAuthorization = errors.New("no authorization is pending for this redirect")

// pendingAuth links the next authorization code to the user who asked for it.
type pendingAuth struct {
	userID int64
	chatID int64
}

func (m *Machine) handleStart(ctx context.Context, log *zap.Logger, msg Message, sess *session.Session) {
	interrupted := sess.State == session.StateUnauthorized
	sess.Reset(session.StateInitial)

	text := textGreetingNeedAuth
	if interrupted {
		text = textGreetingAuthInterrupted
	}

	name := msg.FullName
	if name == "" {
		name = "друг"
	}

	m.reply(ctx, log, msg.ChatID, Reply{
		Text:     fmt.Sprintf(textGreeting, name) + text,
		Keyboard: unauthorizedKeyboard(),
	})
	log.Info("greeting sent", zap.Bool("auth_interrupted", interrupted))
}

func (m *Machine) handleAuth(ctx context.Context, log *zap.Logger, msg Message, sess *session.Session) {
	p := &pendingAuth{userID: msg.UserID, chatID: msg.ChatID}

	if !m.callback.Start(m.authorizationHandler(p)) {
		log.Error("callback listener is not available")
		m.reply(ctx, log, msg.ChatID, Reply{Text: textAuthServerError})
		return
	}

	m.mu.Lock()
	if m.pending != nil && m.pending.userID != p.userID {
		log.Info("pending authorization taken over", zap.Int64("previous_user_id", m.pending.userID))
	}
	m.pending = p
	m.mu.Unlock()

	sess.State = session.StateUnauthorized

	m.reply(ctx, log, msg.ChatID, Reply{Text: textAuthIntro + m.auth.AuthURL()})
	log.Info("authorization started")
}

// authorizationHandler serves exactly one redirect for p. Once p is replaced by
// a newer request or consumed, the handler refuses the code.
func (m *Machine) authorizationHandler(p *pendingAuth) callback.Handler {
	return func(ctx context.Context, code string) error {
		if !m.claimPending(p) {
			return ErrNoPendingAuthorization
		}

		ctx = context.WithoutCancel(ctx)
		log := logger.ForUser(m.logger, p.userID)

		unlock := m.sessions.Lock(p.userID)
		defer unlock()

		sess, _ := m.sessions.Get(p.userID)

		if err := m.auth.ExchangeCode(ctx, code); err != nil {
			log.Error("authorization code exchange failed", zap.Error(err))
			sess.State = session.StateUnauthorized
			m.sessions.Set(p.userID, sess)
			m.reply(ctx, log, p.chatID, Reply{Text: textAuthError, Keyboard: unauthorizedKeyboard()})
			return err
		}

		sess.Reset(session.StateAuthorized)
		m.sessions.Set(p.userID, sess)

		m.reply(ctx, log, p.chatID, Reply{Text: textAuthSuccess + textChooseAction, Keyboard: mainKeyboard()})
		log.Info("user authorized")
		return nil
	}
}

func (m *Machine) claimPending(p *pendingAuth) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending != p {
		return false
	}
	m.pending = nil
	return true
}

// PendingUser returns the user the next authorization code will be bound to.
func (m *Machine) PendingUser() (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil {
		return 0, false
	}
	return m.pending.userID, true
}
