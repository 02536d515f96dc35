package bot

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/hh-resume-bot/internal/pipeline"
	"github.com/spigell/hh-resume-bot/internal/session"
)

const (
	userA int64 = 100
	userB int64 = 200
)

type harness struct {
	machine  *Machine
	sender   *fakeSender
	auth     *fakeAuth
	callback *fakeCallback
	platform *fakePlatform
	rewriter *fakeRewriter
	sessions *session.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		sender:   &fakeSender{},
		auth:     &fakeAuth{},
		callback: &fakeCallback{},
		platform: newFakePlatform(),
		rewriter: &fakeRewriter{},
		sessions: session.NewStore(),
	}

	h.machine = NewMachine(Deps{
		Sessions: h.sessions,
		Sender:   h.sender,
		Auth:     h.auth,
		Callback: h.callback,
		Pipeline: pipeline.New(h.platform, nil, h.rewriter, nil, zap.NewNop()),
		Logger:   zap.NewNop(),
	})

	return h
}

func (h *harness) send(t *testing.T, userID int64, text string) {
	t.Helper()
	err := h.machine.Handle(context.Background(), Message{UserID: userID, ChatID: userID, Text: text, FullName: "Ivan Petrov"})
	require.NoError(t, err)
}

func (h *harness) state(t *testing.T, userID int64) session.State {
	t.Helper()
	st, ok := h.machine.State(userID)
	require.True(t, ok, "session must exist")
	return st
}

func (h *harness) authorize(t *testing.T, userID int64) {
	t.Helper()
	h.send(t, userID, "hi")
	h.send(t, userID, CommandAuth)
	require.NoError(t, h.callback.handler(context.Background(), "CODE"))
	require.Equal(t, session.StateAuthorized, h.state(t, userID))
}

func TestFirstMessageCreatesInitialSession(t *testing.T) {
	for _, text := range []string{"hello", CommandStart, CommandAuth, "https://hh.ru/resume/abc123"} {
		t.Run(text, func(t *testing.T) {
			h := newHarness(t)

			h.send(t, userA, text)

			assert.Equal(t, session.StateInitial, h.state(t, userA))
			assert.Equal(t, textRestart, h.sender.last().Text)
			assert.Equal(t, initialKeyboard(), h.sender.last().Keyboard)
			assert.Zero(t, h.callback.starts)
		})
	}
}

func TestStartGreetsByName(t *testing.T) {
	h := newHarness(t)
	h.send(t, userA, "hi")

	h.send(t, userA, CommandStart)

	reply := h.sender.last()
	assert.Contains(t, reply.Text, "Ivan Petrov")
	assert.True(t, strings.HasSuffix(reply.Text, textGreetingNeedAuth))
	assert.Equal(t, unauthorizedKeyboard(), reply.Keyboard)
	assert.Equal(t, session.StateInitial, h.state(t, userA))
}

func TestStartDuringAuthorizationFlagsInterruption(t *testing.T) {
	h := newHarness(t)
	h.send(t, userA, "hi")
	h.send(t, userA, CommandAuth)
	require.Equal(t, session.StateUnauthorized, h.state(t, userA))

	h.send(t, userA, "/start@hh_resume_bot")

	assert.True(t, strings.HasSuffix(h.sender.last().Text, textGreetingAuthInterrupted))
	assert.Equal(t, session.StateInitial, h.state(t, userA))
}

func TestInitialTextRemindsToAuthorize(t *testing.T) {
	h := newHarness(t)
	h.send(t, userA, "hi")

	h.send(t, userA, "what can you do?")

	assert.Equal(t, textNeedAuth, h.sender.last().Text)
	assert.Equal(t, session.StateInitial, h.state(t, userA))
}

func TestAuthSendsLinkAndWaits(t *testing.T) {
	h := newHarness(t)
	h.send(t, userA, "hi")

	h.send(t, userA, CommandAuth)

	assert.Equal(t, session.StateUnauthorized, h.state(t, userA))
	assert.Contains(t, h.sender.last().Text, h.auth.AuthURL())
	pending, ok := h.machine.PendingUser()
	assert.True(t, ok)
	assert.Equal(t, userA, pending)

	h.send(t, userA, "done?")
	assert.Equal(t, textAuthReminder, h.sender.last().Text)
}

func TestAuthTwiceLastRequesterWins(t *testing.T) {
	h := newHarness(t)
	h.send(t, userA, "hi")
	h.send(t, userB, "hi")

	h.send(t, userA, CommandAuth)
	first := h.callback.handler
	h.send(t, userB, CommandAuth)

	assert.Equal(t, 2, h.callback.starts)
	pending, ok := h.machine.PendingUser()
	require.True(t, ok)
	assert.Equal(t, userB, pending)

	assert.ErrorIs(t, first(context.Background(), "CODE"), ErrNoPendingAuthorization)
	assert.Empty(t, h.auth.codes)

	require.NoError(t, h.callback.handler(context.Background(), "CODE"))
	assert.Equal(t, session.StateAuthorized, h.state(t, userB))
	assert.Equal(t, session.StateUnauthorized, h.state(t, userA))

	_, ok = h.machine.PendingUser()
	assert.False(t, ok)
}

func TestAuthorizationSuccess(t *testing.T) {
	h := newHarness(t)

	h.authorize(t, userA)

	assert.Equal(t, []string{"CODE"}, h.auth.codes)
	assert.Equal(t, textAuthSuccess+textChooseAction, h.sender.last().Text)
	assert.Equal(t, mainKeyboard(), h.sender.last().Keyboard)
}

func TestAuthorizationHandlerIsOneShot(t *testing.T) {
	h := newHarness(t)
	h.authorize(t, userA)

	assert.ErrorIs(t, h.callback.handler(context.Background(), "AGAIN"), ErrNoPendingAuthorization)
	assert.Equal(t, []string{"CODE"}, h.auth.codes)
}

func TestAuthorizationFailureKeepsUnauthorized(t *testing.T) {
	h := newHarness(t)
	h.auth.exchangeErr = errExchange
	h.send(t, userA, "hi")
	h.send(t, userA, CommandAuth)

	err := h.callback.handler(context.Background(), "CODE")

	assert.ErrorIs(t, err, errExchange)
	assert.Equal(t, session.StateUnauthorized, h.state(t, userA))
	assert.Equal(t, textAuthError, h.sender.last().Text)
}

func TestAuthWhenListenerCannotStart(t *testing.T) {
	h := newHarness(t)
	h.callback.fail = true
	h.send(t, userA, "hi")

	h.send(t, userA, CommandAuth)

	assert.Equal(t, textAuthServerError, h.sender.last().Text)
	assert.Equal(t, session.StateInitial, h.state(t, userA))
	_, ok := h.machine.PendingUser()
	assert.False(t, ok)
}

func TestAuthorizedActions(t *testing.T) {
	h := newHarness(t)
	h.authorize(t, userA)

	h.send(t, userA, ButtonCreateResume)
	assert.Equal(t, textCreateUnavailable, h.sender.last().Text)
	assert.Equal(t, session.StateAuthorized, h.state(t, userA))

	h.send(t, userA, "something else")
	assert.Equal(t, textDefault, h.sender.last().Text)
	assert.Equal(t, session.StateAuthorized, h.state(t, userA))

	h.send(t, userA, ButtonEditResume)
	assert.Equal(t, textWaitingResumeLink, h.sender.last().Text)
	assert.Equal(t, session.StateRewriteResume, h.state(t, userA))
}

func TestRewriteEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.authorize(t, userA)
	h.send(t, userA, ButtonEditResume)

	h.send(t, userA, "https://hh.ru/resume/abc123?foo=bar")

	sess, _ := h.sessions.Get(userA)
	assert.Equal(t, session.StateRewriteResume, sess.State)
	assert.True(t, sess.Data.ResumeProcessed())
	assert.Equal(t, "abc123", sess.Data.ResumeID)
	assert.Equal(t, textResumeParsed, h.sender.last().Text)

	h.send(t, userA, "https://hh.ru/vacancy/42")

	assert.Equal(t, session.StateAuthorized, h.state(t, userA))
	last := h.sender.last()
	assert.Contains(t, last.Text, "https://hh.ru/resume/abc123")
	assert.Equal(t, mainKeyboard(), last.Keyboard)
	assert.Equal(t, "Go Developer", h.platform.updated["title"])

	texts := h.sender.texts()
	assert.Contains(t, texts, textVacancyParsed)
	assert.Contains(t, texts, textAnalysisStarted)

	sess, _ = h.sessions.Get(userA)
	assert.False(t, sess.Data.ResumeProcessed(), "scratch data must be dropped")
}

func TestRewriteInvalidLinksKeepState(t *testing.T) {
	h := newHarness(t)
	h.authorize(t, userA)
	h.send(t, userA, ButtonEditResume)

	h.send(t, userA, "https://example.com/resume/1")
	assert.Equal(t, textInvalidResumeLink, h.sender.last().Text)
	assert.Equal(t, session.StateRewriteResume, h.state(t, userA))

	h.send(t, userA, "https://hh.ru/resume/abc123")
	h.send(t, userA, "https://hh.ru/resume/abc123")

	assert.Equal(t, textInvalidVacancyLink, h.sender.last().Text)
	sess, _ := h.sessions.Get(userA)
	assert.Equal(t, session.StateRewriteResume, sess.State)
	assert.True(t, sess.Data.ResumeProcessed())
}

func TestRewriteResumeFetchFailureKeepsState(t *testing.T) {
	h := newHarness(t)
	h.authorize(t, userA)
	h.send(t, userA, ButtonEditResume)

	h.send(t, userA, "https://hh.ru/resume/unknown")

	assert.Equal(t, textResumeFailed, h.sender.last().Text)
	sess, _ := h.sessions.Get(userA)
	assert.Equal(t, session.StateRewriteResume, sess.State)
	assert.False(t, sess.Data.ResumeProcessed())
}

func TestRewriteVacancyFailuresReturnToAuthorized(t *testing.T) {
	tests := []struct {
		name    string
		link    string
		gapErr  error
		message string
	}{
		{name: "vacancy not found", link: "https://hh.ru/vacancy/7", message: textVacancyFailed},
		{name: "gap analysis failed", link: "https://hh.ru/vacancy/42", gapErr: errExchange, message: textGapFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.rewriter.gapErr = tt.gapErr
			h.authorize(t, userA)
			h.send(t, userA, ButtonEditResume)
			h.send(t, userA, "https://hh.ru/resume/abc123")

			h.send(t, userA, tt.link)

			assert.Equal(t, tt.message, h.sender.last().Text)
			sess, _ := h.sessions.Get(userA)
			assert.Equal(t, session.StateAuthorized, sess.State)
			assert.False(t, sess.Data.ResumeProcessed())
			assert.Nil(t, h.platform.updated)
		})
	}
}

func TestPanicInResumeStepLeavesStateUnchanged(t *testing.T) {
	h := newHarness(t)
	h.machine.pipeline = &panickingPipeline{Pipeline: h.machine.pipeline, onResume: true}
	h.authorize(t, userA)
	h.send(t, userA, ButtonEditResume)

	err := h.machine.Handle(context.Background(), Message{UserID: userA, ChatID: userA, Text: "https://hh.ru/resume/abc123"})

	assert.Error(t, err)
	assert.Equal(t, textError, h.sender.last().Text)
	assert.Equal(t, session.StateRewriteResume, h.state(t, userA))
}

func TestPanicInVacancyStepReturnsToAuthorized(t *testing.T) {
	h := newHarness(t)
	h.machine.pipeline = &panickingPipeline{Pipeline: h.machine.pipeline, onVacancy: true}
	h.authorize(t, userA)
	h.send(t, userA, ButtonEditResume)
	h.send(t, userA, "https://hh.ru/resume/abc123")

	err := h.machine.Handle(context.Background(), Message{UserID: userA, ChatID: userA, Text: "https://hh.ru/vacancy/42"})

	assert.Error(t, err)
	assert.Equal(t, textError, h.sender.last().Text)
	assert.Equal(t, session.StateAuthorized, h.state(t, userA))
}

func TestCommand(t *testing.T) {
	tests := map[string]string{
		"/start":         CommandStart,
		"/START":         CommandStart,
		"/auth@my_bot":   CommandAuth,
		"  /auth now":    CommandAuth,
		"hello /start":   "",
		"":               "",
		ButtonEditResume: "",
	}

	for input, want := range tests {
		assert.Equal(t, want, command(input), "input %q", input)
	}
}
