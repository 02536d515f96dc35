package bot

import (
	"context"
	"errors"
	"sync"

	"github.com/spigell/hh-resume-bot/internal/callback"
	"github.com/spigell/hh-resume-bot/internal/entity"
	"github.com/spigell/hh-resume-bot/internal/headhunter"
	"github.com/spigell/hh-resume-bot/internal/pipeline"
)

type sent struct {
	chatID int64
	reply  Reply
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sent
}

func (f *fakeSender) Send(_ context.Context, chatID int64, reply Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{chatID: chatID, reply: reply})
	return nil
}

func (f *fakeSender) last() Reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return Reply{}
	}
	return f.sent[len(f.sent)-1].reply
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, s := range f.sent {
		out = append(out, s.reply.Text)
	}
	return out
}

type fakeAuth struct {
	exchangeErr error
	codes       []string
}

func (f *fakeAuth) AuthURL() string {
	return "https://hh.ru/oauth/authorize?response_type=code&client_id=abc"
}

func (f *fakeAuth) ExchangeCode(_ context.Context, code string) error {
	f.codes = append(f.codes, code)
	return f.exchangeErr
}

type fakeCallback struct {
	fail    bool
	starts  int
	handler callback.Handler
}

func (f *fakeCallback) Start(handler callback.Handler) bool {
	if f.fail {
		return false
	}
	f.starts++
	f.handler = handler
	return true
}

type fakePlatform struct {
	resumes   map[string]map[string]any
	vacancies map[string]map[string]any
	fetchErr  error
	updated   map[string]any
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		resumes: map[string]map[string]any{
			"abc123": {
				"title": "Developer",
				"experience": []any{
					map[string]any{"position": "Dev", "description": "<b>Code</b>"},
				},
			},
		},
		vacancies: map[string]map[string]any{
			"42": {"description": "<p>We need Go</p>"},
		},
	}
}

func (f *fakePlatform) GetResume(_ context.Context, id string) (map[string]any, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	doc, ok := f.resumes[id]
	if !ok {
		return nil, &headhunter.HTTPError{StatusCode: 404}
	}
	return doc, nil
}

func (f *fakePlatform) GetVacancy(_ context.Context, id string) (map[string]any, error) {
	doc, ok := f.vacancies[id]
	if !ok {
		return nil, &headhunter.HTTPError{StatusCode: 404}
	}
	return doc, nil
}

func (f *fakePlatform) UpdateResume(_ context.Context, _ string, doc map[string]any) error {
	f.updated = doc
	return nil
}

func (f *fakePlatform) ResumeURL(id string) string {
	return "https://hh.ru/resume/" + id
}

type fakeRewriter struct {
	gapErr error
}

func (f *fakeRewriter) GapAnalysis(context.Context, *entity.Resume, *entity.Vacancy) (*entity.GapAnalysis, error) {
	if f.gapErr != nil {
		return nil, f.gapErr
	}
	return &entity.GapAnalysis{Recommendations: []entity.Recommendation{
		{Section: entity.SectionExperience, Action: entity.ActionUpdate, Details: "mention Go"},
	}}, nil
}

func (f *fakeRewriter) Rewrite(context.Context, *entity.Resume, *entity.GapAnalysis) (*entity.RewrittenResume, error) {
	return &entity.RewrittenResume{
		Title:      "Go Developer",
		Experience: []entity.ExperienceUpdate{{Position: "Go Dev", Description: "Go code"}},
	}, nil
}

// panickingPipeline wraps a real pipeline and panics on the selected step.
type panickingPipeline struct {
	Pipeline
	onResume  bool
	onVacancy bool
}

func (p *panickingPipeline) ProcessResume(ctx context.Context, text string, progress pipeline.Progress) (*pipeline.ResumeResult, error) {
	if p.onResume {
		panic("resume step exploded")
	}
	return p.Pipeline.ProcessResume(ctx, text, progress)
}

func (p *panickingPipeline) ProcessVacancy(ctx context.Context, text string, progress pipeline.Progress) (*pipeline.VacancyResult, error) {
	if p.onVacancy {
		panic("vacancy step exploded")
	}
	return p.Pipeline.ProcessVacancy(ctx, text, progress)
}

var errExchange = errors.New("bad status: 400: invalid_grant")
