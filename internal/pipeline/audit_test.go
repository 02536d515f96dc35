package pipeline

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/hh-resume-bot/internal/entity"
)

func testRecord() Record {
	return Record{
		ResumeID:       "abc123",
		OriginalResume: map[string]any{"title": "Old"},
		ParsedResume:   &entity.Resume{Title: "Old"},
		ParsedVacancy:  &entity.Vacancy{Description: "We need Go"},
		GapAnalysis: &entity.GapAnalysis{Recommendations: []entity.Recommendation{
			{Section: entity.SectionTitle, Action: entity.ActionUpdate, Details: "rename"},
		}},
		FinalResume: &entity.RewrittenResume{Title: "New"},
	}
}

func TestAuditorWritesAllArtifacts(t *testing.T) {
	fs := afero.NewMemMapFs()
	auditor := NewAuditor(fs, "LOG", zap.NewNop())
	auditor.now = func() time.Time { return time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC) }

	auditor.Record(testRecord())

	dir := filepath.Join("LOG", "2024-03-05_14-07-09_abc123")
	for _, name := range []string{
		"original_resume.json",
		"parsed_resume.json",
		"parsed_vacancy.json",
		"gap_analysis.json",
		"final_resume.json",
	} {
		exists, err := afero.Exists(fs, filepath.Join(dir, name))
		require.NoError(t, err)
		assert.True(t, exists, "missing %s", name)
	}

	data, err := afero.ReadFile(fs, filepath.Join(dir, "gap_analysis.json"))
	require.NoError(t, err)

	var gap entity.GapAnalysis
	require.NoError(t, json.Unmarshal(data, &gap))
	assert.Equal(t, "rename", gap.Recommendations[0].Details)
}

type failingFs struct {
	afero.Fs
}

func (failingFs) MkdirAll(string, os.FileMode) error {
	return errors.New("disk is full")
}

func TestAuditorFailureIsOnlyLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	auditor := NewAuditor(failingFs{Fs: afero.NewMemMapFs()}, "LOG", zap.New(core))

	assert.NotPanics(t, func() { auditor.Record(testRecord()) })
	assert.Equal(t, 1, logs.FilterMessage("failed to write audit log").Len())
}

func TestNilAuditorIsNoop(t *testing.T) {
	var auditor *Auditor

	assert.NotPanics(t, func() { auditor.Record(testRecord()) })
}
