package pipeline

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/spigell/hh-resume-bot/internal/entity"
)

const (
	auditTimeLayout = "2006-01-02_15-04-05"
	auditDirPerm    = 0o755
	auditFilePerm   = 0o644
)

// Record is the full set of artifacts of one rewrite attempt.
type Record struct {
	ResumeID       string
	OriginalResume map[string]any
	ParsedResume   *entity.Resume
	ParsedVacancy  *entity.Vacancy
	GapAnalysis    *entity.GapAnalysis
	FinalResume    *entity.RewrittenResume
}

// Auditor writes one directory of JSON documents per rewrite attempt.
type Auditor struct {
	fs     afero.Fs
	root   string
	now    func() time.Time
	logger *zap.Logger
}

func NewAuditor(fs afero.Fs, root string, logger *zap.Logger) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{
		fs:     fs,
		root:   root,
		now:    time.Now,
		logger: logger,
	}
}

// Record stores rec under <root>/<timestamp>_<resume id>. Failures are logged only.
func (a *Auditor) Record(rec Record) {
	if a == nil || a.fs == nil {
		return
	}

	dir, err := a.write(rec)
	if err != nil {
		a.logger.Error("failed to write audit log", zap.String("resume_id", rec.ResumeID), zap.Error(err))
		return
	}

	a.logger.Info("rewrite artifacts saved", zap.String("path", dir))
}

func (a *Auditor) write(rec Record) (string, error) {
	dir := filepath.Join(a.root, fmt.Sprintf("%s_%s", a.now().Format(auditTimeLayout), rec.ResumeID))
	if err := a.fs.MkdirAll(dir, auditDirPerm); err != nil {
		return "", err
	}

	files := []struct {
		name string
		data any
	}{
		{"original_resume.json", rec.OriginalResume},
		{"parsed_resume.json", rec.ParsedResume},
		{"parsed_vacancy.json", rec.ParsedVacancy},
		{"gap_analysis.json", rec.GapAnalysis},
		{"final_resume.json", rec.FinalResume},
	}

	for _, f := range files {
		data, err := json.MarshalIndent(f.data, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", f.name, err)
		}
		if err := afero.WriteFile(a.fs, filepath.Join(dir, f.name), data, auditFilePerm); err != nil {
			return "", fmt.Errorf("write %s: %w", f.name, err)
		}
	}

	return dir, nil
}
