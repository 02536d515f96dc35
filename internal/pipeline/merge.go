package pipeline

import (
	"errors"

	"github.com/spigell/hh-resume-bot/internal/entity"
	"go.uber.org/zap"
)

// Fields hh.ru rejects or validates strictly on resume update.
const (
	fieldSpecialization = "specialization"
	fieldHasVehicle     = "has_vehicle"
)

var errNothingToMerge = errors.New("original resume or rewrite is missing")

// Merge applies the rewritten sections to a copy of the original resume document.
// Experience entries are updated by index for the common prefix only; a count
// mismatch is logged and the extra original entries are kept as they are.
func Merge(original map[string]any, rewritten *entity.RewrittenResume, log *zap.Logger) (map[string]any, error) {
	if original == nil || rewritten == nil {
		return nil, errNothingToMerge
	}
	if log == nil {
		log = zap.NewNop()
	}

	merged, _ := deepCopy(original).(map[string]any)

	if rewritten.Title != "" {
		merged["title"] = rewritten.Title
	}
	if rewritten.Skills != "" {
		merged["skills"] = rewritten.Skills
	}
	if len(rewritten.SkillSet) > 0 {
		skillSet := make([]any, 0, len(rewritten.SkillSet))
		for _, skill := range rewritten.SkillSet {
			skillSet = append(skillSet, skill)
		}
		merged["skill_set"] = skillSet
	}

	if len(rewritten.Experience) > 0 {
		mergeExperience(merged, rewritten.Experience, log)
	}

	delete(merged, fieldSpecialization)

	if v, ok := merged[fieldHasVehicle]; ok {
		strict, _ := v.(bool)
		merged[fieldHasVehicle] = strict
	}

	return merged, nil
}

func mergeExperience(doc map[string]any, updates []entity.ExperienceUpdate, log *zap.Logger) {
	entries, _ := doc["experience"].([]any)

	if len(entries) != len(updates) {
		log.Warn("experience count mismatch",
			zap.Int("original", len(entries)),
			zap.Int("rewritten", len(updates)),
		)
	}

	n := min(len(entries), len(updates))
	for i := 0; i < n; i++ {
		entry, ok := entries[i].(map[string]any)
		if !ok {
			log.Warn("skipping malformed experience entry", zap.Int("index", i))
			continue
		}
		entry["position"] = updates[i].Position
		entry["description"] = updates[i].Description
	}
}

func deepCopy(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, val := range typed {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, val := range typed {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}
