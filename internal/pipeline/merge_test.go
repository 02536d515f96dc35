package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/hh-resume-bot/internal/entity"
)

func rawExperience(n int) []any {
	entries := make([]any, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, map[string]any{
			"position":    "old position",
			"description": "old description",
			"company":     "Company",
			"start":       "2020-01-01",
		})
	}
	return entries
}

func TestMergeUpdatesCommonPrefixAndLogsMismatch(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	original := map[string]any{
		"title":      "Old",
		"experience": rawExperience(4),
	}

	rewritten := &entity.RewrittenResume{
		Experience: []entity.ExperienceUpdate{
			{Position: "P0", Description: "D0"},
			{Position: "P1", Description: "D1"},
		},
	}

	merged, err := Merge(original, rewritten, zap.New(core))
	require.NoError(t, err)

	entries := merged["experience"].([]any)
	require.Len(t, entries, 4)

	for i, want := range []string{"P0", "P1", "old position", "old position"} {
		entry := entries[i].(map[string]any)
		assert.Equal(t, want, entry["position"], "entry %d", i)
		assert.Equal(t, "Company", entry["company"], "entry %d keeps untouched fields", i)
	}
	assert.Equal(t, "D1", entries[1].(map[string]any)["description"])
	assert.Equal(t, "old description", entries[3].(map[string]any)["description"])

	assert.Equal(t, "Old", merged["title"], "empty rewritten title keeps original")
	assert.Equal(t, 1, logs.FilterMessage("experience count mismatch").Len())
}

func TestMergeLeavesOriginalUntouched(t *testing.T) {
	original := map[string]any{
		"title":      "Old",
		"experience": rawExperience(1),
	}

	_, err := Merge(original, &entity.RewrittenResume{
		Title:      "New",
		Experience: []entity.ExperienceUpdate{{Position: "P", Description: "D"}},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Old", original["title"])
	assert.Equal(t, "old position", original["experience"].([]any)[0].(map[string]any)["position"])
}

func TestMergeOverwritesSectionsAndNormalizesFields(t *testing.T) {
	tests := []struct {
		name       string
		hasVehicle any
		want       bool
	}{
		{name: "true stays true", hasVehicle: true, want: true},
		{name: "false stays false", hasVehicle: false, want: false},
		{name: "string true becomes false", hasVehicle: "true", want: false},
		{name: "nil becomes false", hasVehicle: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := map[string]any{
				"title":          "Old",
				"skills":         "old skills",
				"skill_set":      []any{"Python"},
				"specialization": []any{map[string]any{"id": "1.221"}},
				"has_vehicle":    tt.hasVehicle,
				"experience":     rawExperience(1),
			}

			merged, err := Merge(original, &entity.RewrittenResume{
				Title:      "New",
				Skills:     "new skills",
				SkillSet:   []string{"Go", "Kubernetes"},
				Experience: []entity.ExperienceUpdate{{Position: "P", Description: "D"}},
			}, zap.NewNop())
			require.NoError(t, err)

			assert.Equal(t, "New", merged["title"])
			assert.Equal(t, "new skills", merged["skills"])
			assert.Equal(t, []any{"Go", "Kubernetes"}, merged["skill_set"])
			assert.NotContains(t, merged, "specialization")
			assert.Equal(t, tt.want, merged["has_vehicle"])
		})
	}
}

func TestMergeWithoutHasVehicleDoesNotAddIt(t *testing.T) {
	merged, err := Merge(map[string]any{"title": "Old"}, &entity.RewrittenResume{Title: "New"}, nil)
	require.NoError(t, err)

	assert.NotContains(t, merged, "has_vehicle")
}

func TestMergeRequiresInputs(t *testing.T) {
	_, err := Merge(nil, &entity.RewrittenResume{}, nil)
	assert.Error(t, err)

	_, err = Merge(map[string]any{}, nil, nil)
	assert.Error(t, err)
}
