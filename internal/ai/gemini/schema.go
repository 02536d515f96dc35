package gemini

import (
	"github.com/spigell/hh-resume-bot/internal/entity"
	"google.golang.org/genai"
)

func stringEnum[T ~string](values []T) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}

func gapAnalysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"recommendations": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"section":             {Type: genai.TypeString, Enum: stringEnum(entity.Sections)},
						"recommendation_type": {Type: genai.TypeString, Enum: stringEnum(entity.Actions)},
						"details":             {Type: genai.TypeString},
					},
					Required:         []string{"section", "recommendation_type", "details"},
					PropertyOrdering: []string{"section", "recommendation_type", "details"},
				},
			},
		},
		Required: []string{"recommendations"},
	}
}

func rewrittenResumeSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":     {Type: genai.TypeString},
			"skills":    {Type: genai.TypeString},
			"skill_set": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"experience": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"position":    {Type: genai.TypeString},
						"description": {Type: genai.TypeString},
					},
					Required: []string{"position", "description"},
				},
			},
			"professional_roles": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name": {Type: genai.TypeString},
					},
					Required: []string{"name"},
				},
			},
		},
		Required:         []string{"title", "skills", "skill_set", "experience", "professional_roles"},
		PropertyOrdering: []string{"title", "skills", "skill_set", "experience", "professional_roles"},
	}
}
