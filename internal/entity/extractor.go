package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

var (
	ErrMalformedDocument = errors.New("document is not a json object")
	ErrMissingField      = errors.New("required field is missing")
)

// Extractor normalizes raw hh.ru documents. It keeps no state between calls.
type Extractor struct {
	logger *zap.Logger
}

func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

type rawExperience struct {
	Description string  `json:"description"`
	Position    string  `json:"position"`
	Start       *string `json:"start"`
	End         *string `json:"end"`
}

type rawLanguage struct {
	Name  string `json:"name"`
	Level struct {
		Name string `json:"name"`
	} `json:"level"`
}

type rawNamed struct {
	Name string `json:"name"`
}

// ExtractResume builds a Resume from a raw resume document. The title is required,
// every other field is optional and malformed nested entries are skipped.
func (e *Extractor) ExtractResume(raw any) (*Resume, error) {
	doc, ok := raw.(map[string]any)
	if !ok || doc == nil {
		return nil, fmt.Errorf("resume: %w", ErrMalformedDocument)
	}

	title, ok := doc["title"].(string)
	if !ok {
		return nil, fmt.Errorf("resume: %w: title", ErrMissingField)
	}

	resume := &Resume{
		Title:             title,
		Skills:            stringValue(doc["skills"]),
		SkillSet:          stringList(doc["skill_set"]),
		Experience:        []Experience{},
		Employments:       []string{},
		Schedules:         []string{},
		Languages:         []Language{},
		ProfessionalRoles: []ProfessionalRole{},
	}

	for i, item := range list(doc["experience"]) {
		var exp rawExperience
		if err := decode(item, &exp); err != nil {
			e.skip("experience", i, err)
			continue
		}
		resume.Experience = append(resume.Experience, Experience{
			Description: StripHTML(exp.Description),
			Position:    exp.Position,
			Start:       exp.Start,
			End:         exp.End,
		})
	}

	resume.Employments = e.names("employments", doc["employments"])
	resume.Schedules = e.names("schedules", doc["schedules"])

	for i, item := range list(doc["language"]) {
		var lang rawLanguage
		if err := decode(item, &lang); err != nil {
			e.skip("language", i, err)
			continue
		}
		resume.Languages = append(resume.Languages, Language{Name: lang.Name, Level: lang.Level.Name})
	}

	if relocation, ok := doc["relocation"].(map[string]any); ok {
		var kind rawNamed
		if err := decode(relocation["type"], &kind); err == nil && kind.Name != "" {
			resume.Relocation = &Relocation{Type: kind.Name}
		}
	}

	if salary, ok := doc["salary"].(map[string]any); ok && salary["amount"] != nil {
		var parsed Salary
		if err := decode(salary, &parsed); err != nil {
			e.logger.Debug("skipping malformed salary", zap.Error(err))
		} else {
			resume.Salary = &parsed
		}
	}

	for _, name := range e.names("professional_roles", doc["professional_roles"]) {
		resume.ProfessionalRoles = append(resume.ProfessionalRoles, ProfessionalRole{Name: name})
	}

	return resume, nil
}

// ExtractVacancy builds a Vacancy from a raw vacancy document. The description is required.
func (e *Extractor) ExtractVacancy(raw any) (*Vacancy, error) {
	doc, ok := raw.(map[string]any)
	if !ok || doc == nil {
		return nil, fmt.Errorf("vacancy: %w", ErrMalformedDocument)
	}

	description, ok := doc["description"].(string)
	if !ok {
		return nil, fmt.Errorf("vacancy: %w: description", ErrMissingField)
	}

	return &Vacancy{
		Description:    StripHTML(description),
		KeySkills:      e.names("key_skills", doc["key_skills"]),
		EmploymentForm: ref(doc["employment_form"]),
		Experience:     ref(doc["experience"]),
		Schedule:       ref(doc["schedule"]),
		Employment:     ref(doc["employment"]),
	}, nil
}

func (e *Extractor) names(field string, v any) []string {
	result := []string{}
	for i, item := range list(v) {
		var named rawNamed
		if err := decode(item, &named); err != nil {
			e.skip(field, i, err)
			continue
		}
		result = append(result, named.Name)
	}
	return result
}

func (e *Extractor) skip(field string, index int, err error) {
	e.logger.Warn("skipping malformed entry",
		zap.String("field", field),
		zap.Int("index", index),
		zap.Error(err),
	)
}

// decode accepts only json objects and decodes them by their json tags.
func decode(input any, target any) error {
	obj, ok := input.(map[string]any)
	if !ok {
		return fmt.Errorf("expected object, got %T", input)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(obj)
}

func ref(v any) *Ref {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return &Ref{ID: stringValue(obj["id"])}
}

func list(v any) []any {
	items, _ := v.([]any)
	return items
}

func stringList(v any) []string {
	result := []string{}
	for _, item := range list(v) {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// StripHTML drops markup and returns plain text with entities unescaped.
func StripHTML(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			switch name, _ := z.TagName(); string(name) {
			case "p", "li", "div", "ul", "ol":
				b.WriteByte('\n')
			}
		}
	}
}
