// Package entity holds the internal resume and vacancy shapes the rewrite
// pipeline works with, and the extractor that builds them from raw hh.ru JSON.
package entity

// Experience is a single work experience entry of a resume.
type Experience struct {
	Description string  `json:"description"`
	Position    string  `json:"position"`
	Start       *string `json:"start,omitempty"`
	End         *string `json:"end,omitempty"`
}

type Language struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

type Relocation struct {
	Type string `json:"type"`
}

type Salary struct {
	Amount int `json:"amount"`
}

type ProfessionalRole struct {
	Name string `json:"name"`
}

// Resume is an immutable snapshot of the resume fields used by the language model.
type Resume struct {
	Title             string             `json:"title"`
	Skills            string             `json:"skills"`
	SkillSet          []string           `json:"skill_set"`
	Experience        []Experience       `json:"experience"`
	Employments       []string           `json:"employments"`
	Schedules         []string           `json:"schedules"`
	Languages         []Language         `json:"languages"`
	Relocation        *Relocation        `json:"relocation,omitempty"`
	Salary            *Salary            `json:"salary,omitempty"`
	ProfessionalRoles []ProfessionalRole `json:"professional_roles"`
}

// Ref is a dictionary reference used by hh.ru (employment, schedule and so on).
type Ref struct {
	ID string `json:"id"`
}

type Vacancy struct {
	Description    string   `json:"description"`
	KeySkills      []string `json:"key_skills"`
	EmploymentForm *Ref     `json:"employment_form,omitempty"`
	Experience     *Ref     `json:"experience,omitempty"`
	Schedule       *Ref     `json:"schedule,omitempty"`
	Employment     *Ref     `json:"employment,omitempty"`
}

// Section is the resume section a recommendation targets.
type Section string

const (
	SectionTitle             Section = "title"
	SectionSkills            Section = "skills"
	SectionSkillSet          Section = "skill_set"
	SectionExperience        Section = "experience"
	SectionProfessionalRoles Section = "professional_roles"
)

// Sections lists every valid Section in resume order.
var Sections = []Section{SectionTitle, SectionSkills, SectionSkillSet, SectionExperience, SectionProfessionalRoles}

// Action is what a recommendation asks the rewriter to do with a section.
type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionRemove Action = "remove"
)

var Actions = []Action{ActionAdd, ActionUpdate, ActionRemove}

type Recommendation struct {
	Section Section `json:"section"`
	Action  Action  `json:"recommendation_type"`
	Details string  `json:"details"`
}

// GapAnalysis is an ordered list of recommendations. A valid analysis carries
// exactly one experience recommendation per experience entry of the resume.
type GapAnalysis struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// ExperienceRecommendations counts recommendations tagged with the experience section.
func (g *GapAnalysis) ExperienceRecommendations() int {
	if g == nil {
		return 0
	}
	count := 0
	for _, rec := range g.Recommendations {
		if rec.Section == SectionExperience {
			count++
		}
	}
	return count
}

type ExperienceUpdate struct {
	Position    string `json:"position"`
	Description string `json:"description"`
}

// RewrittenResume holds the sections eligible for rewrite. Its experience
// count must match the experience count of the original resume.
type RewrittenResume struct {
	Title             string             `json:"title"`
	Skills            string             `json:"skills"`
	SkillSet          []string           `json:"skill_set"`
	Experience        []ExperienceUpdate `json:"experience"`
	ProfessionalRoles []ProfessionalRole `json:"professional_roles"`
}
