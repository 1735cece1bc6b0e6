package classifier

import (
	"bytes"
	"fmt"
	"text/template"

	"jobscout/config"
)

// Stage is one yes/no decision of the cascade
type Stage struct {
	Name     string
	prompt   *template.Template
	followUp *template.Template
}

// promptData is what stage prompt templates can reference
type promptData struct {
	Content     string
	Constraints []string
	Accepted    []string
	Excluded    []string
	Skills      []string
}

type followUpData struct {
	Answer string
}

// NewStage parses the prompt pair of a stage
func NewStage(name string, p config.StagePrompt) (Stage, error) {
	prompt, err := template.New(name + "-prompt").Option("missingkey=error").Parse(p.Prompt)
	if err != nil {
		return Stage{}, fmt.Errorf("invalid %s prompt: %w", name, err)
	}
	followUp, err := template.New(name + "-follow-up").Option("missingkey=error").Parse(p.FollowUp)
	if err != nil {
		return Stage{}, fmt.Errorf("invalid %s follow-up prompt: %w", name, err)
	}
	return Stage{Name: name, prompt: prompt, followUp: followUp}, nil
}

// StagesFromConfig builds the eligibility, domain-fit and skill-fit stages
func StagesFromConfig(s config.Stages) ([]Stage, error) {
	var stages []Stage
	for _, def := range []struct {
		name string
		p    config.StagePrompt
	}{
		{"eligibility", s.Eligibility},
		{"domain-fit", s.DomainFit},
		{"skill-fit", s.SkillFit},
	} {
		stage, err := NewStage(def.name, def.p)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

func (s Stage) renderPrompt(content string, rubric config.Rubric) (string, error) {
	var buf bytes.Buffer
	err := s.prompt.Execute(&buf, promptData{
		Content:     content,
		Constraints: rubric.Constraints,
		Accepted:    rubric.Accepted,
		Excluded:    rubric.Excluded,
		Skills:      rubric.Skills,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", s.Name, err)
	}
	return buf.String(), nil
}

func (s Stage) renderFollowUp(answer string) (string, error) {
	var buf bytes.Buffer
	if err := s.followUp.Execute(&buf, followUpData{Answer: answer}); err != nil {
		return "", fmt.Errorf("failed to render %s follow-up: %w", s.Name, err)
	}
	return buf.String(), nil
}
