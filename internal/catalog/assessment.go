package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const uncategorized = "Uncategorized"

var (
	ErrEmptyName     = errors.New("assessment name is empty")
	ErrDuplicateName = errors.New("duplicate assessment name")
)

// Assessment is one catalog entry. Duration and difficulty are carried for display only.
type Assessment struct {
	ID              int    `mapstructure:"id" yaml:"id,omitempty" json:"id,omitempty"`
	Name            string `mapstructure:"test_name" yaml:"test_name" json:"test_name"`
	Description     string `mapstructure:"test_description" yaml:"test_description,omitempty" json:"test_description,omitempty"`
	Category        string `mapstructure:"category" yaml:"category,omitempty" json:"category,omitempty"`
	Skills          string `mapstructure:"skills_assessed" yaml:"skills_assessed,omitempty" json:"skills_assessed,omitempty"`
	DurationMinutes int    `mapstructure:"duration_minutes" yaml:"duration_minutes,omitempty" json:"duration_minutes,omitempty"`
	Difficulty      string `mapstructure:"difficulty_level" yaml:"difficulty_level,omitempty" json:"difficulty_level,omitempty"`
}

// Text returns the widened text blob used for indexing: name, description, skills and category.
func (a Assessment) Text() string {
	return fmt.Sprintf("%s %s %s %s", a.Name, a.Description, a.Skills, a.Category)
}

// SkillList splits the comma-separated skills field.
func (a Assessment) SkillList() []string {
	var out []string
	for _, s := range strings.Split(a.Skills, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type JobRole struct {
	Name           string `mapstructure:"role_name" yaml:"role_name" json:"role_name"`
	Description    string `mapstructure:"role_description" yaml:"role_description,omitempty" json:"role_description,omitempty"`
	Department     string `mapstructure:"department" yaml:"department,omitempty" json:"department,omitempty"`
	RequiredSkills string `mapstructure:"required_skills" yaml:"required_skills,omitempty" json:"required_skills,omitempty"`
}

// QueryText builds a free-text job role description suitable for a recommendation query.
func (r JobRole) QueryText() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.Name, r.Description, r.RequiredSkills} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

type Catalog struct {
	Assessments []Assessment `mapstructure:"assessments" yaml:"assessments"`
	JobRoles    []JobRole    `mapstructure:"job_roles" yaml:"job_roles,omitempty"`
}

func (c *Catalog) Len() int {
	return len(c.Assessments)
}

func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Assessments))
	for _, a := range c.Assessments {
		names = append(names, a.Name)
	}
	return names
}

func (c *Catalog) FindByName(name string) *Assessment {
	for i := range c.Assessments {
		if c.Assessments[i].Name == name {
			return &c.Assessments[i]
		}
	}
	return nil
}

// FindRole looks a job role up by name, ignoring case.
func (c *Catalog) FindRole(name string) *JobRole {
	name = strings.TrimSpace(name)
	for i := range c.JobRoles {
		if strings.EqualFold(c.JobRoles[i].Name, name) {
			return &c.JobRoles[i]
		}
	}
	return nil
}

// ReportByCategory groups assessment names by category, keeping catalog order inside a group.
func (c *Catalog) ReportByCategory() map[string][]string {
	report := make(map[string][]string)
	for _, a := range c.Assessments {
		key := strings.TrimSpace(a.Category)
		if key == "" {
			key = uncategorized
		}
		report[key] = append(report[key], a.Name)
	}
	return report
}

// Categories returns the sorted list of distinct categories.
func (c *Catalog) Categories() []string {
	report := c.ReportByCategory()
	out := make([]string, 0, len(report))
	for k := range report {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Validate checks that every assessment has a unique, non-empty name and assigns
// positional IDs to records that came without one.
func (c *Catalog) Validate() error {
	seen := make(map[string]int, len(c.Assessments))
	for i := range c.Assessments {
		a := &c.Assessments[i]
		a.Name = strings.TrimSpace(a.Name)
		if a.Name == "" {
			return fmt.Errorf("assessment #%d: %w", i+1, ErrEmptyName)
		}
		if prev, ok := seen[a.Name]; ok {
			return fmt.Errorf("%w: %q (#%d and #%d)", ErrDuplicateName, a.Name, prev+1, i+1)
		}
		seen[a.Name] = i
		if a.ID == 0 {
			a.ID = i + 1
		}
	}
	return nil
}
