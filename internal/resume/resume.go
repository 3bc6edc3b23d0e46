// Package resume defines the résumé document served over SSH and loads it
// from YAML. A loaded Resume is shared by every session and must be treated
// as read-only after Load returns.
package resume

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gupta-akshay/portfolio-v2-sub000/assets"
)

// Resume is the top-level résumé document.
type Resume struct {
	Basics     Basics          `yaml:"basics"`
	Skills     []SkillCategory `yaml:"skills"`
	Experience []Experience    `yaml:"experience"`
	Education  []Education     `yaml:"education"`
}

// Basics holds the personal information shown in the banner, summary and
// contact cards.
type Basics struct {
	Name      string   `yaml:"name"`
	Title     string   `yaml:"title"`
	Summary   []string `yaml:"summary"` // one entry per paragraph
	Contact   Contact  `yaml:"contact"`
	ResumeURL string   `yaml:"resume_url"`
}

// Contact lists the ways to reach the person.
type Contact struct {
	Email    string    `yaml:"email"`
	Phone    string    `yaml:"phone"`
	Location string    `yaml:"location"`
	Website  string    `yaml:"website"`
	Profiles []Profile `yaml:"profiles"`
}

// Profile is a social link such as GitHub or LinkedIn.
type Profile struct {
	Network string `yaml:"network"`
	URL     string `yaml:"url"`
}

// SkillCategory groups skills under a label, e.g. "Languages".
type SkillCategory struct {
	Label string   `yaml:"label"`
	Items []string `yaml:"items"`
}

// Experience is one job entry.
type Experience struct {
	Title      string   `yaml:"title"`
	Company    string   `yaml:"company"`
	Period     string   `yaml:"period"`
	Location   string   `yaml:"location"`
	Highlights []string `yaml:"highlights"`
}

// Education is one degree entry.
type Education struct {
	Degree   string `yaml:"degree"`
	School   string `yaml:"school"`
	Period   string `yaml:"period"`
	Location string `yaml:"location"`
}

// ErrNameRequired is returned when a document has no basics.name.
var ErrNameRequired = errors.New("resume: basics.name is required")

// Parse decodes a YAML résumé document and validates it.
func Parse(data []byte) (*Resume, error) {
	var r Resume
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing resume: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Load reads the résumé at path. An empty path selects the embedded default
// document.
func Load(path string) (*Resume, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading resume: %w", err)
	}
	return Parse(data)
}

// Default returns the résumé compiled into the binary.
func Default() (*Resume, error) {
	return Parse(assets.DefaultResume)
}

// Validate reports whether the document has the fields every renderer needs.
func (r *Resume) Validate() error {
	if strings.TrimSpace(r.Basics.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

// FirstName returns the first word of the name, lower-cased, for use in the
// shell prompt.
func (r *Resume) FirstName() string {
	fields := strings.Fields(r.Basics.Name)
	if len(fields) == 0 {
		return "guest"
	}
	return strings.ToLower(fields[0])
}
