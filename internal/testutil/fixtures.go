// Package testutil provides test helper utilities shared across packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gupta-akshay/portfolio-v2-sub000/internal/resume"
)

// TempFiles writes files (relative path -> content) under a fresh t.TempDir
// and returns the directory. Parent directories are created as needed.
func TempFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for relPath, content := range files {
		absPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			t.Fatalf("creating directory for %s: %v", relPath, err)
		}
		if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", relPath, err)
		}
	}

	return dir
}

// SampleResume returns a small résumé with every section populated.
func SampleResume() *resume.Resume {
	return &resume.Resume{
		Basics: resume.Basics{
			Name:  "Ada Lovelace",
			Title: "Analytical Engine Programmer",
			Summary: []string{
				"Writes programs for machines that do not exist yet and notes on the ones that do.",
				"Enjoys poetry, mathematics and long letters to Charles.",
			},
			Contact: resume.Contact{
				Email:    "ada@example.com",
				Phone:    "+44 20 7946 0000",
				Location: "London",
				Website:  "https://ada.example.com",
				Profiles: []resume.Profile{
					{Network: "GitHub", URL: "https://github.com/ada"},
				},
			},
			ResumeURL: "https://ada.example.com/resume.pdf",
		},
		Skills: []resume.SkillCategory{
			{Label: "Languages", Items: []string{"Note G", "Bernoulli"}},
			{Label: "Machines", Items: []string{"Difference Engine", "Analytical Engine"}},
		},
		Experience: []resume.Experience{
			{
				Title:    "Translator",
				Company:  "Taylor's Scientific Memoirs",
				Period:   "1842 - 1843",
				Location: "London",
				Highlights: []string{
					"Translated Menabrea's article and tripled its length with notes.",
					"Published the first algorithm intended for a machine.",
				},
			},
			{
				Title:      "Correspondent",
				Company:    "Babbage & Co",
				Period:     "1833 - 1852",
				Location:   "London",
				Highlights: []string{"Kept the engine's design honest."},
			},
		},
		Education: []resume.Education{
			{Degree: "Private tutoring, Mathematics", School: "Augustus De Morgan", Period: "1840 - 1842", Location: "London"},
		},
	}
}

// SampleResumeYAML is SampleResume written as a YAML document. Loader tests
// decode it and compare the result with SampleResume.
const SampleResumeYAML = `basics:
  name: Ada Lovelace
  title: Analytical Engine Programmer
  summary:
    - Writes programs for machines that do not exist yet and notes on the ones that do.
    - Enjoys poetry, mathematics and long letters to Charles.
  contact:
    email: ada@example.com
    phone: "+44 20 7946 0000"
    location: London
    website: https://ada.example.com
    profiles:
      - network: GitHub
        url: https://github.com/ada
  resume_url: https://ada.example.com/resume.pdf
skills:
  - label: Languages
    items: [Note G, Bernoulli]
  - label: Machines
    items: [Difference Engine, Analytical Engine]
experience:
  - title: Translator
    company: Taylor's Scientific Memoirs
    period: 1842 - 1843
    location: London
    highlights:
      - Translated Menabrea's article and tripled its length with notes.
      - Published the first algorithm intended for a machine.
  - title: Correspondent
    company: Babbage & Co
    period: 1833 - 1852
    location: London
    highlights:
      - Kept the engine's design honest.
education:
  - degree: Private tutoring, Mathematics
    school: Augustus De Morgan
    period: 1840 - 1842
    location: London
`
