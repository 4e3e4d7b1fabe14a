// Package job holds job postings and loads them from fixture files.
package job

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/google/uuid"
)

// postingNamespace seeds name-based IDs for postings loaded without one.
var postingNamespace = uuid.MustParse("6f1c2a0e-3b8e-4f57-9d0a-5a1c8e0b7d21")

// Posting is a job as the matching engine sees it. Every text field may be empty.
type Posting struct {
	ID             string `json:"id" yaml:"id"`
	Title          string `json:"title" yaml:"title"`
	Company        string `json:"company,omitempty" yaml:"company"`
	Description    string `json:"description,omitempty" yaml:"description"`
	Requirements   string `json:"requirements,omitempty" yaml:"requirements"`
	Location       string `json:"location,omitempty" yaml:"location"`
	EmploymentType string `json:"employment_type,omitempty" yaml:"employment_type"`
	Active         bool   `json:"active" yaml:"active"`
}

// EnsureID assigns a deterministic ID derived from the posting content when none is set.
func (p *Posting) EnsureID() {
	if strings.TrimSpace(p.ID) != "" {
		return
	}
	p.ID = uuid.NewSHA1(postingNamespace, []byte(p.Title+"\x00"+p.Company+"\x00"+p.Description)).String()
}

// Postings is an ordered collection of postings.
type Postings struct {
	Items []*Posting
}

func (p *Postings) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

func (p *Postings) FindByID(id string) *Posting {
	for _, posting := range p.Items {
		if posting.ID == id {
			return posting
		}
	}
	return nil
}

// DumpToTmpFile writes v as indented JSON to a new temporary file and returns its name.
func DumpToTmpFile(pattern string, v any) (string, error) {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return file.Name(), nil
}
