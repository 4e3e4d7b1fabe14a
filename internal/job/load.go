package job

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"gopkg.in/yaml.v3"
)

var htmlTag = regexp.MustCompile(`(?i)</?[a-z][a-z0-9]*(\s[^>]*)?/?>`)

// LoadFile reads postings from a YAML or JSON file. The document is either a
// list of postings or an object with a "jobs" list. Postings without an
// explicit "active" field are treated as active.
func LoadFile(path string) (*Postings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read postings %s: %w", path, err)
	}
	postings, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse postings %s: %w", path, err)
	}
	return postings, nil
}

// Parse decodes postings from YAML or JSON bytes.
func Parse(data []byte) (*Postings, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return &Postings{}, nil
	}

	doc := root.Content[0]
	var items []*yaml.Node
	switch doc.Kind {
	case yaml.SequenceNode:
		items = doc.Content
	case yaml.MappingNode:
		var wrapper struct {
			Jobs yaml.Node `yaml:"jobs"`
		}
		if err := doc.Decode(&wrapper); err != nil {
			return nil, err
		}
		if wrapper.Jobs.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("expected a jobs list")
		}
		items = wrapper.Jobs.Content
	default:
		return nil, fmt.Errorf("expected a list of postings")
	}

	postings := &Postings{Items: make([]*Posting, 0, len(items))}
	for i, node := range items {
		posting := &Posting{Active: true}
		if err := node.Decode(posting); err != nil {
			return nil, fmt.Errorf("posting %d: %w", i, err)
		}
		if err := posting.normalize(); err != nil {
			return nil, fmt.Errorf("posting %d: %w", i, err)
		}
		postings.Items = append(postings.Items, posting)
	}
	return postings, nil
}

// Decode parses a single posting document.
func Decode(data []byte) (*Posting, error) {
	posting := &Posting{Active: true}
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(posting); err != nil {
		return nil, err
	}
	if err := posting.normalize(); err != nil {
		return nil, err
	}
	return posting, nil
}

func (p *Posting) normalize() error {
	for _, field := range []*string{&p.Description, &p.Requirements} {
		text, err := PlainText(*field)
		if err != nil {
			return err
		}
		*field = text
	}
	p.Title = strings.TrimSpace(p.Title)
	p.Location = strings.TrimSpace(p.Location)
	p.EnsureID()
	return nil
}

// PlainText converts HTML job copy to markdown text. Input without tags is
// returned trimmed and otherwise untouched.
func PlainText(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !htmlTag.MatchString(s) {
		return s, nil
	}

	converter := md.NewConverter("", true, nil)
	text, err := converter.ConvertString(s)
	if err != nil {
		return "", fmt.Errorf("convert html description: %w", err)
	}
	return strings.TrimSpace(text), nil
}
