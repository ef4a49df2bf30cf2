package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Criterion is one evaluation item of a question set: a stable key, a
// display title, and the question posed against the indexed documents.
type Criterion struct {
	Key      string `yaml:"key"`
	Title    string `yaml:"title"`
	Question string `yaml:"question"`
}

type QuestionSet struct {
	Criteria []Criterion `yaml:"criteria"`
}

func LoadQuestionSet(path string) (*QuestionSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question set %q: %w", path, err)
	}
	var qs QuestionSet
	if err := yaml.Unmarshal(raw, &qs); err != nil {
		return nil, fmt.Errorf("parse question set %q: %w", path, err)
	}
	if len(qs.Criteria) == 0 {
		return nil, fmt.Errorf("question set %q has no criteria", path)
	}
	for i, c := range qs.Criteria {
		if c.Key == "" || c.Question == "" {
			return nil, fmt.Errorf("question set %q: criterion %d missing key or question", path, i)
		}
	}
	return &qs, nil
}
