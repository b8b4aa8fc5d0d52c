package knowledge

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNoMatch indicates no FAQ entry matched the question.
	ErrNoMatch = errors.New("no matching faq entry")
	// ErrEmptyQuestion indicates the question was empty or whitespace.
	ErrEmptyQuestion = errors.New("question must not be empty")
)

// FAQEntry is one keyed answer. Entries are matched in table order.
type FAQEntry struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

// FAQ is an ordered keyword lookup table.
type FAQ struct {
	entries []FAQEntry
	keys    []string
}

// DefaultFAQEntries returns the built-in operator guide.
func DefaultFAQEntries() []FAQEntry {
	return []FAQEntry{
		{Question: "how to add student", Answer: "Use the `add_student` tool with student id, name, department, and email."},
		{Question: "how to delete student", Answer: "Use the `delete_student` tool with the student's id."},
		{Question: "how to update student", Answer: "Use the `update_student` tool with the student's id and the new name, department, or email."},
		{Question: "how to list students", Answer: "Use the `list_students` tool to fetch a list of all students."},
		{Question: "how to get total students", Answer: "Use the `get_total_students` tool to see how many students exist."},
		{Question: "how to get students by department", Answer: "Use the `get_students_by_department` tool to analyze department-wise distribution."},
		{Question: "how to send email", Answer: "Use the `send_email` tool with student_id and message to notify a student."},
	}
}

// NewFAQ builds a lookup table. Entries with an empty key or answer are rejected.
func NewFAQ(entries []FAQEntry) (*FAQ, error) {
	faq := &FAQ{
		entries: make([]FAQEntry, 0, len(entries)),
		keys:    make([]string, 0, len(entries)),
	}
	for i, entry := range entries {
		key := Normalise(entry.Question)
		if key == "" || strings.TrimSpace(entry.Answer) == "" {
			return nil, fmt.Errorf("faq entry %d: question and answer are required", i)
		}
		faq.entries = append(faq.entries, entry)
		faq.keys = append(faq.keys, key)
	}
	return faq, nil
}

// LoadFAQ reads a YAML list of {question, answer} entries. An empty path yields the default table.
func LoadFAQ(path string) (*FAQ, error) {
	if strings.TrimSpace(path) == "" {
		return NewFAQ(DefaultFAQEntries())
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read faq file: %w", err)
	}

	var entries []FAQEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse faq file: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("faq file %s has no entries", path)
	}

	return NewFAQ(entries)
}

// Entries returns a copy of the table in match order.
func (f *FAQ) Entries() []FAQEntry {
	out := make([]FAQEntry, len(f.entries))
	copy(out, f.entries)
	return out
}

// Lookup returns the first entry, in table order, whose key is contained in the question.
func (f *FAQ) Lookup(question string) (FAQEntry, error) {
	normalised := Normalise(question)
	if normalised == "" {
		return FAQEntry{}, ErrEmptyQuestion
	}

	for i, key := range f.keys {
		if strings.Contains(normalised, key) {
			return f.entries[i], nil
		}
	}

	return FAQEntry{}, ErrNoMatch
}

// Normalise lowercases, collapses whitespace and strips trailing punctuation.
func Normalise(text string) string {
	collapsed := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	return strings.TrimSpace(strings.TrimRight(collapsed, "?!."))
}
