package agent

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/flosch/pongo2/v6"
)

// ErrBlockedMessage indicates the message tripped the guardrail and was not sent to the model.
var ErrBlockedMessage = errors.New("message blocked by guardrail")

// Intent is the deterministic classification of an operator message.
type Intent string

const (
	IntentListRecords    Intent = "list_records"
	IntentAnalytics      Intent = "analytics"
	IntentFAQ            Intent = "faq"
	IntentRecordMutation Intent = "record_mutation"
	IntentConversation   Intent = "conversation"
)

// RequiresTool reports whether the answer must come from a tool.
func (i Intent) RequiresTool() bool {
	switch i {
	case IntentListRecords, IntentAnalytics, IntentFAQ:
		return true
	default:
		return false
	}
}

// Record labels used for every rendered student listing.
const (
	LabelID         = "Student Id"
	LabelName       = "Student Name"
	LabelEmail      = "Student Email"
	LabelDepartment = "Student Department"
)

// RecordLabels lists the labels in rendering order.
var RecordLabels = []string{LabelID, LabelName, LabelEmail, LabelDepartment}

var blockedTerms = []string{"hack", "exploit", "attack"}

const preambleSource = `{% autoescape off %}You are the Campus Admin AI Agent. You help a campus administrator manage student records, read roster analytics, notify students and answer questions about the institute.

Rules:
1. When asked to list or show student records, call {{ listing|join:" or " }}. Reply with only a JSON array in which every element has exactly the keys {% for label in labels %}"{{ label }}"{% if not forloop.Last %}, {% endif %}{% endfor %}. If no students are found reply with [] and nothing else.
2. For statistics call the matching analytics tool: {{ analytics|join:", " }}.
3. For questions about the institute or about using this system call {{ knowledge|join:" or " }} and answer in plain English.
4. Changes to records and notifications use {{ mutation|join:", " }}.
5. Other conversation may be answered directly in plain English.
6. Never invent student data. Only report records returned by a tool during this conversation.{% endautoescape %}`

// Policy renders the fixed instruction preamble and classifies messages.
type Policy struct {
	preamble string
}

// NewPolicy renders the preamble for the registry's tools.
func NewPolicy(registry *Registry) (*Policy, error) {
	tpl, err := pongo2.FromString(preambleSource)
	if err != nil {
		return nil, fmt.Errorf("parse preamble: %w", err)
	}

	groups := map[Intent][]string{}
	for _, name := range registry.Names() {
		tool, _ := registry.Lookup(name)
		groups[tool.Class] = append(groups[tool.Class], name)
	}

	preamble, err := tpl.Execute(pongo2.Context{
		"listing":   groups[IntentListRecords],
		"analytics": groups[IntentAnalytics],
		"knowledge": groups[IntentFAQ],
		"mutation":  groups[IntentRecordMutation],
		"labels":    RecordLabels,
	})
	if err != nil {
		return nil, fmt.Errorf("render preamble: %w", err)
	}

	return &Policy{preamble: preamble}, nil
}

// Preamble returns the rendered system instructions.
func (p *Policy) Preamble() string {
	return p.preamble
}

// Blocked reports whether the message contains a blocked term.
func Blocked(message string) bool {
	lower := strings.ToLower(message)
	for _, term := range blockedTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

var (
	faqPhrases      = []string{"how to", "how do i", "how can i", "faq", "guide"}
	mutationWords   = []string{"add", "create", "register", "enrol", "enroll", "update", "change", "edit", "rename", "delete", "remove", "notify", "send email", "send an email", "email student", "record activity", "log activity", "mark active"}
	analyticsWords  = []string{"how many", "total", "count", "by department", "per department", "department wise", "distribution", "recent", "recently", "last added", "latest", "newest", "active", "analytics", "statistics", "stats"}
	listingWords    = []string{"list", "show", "display", "get", "fetch", "find", "who", "all", "view"}
	recordWords     = []string{"student", "students", "record", "records", "roster"}
	questionWords   = []string{"what", "when", "where", "which", "who", "why", "how", "is", "are", "can", "could", "do", "does", "tell me"}
	institutePhrase = []string{"institute", "campus", "admission", "admissions", "fee", "fees", "library", "course", "courses", "hostel", "scholarship", "exam", "exams", "timetable", "policy"}
)

// ClassifyIntent applies keyword rules in a fixed order. The first matching rule wins.
func ClassifyIntent(message string) Intent {
	text := " " + strings.Join(strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ") + " "

	switch {
	case containsAny(text, faqPhrases):
		return IntentFAQ
	case containsAny(text, mutationWords):
		return IntentRecordMutation
	case containsAny(text, analyticsWords):
		return IntentAnalytics
	case containsAny(text, listingWords) && containsAny(text, recordWords):
		return IntentListRecords
	case containsAny(text, institutePhrase) && isQuestion(message, text):
		return IntentFAQ
	default:
		return IntentConversation
	}
}

// isQuestion reports whether the message asks something, so institute words in
// small talk ("of course, thanks") stay conversational.
func isQuestion(message, text string) bool {
	if strings.HasSuffix(strings.TrimSpace(message), "?") {
		return true
	}
	for _, word := range questionWords {
		if strings.HasPrefix(text, " "+word+" ") {
			return true
		}
	}
	return false
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, " "+phrase+" ") {
			return true
		}
	}
	return false
}
