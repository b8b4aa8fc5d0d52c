package agent

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
)

var (
	// ErrUngroundedReply indicates the reply contains student records no tool returned.
	ErrUngroundedReply = errors.New("reply contains student records not returned by any tool")
	// ErrPolicyViolation indicates the model answered without calling a required tool.
	ErrPolicyViolation = errors.New("reply did not use a required tool")
)

// StudentRecord is the canonical rendering of one student in a reply.
type StudentRecord struct {
	ID         string  `json:"Student Id"`
	Name       string  `json:"Student Name"`
	Email      *string `json:"Student Email"`
	Department *string `json:"Student Department"`
}

// ToolCallRecord is one tool invocation made during a turn.
type ToolCallRecord struct {
	Name      string
	Arguments json.RawMessage
	Result    Result
}

var listingTools = map[string]struct{}{
	ToolListStudents:      {},
	ToolLastAddedStudents: {},
}

// renderedTool reports whether the result of call replaces the reply. Single-record
// lookups only do so when the user asked to see records.
func renderedTool(intent Intent, call ToolCallRecord) bool {
	if !call.Result.OK() {
		return false
	}
	if _, ok := listingTools[call.Name]; ok {
		return true
	}
	return call.Name == ToolGetStudent && intent == IntentListRecords
}

// ReplyGuard checks the model's final message against the tool results of the same turn.
type ReplyGuard struct{}

// Check returns the reply to send, or an error when the turn must fail.
func (ReplyGuard) Check(intent Intent, reply string, calls []ToolCallRecord) (string, error) {
	if intent.RequiresTool() && len(calls) == 0 {
		return "", ErrPolicyViolation
	}

	for i := len(calls) - 1; i >= 0; i-- {
		if renderedTool(intent, calls[i]) {
			return RenderRecords(recordsFromResult(calls[i].Result)), nil
		}
	}

	known := make(map[string]StudentRecord)
	for _, call := range calls {
		if !call.Result.OK() {
			continue
		}
		for _, record := range recordsFromResult(call.Result) {
			known[record.ID] = record
		}
	}

	return normaliseReply(reply, known)
}

// RenderRecords renders records as an indented JSON array, [] when empty.
func RenderRecords(records []StudentRecord) string {
	if records == nil {
		records = []StudentRecord{}
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(raw)
}

// recordsFromResult extracts every student-shaped object from a tool result's data.
func recordsFromResult(result Result) []StudentRecord {
	raw, err := json.Marshal(result.Data)
	if err != nil {
		return nil
	}

	data := gjson.ParseBytes(raw)
	records := make([]StudentRecord, 0)
	collect := func(value gjson.Result) {
		if record, ok := studentFromData(value); ok {
			records = append(records, record)
		}
	}

	if data.IsArray() {
		data.ForEach(func(_, value gjson.Result) bool {
			collect(value)
			return true
		})
	} else {
		collect(data)
	}
	return records
}

func studentFromData(value gjson.Result) (StudentRecord, bool) {
	if !value.IsObject() {
		return StudentRecord{}, false
	}
	id, name := value.Get("id"), value.Get("name")
	if id.Type != gjson.String || name.Type != gjson.String {
		return StudentRecord{}, false
	}
	return StudentRecord{
		ID:         id.String(),
		Name:       name.String(),
		Email:      optionalString(value.Get("email")),
		Department: optionalString(value.Get("department")),
	}, true
}

func optionalString(value gjson.Result) *string {
	if value.Type != gjson.String {
		return nil
	}
	s := value.String()
	return &s
}

// Canonical record fields. Reply keys such as "Student Id", "student_id", "ID" or "id"
// all map to fieldID.
const (
	fieldID         = "id"
	fieldName       = "name"
	fieldEmail      = "email"
	fieldDepartment = "department"
)

func recordField(key string) string {
	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '.':
			return -1
		}
		return unicode.ToLower(r)
	}, key)
	switch strings.TrimPrefix(compact, "student") {
	case "id":
		return fieldID
	case "name", "fullname":
		return fieldName
	case "email", "emailaddress", "mail":
		return fieldEmail
	case "department", "dept":
		return fieldDepartment
	}
	return ""
}

func recordFields(item gjson.Result) map[string]gjson.Result {
	fields := make(map[string]gjson.Result)
	for key, value := range item.Map() {
		if field := recordField(key); field != "" {
			fields[field] = value
		}
	}
	return fields
}

// isRecord reports whether item reads as a student: it carries an id and a name
// under any spelling, or uses one of the display labels.
func isRecord(item gjson.Result) bool {
	if !item.IsObject() {
		return false
	}
	fields := recordFields(item)
	_, hasID := fields[fieldID]
	_, hasName := fields[fieldName]
	if hasID && hasName {
		return true
	}
	for key := range item.Map() {
		for _, label := range RecordLabels {
			if strings.EqualFold(strings.TrimSpace(key), label) {
				return true
			}
		}
	}
	return false
}

// normaliseReply traces every student-shaped JSON value in the reply to known records.
// Arrays and objects of records are rewritten in the canonical rendering; other JSON
// passes through unchanged once any records nested inside it are traced.
func normaliseReply(reply string, known map[string]StudentRecord) (string, error) {
	var out strings.Builder
	rest := reply
	for {
		start, end, ok := nextJSON(rest)
		if !ok {
			out.WriteString(rest)
			return out.String(), nil
		}

		candidate := rest[start:end]
		out.WriteString(rest[:start])

		rendered, err := normaliseValue(gjson.Parse(candidate), candidate, known)
		if err != nil {
			return "", err
		}
		out.WriteString(rendered)
		rest = rest[end:]
	}
}

func normaliseValue(value gjson.Result, raw string, known map[string]StudentRecord) (string, error) {
	switch {
	case value.IsArray() && containsRecord(value.Array()):
		traced, err := traceRecords(value.Array(), known)
		if err != nil {
			return "", err
		}
		return RenderRecords(traced), nil
	case isRecord(value):
		traced, err := traceRecords([]gjson.Result{value}, known)
		if err != nil {
			return "", err
		}
		rendered, err := json.MarshalIndent(traced[0], "", "  ")
		if err != nil {
			return "", err
		}
		return string(rendered), nil
	default:
		if err := traceNested(value, known); err != nil {
			return "", err
		}
		return raw, nil
	}
}

func containsRecord(items []gjson.Result) bool {
	for _, item := range items {
		if isRecord(item) {
			return true
		}
	}
	return false
}

// traceNested checks records buried inside other JSON, such as {"students": [...]}.
func traceNested(value gjson.Result, known map[string]StudentRecord) error {
	if isRecord(value) {
		_, err := traceRecords([]gjson.Result{value}, known)
		return err
	}
	var err error
	if value.IsArray() || value.IsObject() {
		value.ForEach(func(_, child gjson.Result) bool {
			err = traceNested(child, known)
			return err == nil
		})
	}
	return err
}

// nextJSON finds the next balanced JSON array or object in text.
func nextJSON(text string) (int, int, bool) {
	for offset := 0; offset < len(text); {
		i := strings.IndexAny(text[offset:], "[{")
		if i < 0 {
			break
		}
		start := offset + i
		if end, ok := closingBracket(text, start); ok && gjson.Valid(text[start:end]) {
			return start, end, true
		}
		offset = start + 1
	}
	return 0, 0, false
}

func closingBracket(text string, start int) (int, bool) {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '[' || c == '{':
			depth++
		case c == ']' || c == '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

func traceRecords(items []gjson.Result, known map[string]StudentRecord) ([]StudentRecord, error) {
	traced := make([]StudentRecord, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			return nil, ErrUngroundedReply
		}
		fields := recordFields(item)

		id, ok := fields[fieldID]
		if !ok {
			return nil, ErrUngroundedReply
		}
		record, ok := known[strings.TrimSpace(id.String())]
		if !ok {
			return nil, ErrUngroundedReply
		}

		if name, ok := fields[fieldName]; ok && strings.TrimSpace(name.String()) != record.Name {
			return nil, ErrUngroundedReply
		}
		if email, ok := fields[fieldEmail]; ok && !sameOptional(email, record.Email) {
			return nil, ErrUngroundedReply
		}
		if department, ok := fields[fieldDepartment]; ok && !sameOptional(department, record.Department) {
			return nil, ErrUngroundedReply
		}
		traced = append(traced, record)
	}
	return traced, nil
}

// sameOptional treats null, "" and common null spellings as an absent value.
func sameOptional(value gjson.Result, want *string) bool {
	got := strings.TrimSpace(value.String())
	if value.Type == gjson.Null || got == "" || strings.EqualFold(got, "none") || strings.EqualFold(got, "null") || got == "N/A" {
		return want == nil || *want == ""
	}
	return want != nil && got == *want
}
