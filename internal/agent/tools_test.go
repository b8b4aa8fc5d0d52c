package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func invoke(t *testing.T, h harness, name, args string) Result {
	t.Helper()
	return h.registry.Invoke(context.Background(), name, json.RawMessage(args))
}

func dataJSON(t *testing.T, result Result) string {
	t.Helper()
	raw, err := json.Marshal(result.Data)
	require.NoError(t, err)
	return string(raw)
}

func TestCampusToolsCoverEveryOperation(t *testing.T) {
	h := newHarness(t)

	require.ElementsMatch(t, []string{
		"add_student", "get_student", "update_student", "delete_student", "list_students",
		"get_total_students", "get_students_by_department", "get_last_added_students",
		"get_active_students", "record_activity", "send_email", "faq_lookup", "faq_rag",
	}, h.registry.Names())
}

func TestCampusToolsStudentLifecycle(t *testing.T) {
	h := newHarness(t)

	require.JSONEq(t, `[]`, dataJSON(t, invoke(t, h, "list_students", `{}`)))

	added := invoke(t, h, "add_student", `{"id":"S1","name":"Ana","department":"CS"}`)
	require.True(t, added.OK(), added.Message)
	require.Equal(t, "Student S1 added", added.Message)

	duplicate := invoke(t, h, "add_student", `{"id":"S1","name":"Ana"}`)
	require.False(t, duplicate.OK())

	require.JSONEq(t, `{"total_students":1}`, dataJSON(t, invoke(t, h, "get_total_students", `{}`)))

	updated := invoke(t, h, "update_student", `{"id":"S1","department":"Math"}`)
	require.True(t, updated.OK(), updated.Message)

	deleted := invoke(t, h, "delete_student", `{"id":"S1"}`)
	require.True(t, deleted.OK(), deleted.Message)

	missing := invoke(t, h, "get_student", `{"id":"S1"}`)
	require.False(t, missing.OK())
	require.Contains(t, missing.Message, "student not found")
}

func TestCampusToolsSendEmailRequiresAddress(t *testing.T) {
	h := newHarness(t)
	require.True(t, invoke(t, h, "add_student", `{"id":"S1","name":"Ana"}`).OK())

	result := invoke(t, h, "send_email", `{"student_id":"S1","message":"Exam moved"}`)
	require.False(t, result.OK())
	require.Contains(t, result.Message, "no email")

	require.True(t, invoke(t, h, "update_student", `{"id":"S1","email":"ana@campus.edu"}`).OK())
	result = invoke(t, h, "send_email", `{"student_id":"S1","message":"Exam moved"}`)
	require.True(t, result.OK(), result.Message)
	require.Equal(t, "Email sent to ana@campus.edu", result.Message)
}

func TestCampusToolsFAQLookupMissIsNotAnError(t *testing.T) {
	h := newHarness(t)

	result := invoke(t, h, "faq_lookup", `{"question":"what is the meaning of life"}`)
	require.True(t, result.OK())
	require.Equal(t, "No matching FAQ entry.", result.Message)
	require.Nil(t, result.Data)
}
