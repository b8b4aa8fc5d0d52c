package agent

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-admin-api/internal/dto"
)

func strPtr(value string) *string {
	return &value
}

func listingCall(name string, students []dto.StudentResponse) ToolCallRecord {
	return ToolCallRecord{Name: name, Result: successResult(students, "")}
}

func TestReplyGuardRendersListingResult(t *testing.T) {
	students := []dto.StudentResponse{
		{ID: "S1", Name: "Ada", Email: strPtr("ada@campus.edu"), Department: strPtr("CS")},
		{ID: "S2", Name: "Grace"},
	}

	text, err := ReplyGuard{}.Check(IntentListRecords, "Sure! Here they are: Ada and Grace.", []ToolCallRecord{
		listingCall(ToolListStudents, students),
	})
	require.NoError(t, err)
	require.JSONEq(t, `[
		{"Student Id":"S1","Student Name":"Ada","Student Email":"ada@campus.edu","Student Department":"CS"},
		{"Student Id":"S2","Student Name":"Grace","Student Email":null,"Student Department":null}
	]`, text)
}

func TestReplyGuardRendersEmptyListing(t *testing.T) {
	text, err := ReplyGuard{}.Check(IntentListRecords, "There are no students yet.", []ToolCallRecord{
		listingCall(ToolListStudents, []dto.StudentResponse{}),
	})
	require.NoError(t, err)
	require.Equal(t, "[]", text)
}

func TestReplyGuardUsesLastSuccessfulListing(t *testing.T) {
	text, err := ReplyGuard{}.Check(IntentAnalytics, "done", []ToolCallRecord{
		listingCall(ToolListStudents, []dto.StudentResponse{{ID: "S1", Name: "Ada"}}),
		listingCall(ToolLastAddedStudents, []dto.StudentResponse{{ID: "S9", Name: "Linus"}}),
		{Name: ToolListStudents, Result: errorResult("boom")},
	})
	require.NoError(t, err)
	require.Contains(t, text, `"Student Id": "S9"`)
	require.NotContains(t, text, "S1")
}

func TestReplyGuardRejectsFabricatedRecords(t *testing.T) {
	reply := `Here you go: [{"Student Id": "X1", "Student Name": "Ghost", "Student Email": "g@x.io", "Student Department": "Nowhere"}]`
	_, err := ReplyGuard{}.Check(IntentConversation, reply, nil)
	require.ErrorIs(t, err, ErrUngroundedReply)

	getCall := ToolCallRecord{Name: "get_student", Result: successResult(dto.StudentResponse{ID: "S1", Name: "Ada"}, "")}
	altered := `[{"Student Id": "S1", "Student Name": "Ada Lovelace"}]`
	_, err = ReplyGuard{}.Check(IntentRecordMutation, altered, []ToolCallRecord{getCall})
	require.ErrorIs(t, err, ErrUngroundedReply)
}

func TestReplyGuardNormalisesTracedRecords(t *testing.T) {
	getCall := ToolCallRecord{Name: "get_student", Result: successResult(dto.StudentResponse{ID: "S1", Name: "Ada", Department: strPtr("CS")}, "")}
	reply := `Found it: [{"student id": "S1", "Student Name": "Ada", "Student Email": "None"}] as requested.`

	text, err := ReplyGuard{}.Check(IntentRecordMutation, reply, []ToolCallRecord{getCall})
	require.NoError(t, err)
	require.Contains(t, text, "Found it: [")
	require.Contains(t, text, `"Student Department": "CS"`)
	require.Contains(t, text, "] as requested.")
}

func TestReplyGuardRejectsFabricatedRecordsUnderAnyKeys(t *testing.T) {
	replies := []string{
		`[{"id":"S99","name":"Ghost","email":"g@x.com","department":"CS"}]`,
		`[{"ID":"S99","Name":"Ghost"}]`,
		`Here is the student: {"student_id": "S99", "full_name": "Ghost"}`,
		`{"students": [{"Student-Id": "S99", "name": "Ghost"}]}`,
	}
	for _, reply := range replies {
		_, err := ReplyGuard{}.Check(IntentConversation, reply, nil)
		require.ErrorIs(t, err, ErrUngroundedReply, reply)
	}
}

func TestReplyGuardTracesRecordsUnderAnyKeys(t *testing.T) {
	getCall := ToolCallRecord{Name: ToolGetStudent, Result: successResult(dto.StudentResponse{ID: "S1", Name: "Ada", Department: strPtr("CS")}, "")}

	text, err := ReplyGuard{}.Check(IntentRecordMutation, `Updated: {"id": "S1", "name": "Ada"}`, []ToolCallRecord{getCall})
	require.NoError(t, err)
	require.Contains(t, text, "Updated: {")
	require.Contains(t, text, `"Student Department": "CS"`)

	_, err = ReplyGuard{}.Check(IntentRecordMutation, `[{"student_id": "S1", "name": "Ada", "department": "Math"}]`, []ToolCallRecord{getCall})
	require.ErrorIs(t, err, ErrUngroundedReply)

	nested := `{"students": [{"id": "S1", "name": "Ada"}], "count": 1}`
	text, err = ReplyGuard{}.Check(IntentRecordMutation, nested, []ToolCallRecord{getCall})
	require.NoError(t, err)
	require.Equal(t, nested, text)
}

func TestReplyGuardPassesNonRecordJSON(t *testing.T) {
	reply := `Counts: [{"department": "CS", "count": 2}] and {"total_students": 3}; log {"student_id": "S1", "action": "login"}`
	text, err := ReplyGuard{}.Check(IntentConversation, reply, nil)
	require.NoError(t, err)
	require.Equal(t, reply, text)
}

func TestReplyGuardRendersSingleRecordLookup(t *testing.T) {
	getCall := ToolCallRecord{Name: ToolGetStudent, Result: successResult(dto.StudentResponse{ID: "S1", Name: "Ana", Department: strPtr("CS")}, "")}

	text, err := ReplyGuard{}.Check(IntentListRecords, "Student S1 is Ana, studying CS.", []ToolCallRecord{getCall})
	require.NoError(t, err)
	require.JSONEq(t, `[{"Student Id":"S1","Student Name":"Ana","Student Email":null,"Student Department":"CS"}]`, text)

	text, err = ReplyGuard{}.Check(IntentRecordMutation, "Ana is in CS.", []ToolCallRecord{getCall})
	require.NoError(t, err)
	require.Equal(t, "Ana is in CS.", text)
}

func TestReplyGuardPassesPlainText(t *testing.T) {
	reply := "Student ids look like [S1] in the register; totals are [1, 2]."
	text, err := ReplyGuard{}.Check(IntentConversation, reply, nil)
	require.NoError(t, err)
	require.Equal(t, reply, text)
}

func TestReplyGuardRequiresToolForDataIntents(t *testing.T) {
	for _, intent := range []Intent{IntentListRecords, IntentAnalytics, IntentFAQ} {
		_, err := ReplyGuard{}.Check(intent, "There are 12 students.", nil)
		require.ErrorIs(t, err, ErrPolicyViolation, intent)
	}

	_, err := ReplyGuard{}.Check(IntentConversation, "Hello!", nil)
	require.NoError(t, err)
}
