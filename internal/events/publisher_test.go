package events

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestMemoryPublisherRecordsInOrder(t *testing.T) {
	pub := NewMemoryPublisher()
	ctx := context.Background()

	require.NoError(t, pub.Publish(ctx, StudentCreated, map[string]string{"id": "S1"}))
	require.NoError(t, pub.Publish(ctx, StudentDeleted, map[string]string{"id": "S1"}))

	require.Equal(t, []string{StudentCreated, StudentDeleted}, pub.Types())
	events := pub.Events()
	require.Len(t, events, 2)
	require.NotEmpty(t, events[0].ID)
	require.NotEqual(t, events[0].ID, events[1].ID)
	require.False(t, events[0].OccurredAt.IsZero())
}

func TestNATSPublisherSubjectNormalisesPrefix(t *testing.T) {
	pub := NewNATSPublisher(nil, "campus:admin", zerolog.Nop())
	require.Equal(t, "campus.admin.students.created", pub.Subject(StudentCreated))

	fallback := NewNATSPublisher(nil, "", zerolog.Nop())
	require.Equal(t, "campus.notifications.sent", fallback.Subject(NotificationSent))
}

func TestNATSPublisherHonoursCancelledContext(t *testing.T) {
	pub := NewNATSPublisher(nil, "campus", zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, pub.Publish(ctx, StudentCreated, nil), context.Canceled)
}

func TestNopPublisher(t *testing.T) {
	require.NoError(t, NopPublisher{}.Publish(context.Background(), StudentUpdated, nil))
}
