package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInboxKeepsNewestFirst(t *testing.T) {
	in := NewInbox(2)
	for i := 1; i <= 3; i++ {
		require.NoError(t, in.Notify(context.Background(), Notification{Title: fmt.Sprintf("n%d", i)}))
	}

	recent := in.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "n3", recent[0].Title)
	assert.Equal(t, "n2", recent[1].Title)
}

func TestInboxDefaultSize(t *testing.T) {
	in := NewInbox(0)
	for i := 0; i < defaultInboxSize+5; i++ {
		_ = in.Notify(context.Background(), Notification{})
	}
	assert.Len(t, in.Recent(), defaultInboxSize)
}

func TestMultiNotifierJoinsErrors(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	in := NewInbox(5)

	m := MultiNotifier{
		NotifierFunc(func(context.Context, Notification) error { return first }),
		nil,
		in,
		NotifierFunc(func(context.Context, Notification) error { return second }),
	}
	err := m.Notify(context.Background(), Notification{Title: "x"})

	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.Len(t, in.Recent(), 1, "a failing notifier does not stop the others")
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, LogNotifier{}.Notify(context.Background(), Notification{Title: "t"}))
}
