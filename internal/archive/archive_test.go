package archive

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/chat-digest-bot/internal/core/crypto"
	"github.com/lueurxax/chat-digest-bot/internal/core/domain"
	apperrors "github.com/lueurxax/chat-digest-bot/internal/core/errors"
	"github.com/lueurxax/chat-digest-bot/internal/core/ports/mocks"
)

const (
	testKey    = "cw_0x689RpI-jtRR7oE8h_eQsKImvJapLeSbXpwF4e4="
	testChatID = int64(-100500)
)

var (
	testAuthor = domain.User{ID: 7, FirstName: "Ann", Username: "ann"}
	testChat   = domain.Chat{ID: testChatID, Title: "Team"}
)

type fixture struct {
	store    *Store
	repo     *mocks.MessageRepository
	registry *mocks.ScheduleRegistry
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cipher, err := crypto.New(testKey)
	require.NoError(t, err)

	logger := zerolog.Nop()
	registry := mocks.NewScheduleRegistry()
	repo := mocks.NewMessageRepository(registry)

	f := &fixture{
		store:    New(repo, cipher, &logger),
		repo:     repo,
		registry: registry,
		clock:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.store.now = func() time.Time { return f.clock }

	return f
}

func (f *fixture) appendAt(t *testing.T, ts time.Time, text string) domain.MessageRef {
	t.Helper()

	f.clock = ts

	ref, err := f.store.Append(context.Background(), testAuthor, testChat, text)
	require.NoError(t, err)

	return ref
}

func TestAppend_RejectsOversizedBeforeStoring(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Append(context.Background(), testAuthor, testChat, strings.Repeat("я", MaxMessageLength+1))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTooLong)
	assert.Zero(t, f.repo.SaveCalls())
}

func TestAppend_AcceptsExactlyTheCap(t *testing.T) {
	f := newFixture(t)

	text := strings.Repeat("я", MaxMessageLength)
	f.appendAt(t, f.clock, text)

	got, err := f.store.QueryRecent(context.Background(), testChatID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{text}, got)
}

func TestAppend_StoresCiphertextAndRegistersChat(t *testing.T) {
	f := newFixture(t)

	ref := f.appendAt(t, f.clock, "hello team")
	assert.Equal(t, testChatID, ref.ChatID)

	msgs, err := f.repo.RecentMessages(context.Background(), testChatID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.NotContains(t, msgs[0].Ciphertext, "hello team")

	chat, ok := f.repo.Chat(testChatID)
	require.True(t, ok)
	assert.Equal(t, "Team", chat.Title)

	user, ok := f.repo.User(testAuthor.ID)
	require.True(t, ok)
	assert.Equal(t, "ann", user.Username)

	sched, err := f.registry.GetSchedule(context.Background(), testChatID)
	require.NoError(t, err)
	assert.Equal(t, domain.FrequencyWeekly, sched.Frequency)
	assert.True(t, sched.NextRun.Equal(f.clock))

	f.appendAt(t, f.clock.Add(time.Minute), "second")
	assert.Len(t, f.registry.All(), 1)
}

func TestQueryWindow_AscendingFromSince(t *testing.T) {
	f := newFixture(t)
	base := f.clock

	f.appendAt(t, base, "old")
	f.appendAt(t, base.Add(2*time.Hour), "b")
	f.appendAt(t, base.Add(time.Hour), "a")
	f.appendAt(t, base.Add(2*time.Hour), "c")

	got, err := f.store.QueryWindow(context.Background(), testChatID, base.Add(time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestQueryWindow_ExcludesUntil(t *testing.T) {
	f := newFixture(t)
	base := f.clock

	f.appendAt(t, base, "in")
	f.appendAt(t, base.Add(time.Hour), "boundary")
	f.appendAt(t, base.Add(2*time.Hour), "after")

	got, err := f.store.QueryWindow(context.Background(), testChatID, base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"in"}, got)
}

func TestQueryRecent_MostRecentFirst(t *testing.T) {
	f := newFixture(t)

	for i, text := range []string{"1", "2", "3", "4"} {
		f.appendAt(t, f.clock.Add(time.Duration(i)*time.Minute), text)
	}

	got, err := f.store.QueryRecent(context.Background(), testChatID, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "3", "2"}, got)

	none, err := f.store.QueryRecent(context.Background(), testChatID, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestQueryWindow_SkipsUndecryptable(t *testing.T) {
	f := newFixture(t)

	f.appendAt(t, f.clock, "kept")
	badID := f.repo.Insert(testChatID, testAuthor.ID, "not-a-token", f.clock.Add(time.Second))
	f.appendAt(t, f.clock.Add(2*time.Second), "also kept")

	got, err := f.store.QueryWindow(context.Background(), testChatID, f.clock.Add(-time.Hour), f.clock.Add(time.Hour))
	assert.Equal(t, []string{"kept", "also kept"}, got)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDecryptFailed)

	var de *DecryptError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, []int64{badID}, de.MessageIDs)
}
