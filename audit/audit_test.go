package audit

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linolazarous/cursorcode-ai/core"
)

func TestActionNames(t *testing.T) {
	assert.Equal(t, "agent_architect_executed", AgentExecuted(core.AgentArchitect))
	assert.Equal(t, "agent_qa_failed", AgentFailed(core.AgentQA))
	assert.Equal(t, "tool_used:execute_code_snippet", ToolUsed("execute_code_snippet"))
}

func TestNewEvent(t *testing.T) {
	ev := NewEvent("u1", ActionModelRouted, map[string]any{"agent_type": "qa"})
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, time.UTC, ev.Timestamp.Location())
	assert.Equal(t, "qa", ev.Metadata["agent_type"])
}

func TestMemoryRecorderRecent(t *testing.T) {
	m := NewMemoryRecorder()
	m.Emit(NewEvent("u", "a", nil))
	m.Emit(NewEvent("u", "b", nil))
	m.Emit(NewEvent("u", "c", nil))

	recent, err := m.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].Action)
	assert.Equal(t, "b", recent[1].Action)
	assert.Len(t, m.ByAction("a"), 1)
}

type flakyStore struct {
	failures atomic.Int32
	inner    *MemoryRecorder
}

func (f *flakyStore) Save(ctx context.Context, ev Event) error {
	if f.failures.Add(-1) >= 0 {
		return errors.New("queue unavailable")
	}
	return f.inner.Save(ctx, ev)
}

func TestAsyncSinkRetriesAndDrains(t *testing.T) {
	store := &flakyStore{inner: NewMemoryRecorder()}
	store.failures.Store(2)

	sink := NewAsyncSink(store, func(o *AsyncOptions) {
		o.MaxRetries = 3
		o.RetryDelay = time.Millisecond
	})
	sink.Emit(NewEvent("u1", ActionModelRouted, nil))
	require.NoError(t, sink.Close(context.Background()))

	assert.Len(t, store.inner.Events(), 1)
}

func TestAsyncSinkWithStoreFunc(t *testing.T) {
	var got []string
	var mu sync.Mutex
	sink := NewAsyncSink(StoreFunc(func(_ context.Context, ev Event) error {
		mu.Lock()
		got = append(got, ev.Action)
		mu.Unlock()
		return nil
	}))
	SinkFunc(sink.Emit).Emit(NewEvent("u1", ActionOrchestrationStarted, nil))
	require.NoError(t, sink.Close(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{ActionOrchestrationStarted}, got)
}

func TestAsyncSinkEmitAfterCloseDoesNotPanic(t *testing.T) {
	sink := NewAsyncSink(NewMemoryRecorder())
	require.NoError(t, sink.Close(context.Background()))
	assert.NotPanics(t, func() { sink.Emit(NewEvent("u", "late", nil)) })
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	first := NewEvent("u1", ActionModelRouted, map[string]any{"selected_model": "grok-beta"})
	first.Timestamp = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	second := NewEvent("u2", ToolUsed("search_latest_stack_trends"), nil)
	second.Timestamp = first.Timestamp.Add(time.Second)

	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))
	require.NoError(t, store.Save(ctx, first))

	events, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, second.ID, events[0].ID)
	assert.Equal(t, first.ID, events[1].ID)
	assert.Equal(t, "grok-beta", events[1].Metadata["selected_model"])
	assert.True(t, first.Timestamp.Equal(events[1].Timestamp))
	assert.Nil(t, events[0].Metadata)
}
