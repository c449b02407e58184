package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sixhats/internal/adapter/memory"
	"sixhats/internal/domain"
)

func newTestService(t *testing.T, client Client) *Service {
	t.Helper()
	return NewService(memory.NewStore(), mustOrchestrator(t, client, nil), nil)
}

// blockingClient holds the first completion until release is closed.
type blockingClient struct {
	fakeClient
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func newBlockingClient() *blockingClient {
	return &blockingClient{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (c *blockingClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	c.once.Do(func() {
		close(c.started)
		<-c.release
	})
	return c.fakeClient.Complete(ctx, req)
}

// within fails the test if fn does not return in time.
func within(t *testing.T, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("call did not return within %s", d)
	}
}

func TestServiceSubmitAccumulates(t *testing.T) {
	svc := newTestService(t, &fakeClient{})

	res, err := svc.Submit(context.Background(), "first")
	require.NoError(t, err)
	assert.Len(t, res.Transcript, 7)

	res, err = svc.Submit(context.Background(), "second")
	require.NoError(t, err)
	assert.Len(t, res.Transcript, 14)
	assert.Equal(t, "second", res.Turn()[0].Content)

	state := svc.Snapshot()
	assert.Len(t, state.Transcript, 14)
	synthesis, ok := state.SynthesisText()
	require.True(t, ok)
	assert.Equal(t, "Blue says", synthesis)
}

func TestServiceSubmitEmptyInput(t *testing.T) {
	client := &fakeClient{}
	svc := newTestService(t, client)
	_, err := svc.Submit(context.Background(), "first")
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Len(t, svc.Snapshot().Transcript, 7)
	assert.Len(t, client.requests, 6)
}

func TestServiceCancelledTurnLeavesState(t *testing.T) {
	svc := newTestService(t, &fakeClient{})
	_, err := svc.Submit(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Submit(ctx, "second")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, svc.Snapshot().Transcript, 7)
}

func TestServiceReset(t *testing.T) {
	for _, turns := range []int{0, 1, 3} {
		svc := newTestService(t, &fakeClient{})
		for i := 0; i < turns; i++ {
			_, err := svc.Submit(context.Background(), "q")
			require.NoError(t, err)
		}

		svc.Reset()
		state := svc.Snapshot()
		assert.Empty(t, state.Transcript)
		assert.Nil(t, state.Synthesis)
	}
}

func TestServiceSnapshotIsCopy(t *testing.T) {
	svc := newTestService(t, &fakeClient{})
	_, err := svc.Submit(context.Background(), "q")
	require.NoError(t, err)

	state := svc.Snapshot()
	state.Transcript[0] = domain.Message{Role: domain.RoleUser, Content: "tampered"}
	assert.Equal(t, "q", svc.Snapshot().Transcript[0].Content)
}

func TestServiceSnapshotDuringTurn(t *testing.T) {
	store := memory.NewStore()
	before := "earlier synthesis"
	store.Save(domain.DefaultSession, domain.SessionState{
		Transcript: []domain.Message{{Role: domain.RoleUser, Content: "earlier"}},
		Synthesis:  &before,
	})
	client := newBlockingClient()
	svc := NewService(store, mustOrchestrator(t, client, nil), nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), "next")
		done <- err
	}()
	<-client.started

	var state domain.SessionState
	within(t, 2*time.Second, func() { state = svc.Snapshot() })
	require.Len(t, state.Transcript, 1)
	synthesis, ok := state.SynthesisText()
	require.True(t, ok)
	assert.Equal(t, "earlier synthesis", synthesis)

	close(client.release)
	require.NoError(t, <-done)
	assert.Len(t, svc.Snapshot().Transcript, 8)
}

func TestServiceResetDuringTurnDropsResult(t *testing.T) {
	client := newBlockingClient()
	svc := newTestService(t, client)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), "q")
		done <- err
	}()
	<-client.started

	within(t, 2*time.Second, svc.Reset)
	close(client.release)

	assert.ErrorIs(t, <-done, ErrSessionReset)
	state := svc.Snapshot()
	assert.Empty(t, state.Transcript)
	assert.Nil(t, state.Synthesis)

	// the next turn starts from the cleared session
	res, err := svc.Submit(context.Background(), "again")
	require.NoError(t, err)
	assert.Len(t, res.Transcript, 7)
}
