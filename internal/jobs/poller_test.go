package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/taxonomy-bot/internal/store"
)

func newTestPoller(t *testing.T) (*ResultPoller, *store.MemoryStore, *fakeClientCreator, *fakeHistory) {
	t.Helper()
	cfg := testConfig()
	cfg.PollTimeout = 20 * time.Millisecond
	memStore := store.NewMemoryStore()
	creator := newFakeClientCreator()
	hist := &fakeHistory{}
	p := NewResultPoller(cfg, memStore, creator, hist, testLogger())
	return p, memStore, creator, hist
}

// completeJob seeds the store as the dispatcher and an external worker
// would: metadata first, then the id on the results queue.
func completeJob(t *testing.T, s *store.MemoryStore, jobID, pr, install, url string) {
	t.Helper()
	ctx := context.Background()
	id, err := s.NextJobID(ctx)
	require.NoError(t, err)
	require.Equal(t, jobID, fmt.Sprint(id))
	if pr != "" {
		require.NoError(t, s.SetField(ctx, id, store.FieldPRNumber, pr))
	}
	if install != "" {
		require.NoError(t, s.SetField(ctx, id, store.FieldInstallationID, install))
	}
	if url != "" {
		require.NoError(t, s.SetField(ctx, id, store.FieldResultURL, url))
	}
	s.PushResult(jobID)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func runPoller(t *testing.T, p *ResultPoller) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("poller did not stop after cancellation")
		}
	})
	return cancel
}

func TestPoller_DeliversResult(t *testing.T) {
	p, memStore, creator, hist := newTestPoller(t)

	completeJob(t, memStore, "1", "42", "77", "https://bucket.example.com/results.tar.gz")
	runPoller(t, p)

	waitFor(t, func() bool { return len(creator.client.all()) == 1 }, "result comment was not posted")

	comments := creator.client.all()
	assert.Equal(t, "instruct-lab", comments[0].Owner)
	assert.Equal(t, "taxonomy", comments[0].Repo)
	assert.Equal(t, 42, comments[0].Number)
	assert.Contains(t, comments[0].Body, "https://bucket.example.com/results.tar.gz")
	assert.Contains(t, comments[0].Body, "expires in 5 days")

	waitFor(t, func() bool { return len(hist.deliveredIDs()) == 1 }, "delivery was not recorded")

	// The id was consumed once; nothing further is posted.
	time.Sleep(3 * p.cfg.PollTimeout)
	assert.Len(t, creator.client.all(), 1)
}

func TestPoller_DropsJobWithMissingMetadata(t *testing.T) {
	p, memStore, creator, hist := newTestPoller(t)

	// Job 1 never got a result URL; job 2 is complete. The incomplete job
	// is dropped and must not stall delivery of the complete one.
	completeJob(t, memStore, "1", "42", "77", "")
	completeJob(t, memStore, "2", "43", "77", "https://bucket.example.com/2.tar.gz")
	runPoller(t, p)

	waitFor(t, func() bool { return len(creator.client.all()) == 1 }, "complete job was not delivered")
	assert.Equal(t, 43, creator.client.all()[0].Number)

	waitFor(t, func() bool { return len(hist.droppedIDs()) == 1 }, "incomplete job was not recorded as dropped")
	assert.Equal(t, []int64{1}, hist.droppedIDs())
}

func TestPoller_MalformedPRNumber(t *testing.T) {
	p, memStore, creator, hist := newTestPoller(t)

	completeJob(t, memStore, "1", "not-a-number", "77", "https://bucket.example.com/1.tar.gz")
	runPoller(t, p)

	waitFor(t, func() bool { return len(hist.droppedIDs()) == 1 }, "malformed job was not dropped")
	assert.Empty(t, creator.client.all())
}

func TestPoller_ClientFailureAbandonsJob(t *testing.T) {
	p, memStore, creator, hist := newTestPoller(t)
	creator.err = fmt.Errorf("installation token: 401")

	completeJob(t, memStore, "1", "42", "77", "https://bucket.example.com/1.tar.gz")
	runPoller(t, p)

	// The job disappears without a comment; the poller keeps running.
	time.Sleep(3 * p.cfg.PollTimeout)
	assert.Empty(t, creator.client.all())
	assert.Empty(t, hist.deliveredIDs())
}

func TestPoller_StopsOnCancel(t *testing.T) {
	p, _, _, _ := newTestPoller(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancellation")
	}
}
