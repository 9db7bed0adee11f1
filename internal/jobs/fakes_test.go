package jobs

import (
	"context"
	"sync"

	"github.com/sevigo/taxonomy-bot/internal/core"
	"github.com/sevigo/taxonomy-bot/internal/github"
)

type postedComment struct {
	Owner  string
	Repo   string
	Number int
	Body   string
}

// fakeClient records every comment it is asked to post.
type fakeClient struct {
	mu       sync.Mutex
	err      error
	comments []postedComment
}

func (f *fakeClient) CreateComment(_ context.Context, owner, repo string, number int, body string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments = append(f.comments, postedComment{Owner: owner, Repo: repo, Number: number, Body: body})
	return nil
}

func (f *fakeClient) all() []postedComment {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]postedComment, len(f.comments))
	copy(out, f.comments)
	return out
}

// fakeClientCreator hands out the same fake client for every installation
// and remembers which installation ids were requested.
type fakeClientCreator struct {
	mu            sync.Mutex
	client        *fakeClient
	err           error
	installations []int64
}

func newFakeClientCreator() *fakeClientCreator {
	return &fakeClientCreator{client: &fakeClient{}}
}

func (f *fakeClientCreator) NewInstallationClient(_ context.Context, installationID int64) (github.Client, error) {
	f.mu.Lock()
	f.installations = append(f.installations, installationID)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

// fakeHistory records lifecycle transitions in memory.
type fakeHistory struct {
	mu        sync.Mutex
	pending   []int64
	delivered []int64
	dropped   []int64
}

func (f *fakeHistory) RecordPending(_ context.Context, jobID int64, _ int, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, jobID)
	return nil
}

func (f *fakeHistory) RecordDelivered(_ context.Context, jobID int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, jobID)
	return nil
}

func (f *fakeHistory) RecordDropped(_ context.Context, jobID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropped = append(f.dropped, jobID)
	return nil
}

func (f *fakeHistory) Recent(context.Context, int) ([]core.JobRecord, error) {
	return nil, nil
}

func (f *fakeHistory) droppedIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, len(f.dropped))
	copy(out, f.dropped)
	return out
}

func (f *fakeHistory) deliveredIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, len(f.delivered))
	copy(out, f.delivered)
	return out
}
