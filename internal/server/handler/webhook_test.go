package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/taxonomy-bot/internal/config"
	"github.com/sevigo/taxonomy-bot/internal/core"
)

const testSecret = "test-webhook-secret"

type fakeDispatcher struct {
	comments     []*core.CommentEvent
	pullRequests []*core.PullRequestEvent
	err          error
}

func (f *fakeDispatcher) HandleComment(_ context.Context, event *core.CommentEvent) error {
	if f.err != nil {
		return f.err
	}
	f.comments = append(f.comments, event)
	return nil
}

func (f *fakeDispatcher) HandlePullRequestOpened(_ context.Context, event *core.PullRequestEvent) error {
	if f.err != nil {
		return f.err
	}
	f.pullRequests = append(f.pullRequests, event)
	return nil
}

func newTestHandler(dispatcher *fakeDispatcher) *WebhookHandler {
	cfg := &config.Config{
		BotUsername:         "@taxonomy-bot",
		GitHubWebhookSecret: testSecret,
	}
	return NewWebhookHandler(cfg, dispatcher, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// signedRequest builds a webhook request with a valid HMAC signature.
func signedRequest(t *testing.T, eventType string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	sig := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/github", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", eventType)
	req.Header.Set("X-Hub-Signature-256", sig)
	return req
}

func issueCommentPayload(body string) *github.IssueCommentEvent {
	return &github.IssueCommentEvent{
		Action: github.Ptr("created"),
		Issue: &github.Issue{
			Number:           github.Ptr(42),
			PullRequestLinks: &github.PullRequestLinks{URL: github.Ptr("https://api.github.com/pulls/42")},
		},
		Comment: &github.IssueComment{Body: github.Ptr(body)},
		Repo: &github.Repository{
			Name:  github.Ptr("taxonomy"),
			Owner: &github.User{Login: github.Ptr("instruct-lab")},
		},
		Installation: &github.Installation{ID: github.Ptr(int64(77))},
	}
}

func TestWebhookHandler_RejectsBadSignature(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := newTestHandler(dispatcher)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/github", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "issue_comment")
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")

	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, dispatcher.comments)
}

func TestWebhookHandler_DispatchesGenerateCommand(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := newTestHandler(dispatcher)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(t, "issue_comment", issueCommentPayload("@taxonomy-bot generate")))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, dispatcher.comments, 1)
	event := dispatcher.comments[0]
	assert.Equal(t, 42, event.IssueNumber)
	assert.True(t, event.IsPullRequest)
	assert.Equal(t, int64(77), event.InstallationID)
	assert.Equal(t, core.CommandGenerate, event.Command)
}

func TestWebhookHandler_IgnoresUnaddressedComment(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := newTestHandler(dispatcher)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(t, "issue_comment", issueCommentPayload("looks good to me")))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, dispatcher.comments)
}

func TestWebhookHandler_DispatchesPullRequestOpened(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := newTestHandler(dispatcher)

	payload := &github.PullRequestEvent{
		Action:      github.Ptr("opened"),
		PullRequest: &github.PullRequest{Number: github.Ptr(7)},
		Repo: &github.Repository{
			Name:  github.Ptr("taxonomy"),
			Owner: &github.User{Login: github.Ptr("instruct-lab")},
		},
		Installation: &github.Installation{ID: github.Ptr(int64(77))},
	}

	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(t, "pull_request", payload))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, dispatcher.pullRequests, 1)
	assert.Equal(t, 7, dispatcher.pullRequests[0].PRNumber)
}

func TestWebhookHandler_IgnoresUnhandledEventType(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := newTestHandler(dispatcher)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(t, "push", &github.PushEvent{}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, dispatcher.comments)
	assert.Empty(t, dispatcher.pullRequests)
}

func TestWebhookHandler_DispatchFailure(t *testing.T) {
	dispatcher := &fakeDispatcher{err: assert.AnError}
	h := newTestHandler(dispatcher)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(t, "issue_comment", issueCommentPayload("@taxonomy-bot generate")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
