// Package core defines the essential interfaces and data structures that form
// the backbone of the bot. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the bot's logic.
package core

import (
	"fmt"
	"strings"

	"github.com/google/go-github/v73/github"
)

// Command classifies the text of a comment addressed to the bot.
type Command int

const (
	// CommandGenerate requests test-data generation for a pull request.
	CommandGenerate Command = iota
	// CommandUnknown is any other text that starts with the bot mention.
	CommandUnknown
)

// CommentEvent is the bot's internal view of an issue_comment webhook payload.
type CommentEvent struct {
	// IssueNumber is the issue or pull request the comment was posted on.
	IssueNumber int
	// IsPullRequest reports whether the issue is a pull request. Generation
	// is only valid for pull requests.
	IsPullRequest bool
	// InstallationID authorizes the bot's replies. Zero when the event
	// carried no installation context.
	InstallationID int64
	Command        Command

	RepoOwner string
	RepoName  string
}

// PullRequestEvent is the bot's internal view of a pull_request webhook payload.
type PullRequestEvent struct {
	PRNumber       int
	InstallationID int64

	RepoOwner string
	RepoName  string
}

// ParseCommand classifies a comment body against the bot's mention token.
// A body that does not start with the token is not a command at all; the
// second return value is false and the caller must take no action. The only
// recognized command is the exact text "<botUsername> generate".
func ParseCommand(botUsername, body string) (Command, bool) {
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, botUsername) {
		return CommandUnknown, false
	}
	if body == botUsername+" generate" {
		return CommandGenerate, true
	}
	return CommandUnknown, true
}

// EventFromIssueComment transforms a raw GitHub IssueCommentEvent into the
// bot's internal CommentEvent. It acts as an anti-corruption layer: payloads
// that are not newly created comments, are not addressed to the bot, or lack
// required repository data are rejected with an error and never reach the
// dispatcher.
func EventFromIssueComment(botUsername string, event *github.IssueCommentEvent) (*CommentEvent, error) {
	if event.GetAction() != "created" {
		return nil, fmt.Errorf("comment action is %q, not created", event.GetAction())
	}

	cmd, addressed := ParseCommand(botUsername, event.GetComment().GetBody())
	if !addressed {
		return nil, fmt.Errorf("comment is not addressed to %s", botUsername)
	}

	repo := event.GetRepo()
	if repo == nil || repo.GetOwner() == nil || repo.GetOwner().GetLogin() == "" || repo.GetName() == "" {
		return nil, fmt.Errorf("repository or owner information is missing from the event")
	}

	issueNumber := event.GetIssue().GetNumber()
	if issueNumber <= 0 {
		return nil, fmt.Errorf("invalid issue number: %d", issueNumber)
	}

	return &CommentEvent{
		IssueNumber:    issueNumber,
		IsPullRequest:  event.GetIssue().IsPullRequest(),
		InstallationID: event.GetInstallation().GetID(),
		Command:        cmd,
		RepoOwner:      repo.GetOwner().GetLogin(),
		RepoName:       repo.GetName(),
	}, nil
}

// EventFromPullRequest transforms a raw GitHub PullRequestEvent into the
// bot's internal PullRequestEvent. Only newly opened pull requests are
// accepted; everything else is rejected with an error.
func EventFromPullRequest(event *github.PullRequestEvent) (*PullRequestEvent, error) {
	if event.GetAction() != "opened" {
		return nil, fmt.Errorf("pull request action is %q, not opened", event.GetAction())
	}

	repo := event.GetRepo()
	if repo == nil || repo.GetOwner() == nil || repo.GetOwner().GetLogin() == "" || repo.GetName() == "" {
		return nil, fmt.Errorf("repository or owner information is missing from the event")
	}

	prNumber := event.GetPullRequest().GetNumber()
	if prNumber <= 0 {
		return nil, fmt.Errorf("invalid pull request number: %d", prNumber)
	}

	return &PullRequestEvent{
		PRNumber:       prNumber,
		InstallationID: event.GetInstallation().GetID(),
		RepoOwner:      repo.GetOwner().GetLogin(),
		RepoName:       repo.GetName(),
	}, nil
}
