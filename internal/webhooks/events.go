package webhooks

import (
	"github.com/google/go-github/v75/github"

	"github.com/goliatone/go-docbot/internal/pipeline"
)

// GitHub event names handled by the bot.
const (
	EventPush         = "push"
	EventPullRequest  = "pull_request"
	EventIssueComment = "issue_comment"
	EventPing         = "ping"
)

var pullRequestActions = map[string]bool{
	"opened":      true,
	"synchronize": true,
	"reopened":    true,
}

// PushFromGitHub converts a push payload. Branch deletions and pushes
// without a repository are ignored.
func PushFromGitHub(deliveryID string, event *github.PushEvent) (pipeline.PushEvent, bool) {
	if event == nil || event.GetDeleted() || event.GetRepo().GetFullName() == "" {
		return pipeline.PushEvent{}, false
	}
	commits := make([]pipeline.Commit, 0, len(event.Commits))
	for _, commit := range event.Commits {
		if commit == nil {
			continue
		}
		commits = append(commits, pipeline.Commit{
			ID:       commit.GetID(),
			Added:    commit.Added,
			Modified: commit.Modified,
			Removed:  commit.Removed,
		})
	}
	return pipeline.PushEvent{
		DeliveryID:   deliveryID,
		RepoFullName: event.GetRepo().GetFullName(),
		Ref:          event.GetRef(),
		After:        event.GetAfter(),
		Commits:      commits,
	}, true
}

// PullRequestFromGitHub converts opened, reopened and synchronize events.
func PullRequestFromGitHub(deliveryID string, event *github.PullRequestEvent) (pipeline.PullRequestRef, bool) {
	if event == nil || !pullRequestActions[event.GetAction()] || event.GetRepo().GetFullName() == "" {
		return pipeline.PullRequestRef{}, false
	}
	number := event.GetNumber()
	if number == 0 {
		number = event.GetPullRequest().GetNumber()
	}
	return pipeline.PullRequestRef{
		DeliveryID:   deliveryID,
		RepoFullName: event.GetRepo().GetFullName(),
		Number:       number,
		HeadSHA:      event.GetPullRequest().GetHead().GetSHA(),
	}, true
}

// Comment is a newly created pull request comment.
type Comment struct {
	PullRequest pipeline.PullRequestRef
	Actor       string
	Body        string
}

// CommentFromGitHub converts created comments on pull requests. Comments on
// plain issues and comments written by bots are ignored.
func CommentFromGitHub(deliveryID string, event *github.IssueCommentEvent) (Comment, bool) {
	if event == nil || event.GetAction() != "created" || !event.GetIssue().IsPullRequest() {
		return Comment{}, false
	}
	if event.GetComment().GetUser().GetType() == "Bot" {
		return Comment{}, false
	}
	return Comment{
		PullRequest: pipeline.PullRequestRef{
			DeliveryID:   deliveryID,
			RepoFullName: event.GetRepo().GetFullName(),
			Number:       event.GetIssue().GetNumber(),
		},
		Actor: "@" + event.GetComment().GetUser().GetLogin(),
		Body:  event.GetComment().GetBody(),
	}, true
}
