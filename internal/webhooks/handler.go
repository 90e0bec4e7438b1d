package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v75/github"

	"github.com/goliatone/go-docbot/internal/jobs"
	"github.com/goliatone/go-docbot/internal/logging"
	"github.com/goliatone/go-docbot/internal/pipeline"
	"github.com/goliatone/go-docbot/pkg/interfaces"
)

// ErrMissingSecret is returned by NewHandler without a webhook secret.
var ErrMissingSecret = errors.New("webhooks: secret is required")

// Queue accepts background tasks.
type Queue interface {
	Submit(task jobs.Task) error
}

// Handlers are called on the worker queue. A nil handler ignores its event.
type Handlers struct {
	Push        func(ctx context.Context, event pipeline.PushEvent) error
	PullRequest func(ctx context.Context, pr pipeline.PullRequestRef) error
	Comment     func(ctx context.Context, comment Comment) error
}

// Response is the body written for every delivery.
type Response struct {
	Status     string `json:"status"`
	Event      string `json:"event,omitempty"`
	DeliveryID string `json:"delivery_id,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Response statuses.
const (
	StatusAccepted = "accepted"
	StatusIgnored  = "ignored"
	StatusRejected = "rejected"
	StatusDropped  = "dropped"
)

// Option customises a Handler.
type Option func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithDropObserver is called with the event type of every verified delivery
// the queue refused.
func WithDropObserver(observer func(event string)) Option {
	return func(h *Handler) {
		if observer != nil {
			h.onDrop = observer
		}
	}
}

// Handler verifies GitHub deliveries, acknowledges them immediately and
// hands the work to a queue.
type Handler struct {
	secret   []byte
	queue    Queue
	handlers Handlers
	logger   interfaces.Logger
	onDrop   func(event string)
}

// NewHandler builds a webhook handler.
func NewHandler(secret []byte, queue Queue, handlers Handlers, opts ...Option) (*Handler, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	if queue == nil {
		return nil, errors.New("webhooks: queue is required")
	}
	h := &Handler{
		secret:   secret,
		queue:    queue,
		handlers: handlers,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, Response{Status: StatusRejected, Message: "method not allowed"})
		return
	}

	eventType := github.WebHookType(r)
	deliveryID := github.DeliveryID(r)
	if eventType == "" || deliveryID == "" || r.Header.Get(github.SHA256SignatureHeader) == "" {
		writeJSON(w, http.StatusUnauthorized, Response{Status: StatusRejected, Message: "missing required headers"})
		return
	}

	payload, err := github.ValidatePayload(r, h.secret)
	if err != nil {
		h.logger.Warn("webhooks.signature.invalid", "event", eventType, "delivery_id", deliveryID, "error", err)
		writeJSON(w, http.StatusUnauthorized, Response{Status: StatusRejected, DeliveryID: deliveryID, Message: "invalid signature"})
		return
	}

	logger := logging.WithFields(h.logger, map[string]any{"event": eventType, "delivery_id": deliveryID})
	task, err := h.taskFor(eventType, deliveryID, payload)
	if err != nil {
		logger.Warn("webhooks.payload.invalid", "error", err)
		writeJSON(w, http.StatusBadRequest, Response{Status: StatusRejected, Event: eventType, DeliveryID: deliveryID, Message: "invalid payload"})
		return
	}
	if task == nil {
		logger.Debug("webhooks.event.ignored")
		writeJSON(w, http.StatusAccepted, Response{Status: StatusIgnored, Event: eventType, DeliveryID: deliveryID})
		return
	}

	// GitHub retries non-2xx deliveries, so a refused task is still
	// acknowledged and recorded as dropped.
	if err := h.queue.Submit(*task); err != nil {
		logger.Error("webhooks.queue.dropped", "error", err)
		if h.onDrop != nil {
			h.onDrop(eventType)
		}
		writeJSON(w, http.StatusAccepted, Response{Status: StatusDropped, Event: eventType, DeliveryID: deliveryID, Message: err.Error()})
		return
	}
	logger.Info("webhooks.event.accepted")
	writeJSON(w, http.StatusAccepted, Response{Status: StatusAccepted, Event: eventType, DeliveryID: deliveryID})
}

// taskFor returns nil when the delivery needs no work.
func (h *Handler) taskFor(eventType, deliveryID string, payload []byte) (*jobs.Task, error) {
	switch eventType {
	case EventPush, EventPullRequest, EventIssueComment:
	default:
		return nil, nil
	}

	parsed, err := github.ParseWebHook(eventType, payload)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", eventType, err)
	}

	task := &jobs.Task{ID: deliveryID, Kind: eventType}
	switch event := parsed.(type) {
	case *github.PushEvent:
		push, ok := PushFromGitHub(deliveryID, event)
		if !ok || h.handlers.Push == nil {
			return nil, nil
		}
		task.Metadata = map[string]any{"repository": push.RepoFullName, "ref": push.Ref}
		task.Run = func(ctx context.Context) error { return h.handlers.Push(ctx, push) }
	case *github.PullRequestEvent:
		pr, ok := PullRequestFromGitHub(deliveryID, event)
		if !ok || h.handlers.PullRequest == nil {
			return nil, nil
		}
		task.Metadata = map[string]any{"repository": pr.RepoFullName, "pull": pr.Number}
		task.Run = func(ctx context.Context) error { return h.handlers.PullRequest(ctx, pr) }
	case *github.IssueCommentEvent:
		comment, ok := CommentFromGitHub(deliveryID, event)
		if !ok || h.handlers.Comment == nil {
			return nil, nil
		}
		task.Metadata = map[string]any{"repository": comment.PullRequest.RepoFullName, "pull": comment.PullRequest.Number}
		task.Run = func(ctx context.Context) error { return h.handlers.Comment(ctx, comment) }
	default:
		return nil, nil
	}
	return task, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
