package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"torrentify/internal/config"
	"torrentify/internal/runstats"
)

const userAgent = "torrentify/1.0"

// Service defines the notification surface used by the workflow.
type Service interface {
	NotifyRunCompleted(ctx context.Context, snap runstats.Snapshot) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:        topic,
		client:          &http.Client{Timeout: timeout},
		onlyWhenChanged: cfg.Notifications.OnlyWhenChanged,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint        string
	client          *http.Client
	onlyWhenChanged bool
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, snap runstats.Snapshot) error {
	if n.onlyWhenChanged && !snap.Changed() {
		return nil
	}
	data := payload{
		title:   "torrentify - Run Complete",
		message: FormatSummary(snap),
		tags:    []string{"torrentify", "run", "completed"},
	}
	if snap.Failed > 0 || snap.Retag.Failed > 0 {
		data.title = "torrentify - Run Complete (with errors)"
		data.tags = []string{"torrentify", "run", "warning"}
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "torrentify - Error",
		message:  builder.String(),
		tags:     []string{"torrentify", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "torrentify - Test",
		message:  "Notification system test",
		tags:     []string{"torrentify", "test"},
		priority: "low",
	})
}

// FormatSummary renders a snapshot as a short multi-line message.
func FormatSummary(snap runstats.Snapshot) string {
	lines := []string{
		fmt.Sprintf("Processed: %d, skipped: %d, failed: %d", snap.Processed, snap.Skipped, snap.Failed),
	}
	if snap.Deferred > 0 || snap.Empty > 0 {
		lines = append(lines, fmt.Sprintf("Deferred: %d, empty: %d", snap.Deferred, snap.Empty))
	}
	lines = append(lines,
		fmt.Sprintf("TMDB found/missing: %d/%d", snap.TMDB.Found, snap.TMDB.Missing),
		fmt.Sprintf("iTunes found/missing: %d/%d", snap.ITunes.Found, snap.ITunes.Missing))
	if snap.Retag.Triggered {
		lines = append(lines, fmt.Sprintf("Retag: %d updated, %d failed of %d", snap.Retag.Updated, snap.Retag.Failed, snap.Retag.Scanned))
	}
	lines = append(lines, "Duration: "+runstats.FormatDuration(snap.Duration))
	return strings.Join(lines, "\n")
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, runstats.Snapshot) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error           { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
