package alert

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultPushoverURL = "https://api.pushover.net/1/messages.json"

// Notifier delivers a message to a person.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// DeliveryError reports that the notification endpoint was unreachable or
// rejected the message.
type DeliveryError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("alert delivery failed with status %d: %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
	}
	return fmt.Sprintf("alert delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// PushoverNotifier sends messages through the Pushover API.
type PushoverNotifier struct {
	apiURL     string
	token      string
	user       string
	title      string
	httpClient *http.Client
	logger     *slog.Logger
}

// PushoverOption configures a PushoverNotifier.
type PushoverOption func(*PushoverNotifier)

// WithAPIURL overrides DefaultPushoverURL.
func WithAPIURL(u string) PushoverOption {
	return func(n *PushoverNotifier) {
		n.apiURL = u
	}
}

// WithTitle sets the notification title. Pushover uses the app name when empty.
func WithTitle(title string) PushoverOption {
	return func(n *PushoverNotifier) {
		n.title = title
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) PushoverOption {
	return func(n *PushoverNotifier) {
		n.httpClient.Timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) PushoverOption {
	return func(n *PushoverNotifier) {
		n.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) PushoverOption {
	return func(n *PushoverNotifier) {
		n.logger = logger
	}
}

// NewPushoverNotifier creates a notifier for the given application token and
// recipient user key.
func NewPushoverNotifier(token, user string, opts ...PushoverOption) *PushoverNotifier {
	n := &PushoverNotifier{
		apiURL:     DefaultPushoverURL,
		token:      token,
		user:       user,
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *PushoverNotifier) Send(ctx context.Context, message string) error {
	n.logger.Info("sending alert", "message", message)

	form := url.Values{}
	form.Set("token", n.token)
	form.Set("user", n.user)
	form.Set("message", message)
	if n.title != "" {
		form.Set("title", n.title)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return &DeliveryError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return &DeliveryError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return &DeliveryError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DeliveryError{
			StatusCode: resp.StatusCode,
			Body:       body,
			Err:        fmt.Errorf("pushover responded %s", http.StatusText(resp.StatusCode)),
		}
	}
	return nil
}

// LogNotifier logs messages instead of delivering them.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, message string) error {
	n.logger.Info("alert not delivered (dry run)", "message", message)
	return nil
}
