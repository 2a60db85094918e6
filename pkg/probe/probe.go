// Package probe tests reachability and authentication of remote instances.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/n8nhub/n8nhub/pkg/api"
	"github.com/n8nhub/n8nhub/pkg/models"
)

// Timeout bounds a single probe request.
const Timeout = 5 * time.Second

// Result is the outcome of probing one instance. Probing never fails with an
// error value; every outcome is classified into a user-facing message.
type Result struct {
	OK      bool
	Message string
}

// Prober issues bounded-timeout authenticated requests against an instance's
// workflow-listing capability.
type Prober struct {
	logger *slog.Logger

	// newClient is swappable for tests.
	newClient func(instance models.Instance) *api.Client
}

// NewProber creates a prober.
func NewProber(logger *slog.Logger) *Prober {
	return &Prober{
		logger: logger.With("module", "probe"),
		newClient: func(instance models.Instance) *api.Client {
			return api.NewClientForInstance(instance).
				WithHTTPClient(&http.Client{Timeout: Timeout})
		},
	}
}

// Probe checks one instance and classifies the outcome.
func (p *Prober) Probe(ctx context.Context, instance models.Instance) Result {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	client := p.newClient(instance)

	_, err := client.ListWorkflows(ctx, 1, "")
	if err == nil {
		return Result{OK: true, Message: "Connection successful."}
	}

	result := Result{OK: false, Message: classify(err)}

	p.logger.Debug("Probe failed", "instance", instance.ID, "message", result.Message)

	return result
}

// classify maps an error to a distinct user-facing message.
func classify(err error) string {
	if api.IsUnauthorized(err) {
		return "API key is invalid."
	}

	if code := api.StatusCode(err); code > 0 {
		return fmt.Sprintf("Server error: HTTP %d %s", code, http.StatusText(code))
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return "Host not found. Check the instance URL."
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Connection timed out. The instance is not responding."
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "Connection timed out. The instance is not responding."
	}

	text := err.Error()

	switch {
	case strings.Contains(text, "no such host"):
		return "Host not found. Check the instance URL."
	case strings.Contains(text, "connection refused"):
		return "Connection refused. Is the instance running?"
	case strings.Contains(text, "timeout"), strings.Contains(text, "deadline exceeded"):
		return "Connection timed out. The instance is not responding."
	default:
		return "Connection error: " + text
	}
}
