package models

import (
	"net/url"
	"strings"
	"time"
)

// Instance is one configured n8n deployment. The ID is derived from the
// normalized base URL, so re-adding the same URL yields the same identity.
type Instance struct {
	ID        string    `json:"id"         validate:"required"`
	Name      string    `json:"name"       validate:"required,min=1"`
	BaseURL   string    `json:"base_url"   validate:"required,url"`
	APIKey    string    `json:"api_key"    validate:"required"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// InstanceStatus is the last known reachability of one instance. Error is
// the operator-facing message from the failed probe, empty when Active.
type InstanceStatus struct {
	InstanceID  string    `json:"instance_id"`
	Active      bool      `json:"active"`
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// InstanceIDFromURL derives a stable slug identifier from a base URL. Scheme
// and credentials are dropped, the host and path are lowercased, and every
// run of non-alphanumeric characters collapses to a single dash. The mapping
// is idempotent across trailing slashes, case, and surrounding whitespace.
func InstanceIDFromURL(baseURL string) string {
	raw := strings.ToLower(strings.TrimSpace(baseURL))

	source := raw
	if parsed, err := url.Parse(raw); err == nil && parsed.Host != "" {
		source = parsed.Host + parsed.Path
	}

	var b strings.Builder

	lastDash := true // suppress a leading dash

	for _, r := range source {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)

			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')

				lastDash = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}
