package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/n8nhub/n8nhub/pkg/models"
)

// Blob names shared by all backends.
const (
	BlobInstances = "instances"
	BlobStatuses  = "statuses"
	BlobWorkflows = "workflows"
)

// SchemaVersion is the current envelope version for every blob.
const SchemaVersion = 1

// Store persists the three aggregation blobs. A nil slice (or nil map) with a
// nil error means the blob has never been written; callers use that to decide
// whether an initial refresh is required. Backends must degrade corrupt
// content to the absent case rather than surfacing it.
type Store interface {
	Instances(ctx context.Context) ([]models.Instance, error)
	SaveInstances(ctx context.Context, instances []models.Instance) error

	Statuses(ctx context.Context) (map[string]models.InstanceStatus, error)
	SaveStatuses(ctx context.Context, statuses map[string]models.InstanceStatus) error

	Workflows(ctx context.Context) ([]models.WorkflowItem, error)
	SaveWorkflows(ctx context.Context, items []models.WorkflowItem) error
	ClearWorkflows(ctx context.Context) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// Envelope wraps every persisted blob with a schema version so that future
// format changes can be detected instead of silently misread.
type Envelope struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// EncodeBlob wraps a value in a versioned envelope.
func EncodeBlob(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	return json.Marshal(Envelope{Version: SchemaVersion, Data: data})
}

// DecodeBlob unwraps a versioned envelope into v. Corrupt content or an
// envelope from a newer schema returns ErrParse.
func DecodeBlob(raw []byte, v any) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %w", ErrParse, err)
	}

	if env.Version > SchemaVersion {
		return fmt.Errorf("%w: unsupported schema version %d", ErrParse, env.Version)
	}

	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrParse, err)
	}

	return nil
}
