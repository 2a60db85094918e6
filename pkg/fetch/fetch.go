// Package fetch retrieves workflow records from one instance in bounded-size
// batches, never materializing the full result set.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/n8nhub/n8nhub/pkg/api"
	"github.com/n8nhub/n8nhub/pkg/models"
)

const (
	// DefaultBatchSize is the page size requested from the remote API.
	DefaultBatchSize = 50

	// throttleAfter is the accumulated volume beyond which an inter-page
	// delay is inserted to avoid saturating the remote API.
	throttleAfter = 200

	// pageDelay is that inter-page delay.
	pageDelay = 100 * time.Millisecond
)

// BatchFunc receives one formatted page at a time.
type BatchFunc func(items []models.WorkflowItem)

// Fetcher streams paginated workflow listings.
type Fetcher struct {
	logger *slog.Logger

	// newClient is swappable for tests.
	newClient func(instance models.Instance) *api.Client
}

// NewFetcher creates a fetcher.
func NewFetcher(logger *slog.Logger) *Fetcher {
	return &Fetcher{
		logger:    logger.With("module", "fetch"),
		newClient: api.NewClientForInstance,
	}
}

// FetchBatched pages through an instance's workflows, converting each page to
// WorkflowItems and handing it to onBatch immediately. It returns the total
// number of records seen. Errors propagate untouched so callers can
// distinguish a rejected credential from a generic failure; there is no
// automatic retry.
func (f *Fetcher) FetchBatched(ctx context.Context, instance models.Instance, onBatch BatchFunc, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	client := f.newClient(instance)

	total := 0
	cursor := ""

	for {
		page, err := client.ListWorkflows(ctx, batchSize, cursor)
		if err != nil {
			return total, fmt.Errorf("fetching workflows from %s: %w", instance.Name, err)
		}

		if len(page.Data) > 0 {
			items := make([]models.WorkflowItem, 0, len(page.Data))
			for _, workflow := range page.Data {
				items = append(items, models.NewWorkflowItem(instance, workflow))
			}

			onBatch(items)

			total += len(items)
		}

		if len(page.Data) < batchSize || page.NextCursor == "" {
			break
		}

		cursor = page.NextCursor

		if total >= throttleAfter {
			select {
			case <-ctx.Done():
				return total, ctx.Err()
			case <-time.After(pageDelay):
			}
		}
	}

	f.logger.Debug("Fetched workflows", "instance", instance.ID, "total", total)

	return total, nil
}
