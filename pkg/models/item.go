package models

import (
	"sort"
	"strings"
)

// WorkflowItem is the unified, cache-resident record for one remote workflow
// scoped to one instance. Key is the deduplication and cache-map key: the
// same workflow ID can legitimately recur across instances.
type WorkflowItem struct {
	Key           string   `json:"key"`
	WorkflowID    string   `json:"workflow_id"`
	InstanceID    string   `json:"instance_id"`
	InstanceName  string   `json:"instance_name"`
	InstanceColor string   `json:"instance_color,omitempty"`
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle"`
	Tags          []string `json:"tags,omitempty"`
	Active        bool     `json:"active"`

	// HasTrigger caches a remote-side fact discovered during activation
	// attempts. nil means unknown.
	HasTrigger *bool `json:"has_trigger,omitempty"`
}

// ItemKey builds the composite cache key for a workflow on an instance.
func ItemKey(instanceID, workflowID string) string {
	return instanceID + ":" + workflowID
}

// NewWorkflowItem converts a remote workflow into the unified record.
func NewWorkflowItem(instance Instance, workflow Workflow) WorkflowItem {
	item := WorkflowItem{
		Key:           ItemKey(instance.ID, workflow.ID),
		WorkflowID:    workflow.ID,
		InstanceID:    instance.ID,
		InstanceName:  instance.Name,
		InstanceColor: instance.Color,
		Title:         workflow.Name,
		Tags:          workflow.Tags,
		Active:        workflow.Active,
	}
	item.Subtitle = item.BuildSubtitle()

	return item
}

// BuildSubtitle derives the display subtitle from the current state.
func (i *WorkflowItem) BuildSubtitle() string {
	state := "Inactive"
	if i.Active {
		state = "Active"
	}

	parts := []string{state, i.InstanceName}
	if len(i.Tags) > 0 {
		parts = append(parts, strings.Join(i.Tags, ", "))
	}

	return strings.Join(parts, " · ")
}

// SetActive flips the activation state and keeps the subtitle consistent.
func (i *WorkflowItem) SetActive(active bool) {
	i.Active = active
	i.Subtitle = i.BuildSubtitle()
}

// DedupeItems removes duplicate keys, last write wins: a duplicate replaces
// the earlier value in place, so each key keeps the position of its first
// occurrence.
func DedupeItems(items []WorkflowItem) []WorkflowItem {
	seen := make(map[string]int, len(items))
	out := make([]WorkflowItem, 0, len(items))

	for _, item := range items {
		if idx, ok := seen[item.Key]; ok {
			out[idx] = item

			continue
		}

		seen[item.Key] = len(out)
		out = append(out, item)
	}

	return out
}

// SortItems orders items by title, case-insensitive, with the key as a
// deterministic tiebreaker.
func SortItems(items []WorkflowItem) {
	sort.SliceStable(items, func(a, b int) bool {
		ta := strings.ToLower(items[a].Title)
		tb := strings.ToLower(items[b].Title)

		if ta == tb {
			return items[a].Key < items[b].Key
		}

		return ta < tb
	})
}
