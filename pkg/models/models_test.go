package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceIDFromURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{"simple host", "https://n8n.example.com", "n8n-example-com"},
		{"trailing slash", "https://n8n.example.com/", "n8n-example-com"},
		{"mixed case", "HTTPS://N8N.Example.COM", "n8n-example-com"},
		{"path segments", "https://automation.corp.io/n8n/prod", "automation-corp-io-n8n-prod"},
		{"port", "http://localhost:5678", "localhost-5678"},
		{"symbol runs collapse", "https://a--b.example.com//x", "a-b-example-com-x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InstanceIDFromURL(tt.baseURL))
		})
	}
}

func TestInstanceIDFromURLIdempotent(t *testing.T) {
	variants := []string{
		"https://hub.example.com/n8n",
		"https://hub.example.com/n8n/",
		"HTTPS://HUB.EXAMPLE.COM/n8n",
		"  https://hub.example.com/n8n ",
	}

	first := InstanceIDFromURL(variants[0])
	for _, v := range variants[1:] {
		assert.Equal(t, first, InstanceIDFromURL(v), "variant %q", v)
	}
}

func TestWorkflowTagsUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []string
	}{
		{"object list", `[{"id":"1","name":"billing"},{"id":"2","name":"ops"}]`, []string{"billing", "ops"}},
		{"string list", `["billing","ops"]`, []string{"billing", "ops"}},
		{"empty", `[]`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tags WorkflowTags

			require.NoError(t, json.Unmarshal([]byte(tt.data), &tags))
			assert.Equal(t, tt.want, []string(tags))
		})
	}
}

func TestWorkflowNodeIsTrigger(t *testing.T) {
	tests := []struct {
		name string
		node WorkflowNode
		want bool
	}{
		{"webhook", WorkflowNode{Type: "n8n-nodes-base.webhook"}, true},
		{"schedule trigger", WorkflowNode{Type: "n8n-nodes-base.scheduleTrigger"}, true},
		{"cron", WorkflowNode{Type: "n8n-nodes-base.cron"}, true},
		{"generic trigger suffix", WorkflowNode{Type: "custom.slackTrigger"}, true},
		{"plain action", WorkflowNode{Type: "n8n-nodes-base.httpRequest"}, false},
		{"disabled trigger", WorkflowNode{Type: "n8n-nodes-base.webhook", Disabled: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.node.IsTrigger())
		})
	}
}

func TestWorkflowDetailHasTriggerNode(t *testing.T) {
	detail := &WorkflowDetail{Nodes: []WorkflowNode{
		{Type: "n8n-nodes-base.set"},
		{Type: "n8n-nodes-base.httpRequest"},
	}}
	assert.False(t, detail.HasTriggerNode())

	detail.Nodes = append(detail.Nodes, WorkflowNode{Type: "n8n-nodes-base.webhook"})
	assert.True(t, detail.HasTriggerNode())
}

func TestNewWorkflowItem(t *testing.T) {
	instance := Instance{ID: "a", Name: "Prod", Color: "#ff0000"}
	workflow := Workflow{ID: "1", Name: "Invoice Sync", Active: false, Tags: WorkflowTags{}}

	item := NewWorkflowItem(instance, workflow)

	assert.Equal(t, "a:1", item.Key)
	assert.Equal(t, "Invoice Sync", item.Title)
	assert.Contains(t, item.Subtitle, "Inactive")
	assert.Contains(t, item.Subtitle, "Prod")
	assert.False(t, item.Active)
}

func TestWorkflowItemSetActive(t *testing.T) {
	item := NewWorkflowItem(Instance{ID: "a", Name: "Prod"}, Workflow{ID: "1", Name: "Sync"})
	require.Contains(t, item.Subtitle, "Inactive")

	item.SetActive(true)

	assert.True(t, item.Active)
	assert.Contains(t, item.Subtitle, "Active")
	assert.NotContains(t, item.Subtitle, "Inactive")
}

func TestDedupeItemsLastWins(t *testing.T) {
	items := []WorkflowItem{
		{Key: "a:1", Title: "old"},
		{Key: "b:1", Title: "other"},
		{Key: "a:1", Title: "new"},
	}

	out := DedupeItems(items)

	require.Len(t, out, 2)

	// The duplicate keeps its first position but carries the last value.
	assert.Equal(t, "a:1", out[0].Key)
	assert.Equal(t, "new", out[0].Title)
	assert.Equal(t, "b:1", out[1].Key)
}

func TestSortItemsCaseInsensitive(t *testing.T) {
	items := []WorkflowItem{
		{Key: "a:3", Title: "zebra"},
		{Key: "a:1", Title: "Alpha"},
		{Key: "a:2", Title: "beta"},
	}

	SortItems(items)

	assert.Equal(t, []string{"Alpha", "beta", "zebra"}, []string{items[0].Title, items[1].Title, items[2].Title})
}

func TestSameWorkflowIDDistinctInstances(t *testing.T) {
	first := NewWorkflowItem(Instance{ID: "a", Name: "A"}, Workflow{ID: "1", Name: "Sync"})
	second := NewWorkflowItem(Instance{ID: "b", Name: "B"}, Workflow{ID: "1", Name: "Sync"})

	out := DedupeItems([]WorkflowItem{first, second})
	assert.Len(t, out, 2)
}
