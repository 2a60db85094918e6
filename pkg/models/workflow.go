package models

import (
	"encoding/json"
	"strings"
)

// Workflow is the remote listing payload for one workflow, scoped to the
// instance that returned it. Read-only on this side.
type Workflow struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Active bool         `json:"active"`
	Tags   WorkflowTags `json:"tags,omitempty"`
}

// WorkflowDetail is the full remote definition, including the node list
// needed for activation precondition checks.
type WorkflowDetail struct {
	Workflow

	Nodes []WorkflowNode `json:"nodes"`
}

// WorkflowNode is one node of a remote workflow definition.
type WorkflowNode struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Trigger-capable node type fragments. Matching is case-insensitive and
// substring based since remote node types are namespaced strings such as
// "n8n-nodes-base.webhook" or "n8n-nodes-base.scheduleTrigger".
var triggerTypeFragments = []string{"webhook", "cron", "schedule", "interval", "trigger"}

// IsTrigger reports whether the node can start a workflow. Disabled nodes
// never count.
func (n WorkflowNode) IsTrigger() bool {
	if n.Disabled {
		return false
	}

	nodeType := strings.ToLower(n.Type)
	for _, fragment := range triggerTypeFragments {
		if strings.Contains(nodeType, fragment) {
			return true
		}
	}

	return false
}

// HasTriggerNode reports whether at least one enabled trigger-capable node
// exists in the definition.
func (d *WorkflowDetail) HasTriggerNode() bool {
	for _, node := range d.Nodes {
		if node.IsTrigger() {
			return true
		}
	}

	return false
}

// WorkflowTags tolerates both remote tag encodings: a list of objects with a
// name field and a bare list of strings.
type WorkflowTags []string

func (t *WorkflowTags) UnmarshalJSON(data []byte) error {
	var plain []string
	if err := json.Unmarshal(data, &plain); err == nil {
		*t = plain

		return nil
	}

	var objects []struct {
		Name string `json:"name"`
	}

	if err := json.Unmarshal(data, &objects); err != nil {
		return err
	}

	names := make([]string, 0, len(objects))
	for _, o := range objects {
		if o.Name != "" {
			names = append(names, o.Name)
		}
	}

	*t = names

	return nil
}

// WorkflowPage is one page of a paginated workflow listing.
type WorkflowPage struct {
	Data       []Workflow `json:"data"`
	NextCursor string     `json:"nextCursor,omitempty"`
}
