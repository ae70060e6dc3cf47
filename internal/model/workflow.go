package model

// TopWorkflow summarizes one of a user's most-run workflows. It is attached for
// detail display and as input to the classifier.
//
// NodeTypes and Topology are both written by the usage generator and are not
// always consistent with each other; neither is rewritten here.
type TopWorkflow struct {
	Rank         int       `json:"rank"                   bson:"rank"`
	FlowID       string    `json:"flow_id,omitempty"      bson:"flow_id,omitempty"`
	FlowTaskID   string    `json:"flow_task_id,omitempty" bson:"flow_task_id,omitempty"`
	WorkflowName string    `json:"workflow_name"          bson:"workflow_name"`
	Signature    string    `json:"signature"              bson:"signature"`
	RunCount     int       `json:"run_count"              bson:"run_count"`
	NodeTypes    []string  `json:"node_types"             bson:"node_types"`
	SnapshotURL  string    `json:"snapshot_url,omitempty" bson:"snapshot_url,omitempty"`
	Topology     *Topology `json:"topology,omitempty"     bson:"topology,omitempty"`
}

// Topology is the cleaned node/edge graph of a sample run.
type Topology struct {
	Nodes []TopologyNode `json:"nodes" bson:"nodes"`
	Edges []TopologyEdge `json:"edges" bson:"edges"`
}

type TopologyNode struct {
	ID          string         `json:"id"           bson:"id"`
	Type        string         `json:"type"         bson:"type"`
	Label       string         `json:"label"        bson:"label"`
	IsInputNode bool           `json:"isInputNode"  bson:"isInputNode"`
	Data        map[string]any `json:"data"         bson:"data"`
}

type TopologyEdge struct {
	ID           string `json:"id"           bson:"id"`
	Source       string `json:"source"       bson:"source"`
	Target       string `json:"target"       bson:"target"`
	SourceHandle string `json:"sourceHandle" bson:"sourceHandle"`
	TargetHandle string `json:"targetHandle" bson:"targetHandle"`
}

// EffectiveNodeTypes returns NodeTypes when the generator filled it in, and
// otherwise the distinct node types of the topology in first-seen order.
func (w *TopWorkflow) EffectiveNodeTypes() []string {
	if len(w.NodeTypes) > 0 {
		return w.NodeTypes
	}
	if w.Topology == nil {
		return nil
	}
	seen := make(map[string]bool, len(w.Topology.Nodes))
	types := make([]string, 0, len(w.Topology.Nodes))
	for _, n := range w.Topology.Nodes {
		if n.Type == "" || seen[n.Type] {
			continue
		}
		seen[n.Type] = true
		types = append(types, n.Type)
	}
	return types
}

// DisplayName falls back to the signature for unnamed workflows.
func (w *TopWorkflow) DisplayName() string {
	if w.WorkflowName != "" {
		return w.WorkflowName
	}
	return w.Signature
}
