package requests

// Nodes selects nodes of the current snapshot. Empty filters match all nodes.
type Nodes struct {
	// node types like post or regionfooter
	Types []string `json:"types"`
	// node ids
	IDs []string `json:"ids"`
	// strip placeholder sentinels before returning
	Clean bool `json:"clean"`
}
