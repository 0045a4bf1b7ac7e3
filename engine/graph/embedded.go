package graph

// EmbeddedNodes decodes the node list stored under key in a synthesized
// node's config (PARALLEL "nodes", COMPOSITE "steps"). Malformed entries are skipped.
func EmbeddedNodes(cfg map[string]any, key string) []Node {
	var items []map[string]any
	switch v := cfg[key].(type) {
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				items = append(items, m)
			}
		}
	case []map[string]any:
		items = v
	}
	nodes := make([]Node, 0, len(items))
	for _, m := range items {
		id, _ := m["node_id"].(string)
		nodeType, _ := m["node_type"].(string)
		if id == "" {
			continue
		}
		nodeCfg, _ := m["config"].(map[string]any)
		nodes = append(nodes, Node{ID: id, Type: nodeType, Config: nodeCfg})
	}
	return nodes
}
