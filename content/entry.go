package content

// Entry one raw content record of a collection or region
type Entry map[string]interface{}

// ID the cockpit identifier of the entry, empty for region data
func (e Entry) ID() string {
	id, _ := e[KeyID].(string)
	return id
}

// Collection a cockpit collection or region with its schema and entries.
// All entries share the schema of their collection.
type Collection struct {
	Name    string  `json:"name"`
	Fields  Fields  `json:"fields"`
	Entries []Entry `json:"entries"`
}
