package types

// SchemaView is the serialized form of an inferred collection schema.
type SchemaView struct {
	Count  int64       `json:"count"`  // Documents ingested
	Fields []FieldView `json:"fields"` // First-seen order
}

// FieldView describes one field path.
type FieldView struct {
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	Count       int64      `json:"count"`       // Documents containing the path
	Probability float64    `json:"probability"` // Count / parent count
	Types       []TypeView `json:"types"`
}

// TypeView describes one kind observed at a field path.
type TypeView struct {
	Name        string  `json:"name"`     // Kind name, e.g. "ObjectId"
	BSONType    string  `json:"bsonType"` // $type alias, e.g. "objectId"
	Path        string  `json:"path"`
	Count       int64   `json:"count"`
	Probability float64 `json:"probability"` // Count / field count
	Values      []any   `json:"values"`      // Extended JSON samples
}

// CollectionInfo summarizes one collection known to the server.
type CollectionInfo struct {
	Name          string `json:"name"`
	DocumentCount int64  `json:"document_count"`
	FieldCount    int    `json:"field_count"`
}

// IngestOutput is the output of docschema_ingest.
type IngestOutput struct {
	Collection    string `json:"collection"`
	Ingested      int    `json:"ingested"`       // Documents added by this call
	DocumentCount int64  `json:"document_count"` // Documents in the collection after the call
	FieldCount    int    `json:"field_count"`
	Created       bool   `json:"created,omitempty"` // Collection did not exist before
}

// SnapshotOutput is the output of docschema_snapshot.
type SnapshotOutput struct {
	Collection string      `json:"collection"`
	Schema     *SchemaView `json:"schema,omitempty"`
	JSONSchema any         `json:"json_schema,omitempty"` // Draft 2020-12 document as a JSON object
}

// CollectionsOutput is the output of docschema_collections.
type CollectionsOutput struct {
	Collections []CollectionInfo `json:"collections,omitzero"`
	Capacity    int              `json:"capacity"` // Collections kept before eviction
}

// DropOutput is the output of docschema_drop.
type DropOutput struct {
	Collection string `json:"collection"`
	Dropped    bool   `json:"dropped"`
}
