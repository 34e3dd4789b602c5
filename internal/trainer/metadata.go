package trainer

import (
	"github.com/shpitdev/synthgen/internal/dataset"
	"github.com/shpitdev/synthgen/internal/schema"
)

// SemanticID marks an identifier column in trainer metadata.
const SemanticID = "id"

// ColumnMeta is the per-column entry of trainer metadata.
type ColumnMeta struct {
	SDType string `json:"sdtype"`
}

// Metadata describes a table to the trainer: a semantic type per column and an
// optional primary key.
type Metadata struct {
	Columns    map[string]ColumnMeta `json:"columns"`
	PrimaryKey string                `json:"primaryKey,omitempty"`
}

// Type returns the semantic type of column, or "" when unknown.
func (m Metadata) Type(column string) string {
	return m.Columns[column].SDType
}

func supportedSDType(t string) bool {
	return t == SemanticID || dataset.ColumnType(t).Valid()
}

// BuildMetadata detects column types from ds, then applies overrides from
// columnTypes. Overrides naming an unknown column or an unsupported type are
// ignored. When idCandidate names a column whose values are all distinct it is
// marked "id" and becomes the primary key; otherwise it keeps its type.
func BuildMetadata(ds dataset.Dataset, columnTypes map[string]dataset.ColumnType, idCandidate string) Metadata {
	md := Metadata{Columns: make(map[string]ColumnMeta, len(ds.Columns))}
	for c, t := range schema.Detect(ds) {
		md.Columns[c] = ColumnMeta{SDType: string(t)}
	}
	for c, t := range columnTypes {
		if !ds.HasColumn(c) || !supportedSDType(string(t)) {
			continue
		}
		md.Columns[c] = ColumnMeta{SDType: string(t)}
	}
	if id := schema.ConfirmID(ds, idCandidate); id != "" {
		md.Columns[id] = ColumnMeta{SDType: SemanticID}
		md.PrimaryKey = id
	}
	return md
}
