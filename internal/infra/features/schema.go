// Package features transforms raw string rows plus an inferred schema into
// the dense numeric matrix, label vector, and feature-name ordering the
// rest of the engine trains and scores against. Schema inference itself is
// an external collaborator's job (CSV/XLSX parsing is out of scope); this
// package only consumes a declared Schema.
package features

// ColumnType classifies a source column for feature generation.
type ColumnType string

const (
	ColString      ColumnType = "string"
	ColInteger     ColumnType = "integer"
	ColNumber      ColumnType = "number"
	ColBoolean     ColumnType = "boolean"
	ColDate        ColumnType = "date"
	ColCurrency    ColumnType = "currency"
	ColCategorical ColumnType = "categorical"
)

// Schema maps column name to its declared type.
type Schema map[string]ColumnType

// IsNumeric reports whether t is treated as a z-scored numeric column.
func (t ColumnType) IsNumeric() bool {
	return t == ColInteger || t == ColNumber || t == ColCurrency
}
