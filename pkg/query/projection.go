// Package query builds parameterized SQL from projection maps that relate
// Go field names to qualified table columns.
package query

import "strings"

// ProjectionMap maps field names to aliased columns of one table.
type ProjectionMap struct {
	schema  string
	table   string
	alias   string
	columns []string
	fields  map[string]string
	names   map[string]string
}

func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema: schema,
		table:  table,
		alias:  alias,
		fields: make(map[string]string),
		names:  make(map[string]string),
	}
}

// Project adds column under the given field name. Columns are selected in
// the order they are projected.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	qualified := p.alias + "." + column
	p.columns = append(p.columns, qualified)
	p.fields[field] = qualified
	p.names[strings.ToLower(field)] = field
	p.names[strings.ToLower(column)] = field
	return p
}

func (p *ProjectionMap) Alias() string {
	return p.alias
}

// Table returns "schema.table alias".
func (p *ProjectionMap) Table() string {
	return p.schema + "." + p.table + " " + p.alias
}

// Column returns the qualified column for field, or field itself when it
// is not projected.
func (p *ProjectionMap) Column(field string) string {
	if col, ok := p.fields[field]; ok {
		return col
	}
	return field
}

// Lookup resolves a client-supplied name to its projected field. Both the
// field name and the column name match, ignoring case, so "created_at" and
// "createdAt" resolve to "CreatedAt".
func (p *ProjectionMap) Lookup(name string) (string, bool) {
	field, ok := p.names[strings.ToLower(name)]
	return field, ok
}

// Has reports whether field is projected.
func (p *ProjectionMap) Has(field string) bool {
	_, ok := p.fields[field]
	return ok
}

func (p *ProjectionMap) Columns() string {
	return strings.Join(p.columns, ", ")
}

func (p *ProjectionMap) ColumnList() []string {
	out := make([]string, len(p.columns))
	copy(out, p.columns)
	return out
}
