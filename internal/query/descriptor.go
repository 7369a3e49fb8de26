// Package query compiles table state into SQL list and count plans.
//
// A Descriptor is the only source of column and table identifiers; client
// input selects descriptor entries by id and never reaches the SQL text.
package query

import (
	"fmt"
	"slices"
)

// Kind classifies how a column is filtered and rendered.
type Kind int

const (
	// KindText columns take case-insensitive substring filters.
	KindText Kind = iota
	// KindNumber columns take exact numeric filters.
	KindNumber
	// KindTime columns are sortable but not filterable.
	KindTime
	// KindJSON columns are projected as decoded JSON and are neither
	// filterable nor sortable.
	KindJSON
	// KindBool columns are projected only.
	KindBool
	// KindInteger columns take exact integer filters. A term with a
	// fractional part matches nothing.
	KindInteger
)

// Column is one client-visible column of a resource.
type Column struct {
	// ID is the client column id and the projected row key.
	ID string
	// Field is the local column name. Empty when Join is set.
	Field string
	// Join names the join whose label this column projects.
	Join string
	Kind Kind
	// Heavy columns are left out of full exports.
	Heavy bool
}

// Filterable reports whether column filters and global search may target c.
func (c Column) Filterable() bool {
	return c.Kind == KindText || c.Kind == KindNumber || c.Kind == KindInteger
}

// Sortable reports whether c may appear in the sort stage.
func (c Column) Sortable() bool {
	return c.Kind != KindJSON
}

// Join surfaces a label owned by another table, e.g. a variant's product name.
// The list plan and the count plan read the same Join value.
type Join struct {
	Name         string
	SourceField  string
	ForeignTable string
	ForeignKey   string
	LabelField   string
}

func (j Join) alias() string {
	return "j_" + j.Name
}

func (j Join) label() string {
	return j.alias() + "." + j.LabelField
}

func (j Join) clause(table string) string {
	return fmt.Sprintf("%s AS %s ON %s.%s = %s.%s",
		j.ForeignTable, j.alias(), j.alias(), j.ForeignKey, table, j.SourceField)
}

// Descriptor defines one listable resource.
type Descriptor struct {
	// Name is the route segment, e.g. "variants".
	Name  string
	Table string
	// Columns are the projection allow-list, in export order.
	Columns []Column
	// Search lists the column ids the global filter targets.
	Search []string
	Joins  []Join
	// AssetField names the column holding the external asset key, for
	// resources whose permanent deletion must remove an external object.
	AssetField string
}

// Column returns the column with the given id.
func (d *Descriptor) Column(id string) (Column, bool) {
	for _, c := range d.Columns {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}

func (d *Descriptor) join(name string) (Join, bool) {
	for _, j := range d.Joins {
		if j.Name == name {
			return j, true
		}
	}
	return Join{}, false
}

// field returns the qualified SQL expression of c.
func (d *Descriptor) field(c Column) string {
	if c.Join != "" {
		j, _ := d.join(c.Join)
		return j.label()
	}
	return d.Table + "." + c.Field
}

// Validate checks the descriptor is internally consistent.
func (d *Descriptor) Validate() error {
	if d.Name == "" || d.Table == "" {
		return fmt.Errorf("descriptor requires name and table")
	}
	seen := make(map[string]bool, len(d.Columns))
	for _, c := range d.Columns {
		if c.ID == "" {
			return fmt.Errorf("%s: column with empty id", d.Name)
		}
		if seen[c.ID] {
			return fmt.Errorf("%s: duplicate column %q", d.Name, c.ID)
		}
		seen[c.ID] = true
		if (c.Field == "") == (c.Join == "") {
			return fmt.Errorf("%s: column %q must set exactly one of field or join", d.Name, c.ID)
		}
		if c.Join != "" {
			if _, ok := d.join(c.Join); !ok {
				return fmt.Errorf("%s: column %q references unknown join %q", d.Name, c.ID, c.Join)
			}
		}
	}
	for _, id := range []string{"id", "createdAt", "deletedAt"} {
		if !seen[id] {
			return fmt.Errorf("%s: missing required column %q", d.Name, id)
		}
	}
	for _, id := range d.Search {
		c, ok := d.Column(id)
		if !ok {
			return fmt.Errorf("%s: search column %q is not declared", d.Name, id)
		}
		if !c.Filterable() {
			return fmt.Errorf("%s: search column %q is not filterable", d.Name, id)
		}
	}
	return nil
}

// ExportColumns returns the columns included in a full export.
func (d *Descriptor) ExportColumns() []Column {
	cols := make([]Column, 0, len(d.Columns))
	for _, c := range d.Columns {
		if !c.Heavy {
			cols = append(cols, c)
		}
	}
	return cols
}

// ColumnIDs returns the ids of cols in order.
func ColumnIDs(cols []Column) []string {
	ids := make([]string, len(cols))
	for i, c := range cols {
		ids[i] = c.ID
	}
	return ids
}

func containsJoin(joins []Join, name string) bool {
	return slices.ContainsFunc(joins, func(j Join) bool { return j.Name == name })
}
