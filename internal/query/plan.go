package query

import (
	"strconv"

	sq "github.com/Masterminds/squirrel"
)

// Plan is a compiled list query: match stage, join stages, sort stage,
// skip/limit and projection.
type Plan struct {
	Table string
	// Columns is the projection, in row order.
	Columns []Column
	// Joins are every join the projection needs.
	Joins []Join
	// MatchJoins are the joins the match stage reads; a subset of Joins.
	MatchJoins []Join
	Where      []sq.Sqlizer
	OrderBy    []string
	Offset     uint64
	// Limit 0 means unbounded.
	Limit uint64

	desc *Descriptor
}

func newPlan(d *Descriptor, cols []Column) Plan {
	p := Plan{Table: d.Table, Columns: cols, desc: d}
	for _, c := range cols {
		if c.Join == "" || containsJoin(p.Joins, c.Join) {
			continue
		}
		j, _ := d.join(c.Join)
		p.Joins = append(p.Joins, j)
	}
	return p
}

func (p *Plan) addMatchJoins(names ...string) {
	for _, name := range names {
		if containsJoin(p.MatchJoins, name) {
			continue
		}
		j, _ := p.desc.join(name)
		p.MatchJoins = append(p.MatchJoins, j)
		if !containsJoin(p.Joins, name) {
			p.Joins = append(p.Joins, j)
		}
	}
}

func (p Plan) projection() []string {
	out := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		out[i] = p.desc.field(c) + " AS " + strconv.Quote(c.ID)
	}
	return out
}

// SelectSQL renders the plan with '?' placeholders.
func (p Plan) SelectSQL() (string, []any, error) {
	b := sq.Select(p.projection()...).From(p.Table)
	for _, j := range p.Joins {
		b = b.LeftJoin(j.clause(p.Table))
	}
	b = b.Where(sq.And(p.Where)).OrderBy(p.OrderBy...)
	if p.Limit > 0 {
		b = b.Limit(p.Limit).Offset(p.Offset)
	}
	return b.ToSql()
}
