package query

import (
	sq "github.com/Masterminds/squirrel"
)

// CountPlan counts the rows a list plan would return without pagination.
type CountPlan struct {
	Table string
	Joins []Join
	Where []sq.Sqlizer
}

// Reconcile derives the count plan of p. It keeps exactly the joins the
// match stage depends on, so a predicate on a joined label is evaluated the
// same way in both plans. Joins are LEFT JOINs on the foreign primary key and
// never multiply rows, so dropping the projection-only joins cannot change
// the count.
func Reconcile(p Plan) CountPlan {
	return CountPlan{
		Table: p.Table,
		Joins: append([]Join(nil), p.MatchJoins...),
		Where: p.Where,
	}
}

// SQL renders the count query with '?' placeholders.
func (c CountPlan) SQL() (string, []any, error) {
	b := sq.Select("COUNT(*)").From(c.Table)
	for _, j := range c.Joins {
		b = b.LeftJoin(j.clause(c.Table))
	}
	return b.Where(sq.And(c.Where)).ToSql()
}
