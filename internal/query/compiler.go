package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/domain"
)

// likeEscaper escapes LIKE metacharacters so user input matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Compile turns a list query into a plan for descriptor d. It is pure: the
// same input always yields the same plan and the same SQL.
func Compile(d *Descriptor, q domain.ListQuery) (Plan, error) {
	if err := q.Validate(); err != nil {
		return Plan{}, err
	}

	p := newPlan(d, d.Columns)
	p.Where = append(p.Where, presence(d, q.View))

	if g := strings.TrimSpace(q.GlobalFilter); g != "" {
		pred, joins := globalPredicate(d, g)
		p.Where = append(p.Where, pred)
		p.addMatchJoins(joins...)
	}

	for _, f := range q.Filters {
		c, ok := d.Column(f.Column)
		if !ok {
			return Plan{}, invalid("unknown filter column %q", f.Column)
		}
		if !c.Filterable() {
			return Plan{}, invalid("column %q is not filterable", f.Column)
		}
		pred, err := columnPredicate(d, c, f.Value)
		if err != nil {
			return Plan{}, err
		}
		p.Where = append(p.Where, pred)
		if c.Join != "" {
			p.addMatchJoins(c.Join)
		}
	}

	order, err := orderBy(d, q.Sorting)
	if err != nil {
		return Plan{}, err
	}
	p.OrderBy = order
	p.Offset = uint64(q.Start)
	p.Limit = uint64(q.Size)

	return p, nil
}

// Snapshot returns the plan of a full export: active records only, default
// order, no pagination, heavy columns excluded.
func Snapshot(d *Descriptor) Plan {
	p := newPlan(d, d.ExportColumns())
	p.Where = append(p.Where, presence(d, domain.ViewActive))
	p.OrderBy, _ = orderBy(d, nil)
	return p
}

// presence is the base predicate selecting the view's lifecycle state.
func presence(d *Descriptor, v domain.DeleteView) sq.Sqlizer {
	col := d.Table + ".deleted_at"
	if v.State() == domain.StateTrashed {
		return sq.NotEq{col: nil}
	}
	return sq.Eq{col: nil}
}

// globalPredicate ORs substring matches over the descriptor's search columns.
// Numeric columns match exactly and are dropped when g is not a number, and
// integer columns also when g has a fractional part.
func globalPredicate(d *Descriptor, g string) (sq.Sqlizer, []string) {
	var (
		or    sq.Or
		joins []string
	)
	num, numErr := strconv.ParseFloat(g, 64)
	for _, id := range d.Search {
		c, _ := d.Column(id)
		switch c.Kind {
		case KindNumber:
			if numErr != nil {
				continue
			}
			or = append(or, sq.Eq{d.field(c): num})
		case KindInteger:
			n, ok := integral(num, numErr)
			if !ok {
				continue
			}
			or = append(or, sq.Eq{d.field(c): n})
		default:
			or = append(or, substring(d.field(c), g))
		}
		if c.Join != "" {
			joins = append(joins, c.Join)
		}
	}
	if len(or) == 0 {
		return sq.Expr("1 = 0"), nil
	}
	return or, joins
}

func columnPredicate(d *Descriptor, c Column, value string) (sq.Sqlizer, error) {
	switch c.Kind {
	case KindNumber, KindInteger:
		num, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, invalid("filter value %q for column %q is not a number", value, c.ID)
		}
		if c.Kind == KindNumber {
			return sq.Eq{d.field(c): num}, nil
		}
		n, ok := integral(num, nil)
		if !ok {
			return sq.Expr("1 = 0"), nil
		}
		return sq.Eq{d.field(c): n}, nil
	}
	return substring(d.field(c), value), nil
}

// integral reports num as an int64 when it parsed and has no fractional part.
func integral(num float64, parseErr error) (int64, bool) {
	if parseErr != nil || math.IsInf(num, 0) || math.IsNaN(num) || num != math.Trunc(num) {
		return 0, false
	}
	if num < math.MinInt64 || num >= math.MaxInt64 {
		return 0, false
	}
	return int64(num), true
}

func substring(expr, value string) sq.Sqlizer {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(value)) + "%"
	return sq.Expr("LOWER("+expr+`) LIKE ? ESCAPE '\'`, pattern)
}

func orderBy(d *Descriptor, sorting []domain.SortColumn) ([]string, error) {
	order := make([]string, 0, len(sorting)+1)
	byID := false
	for _, s := range sorting {
		c, ok := d.Column(s.Column)
		if !ok {
			return nil, invalid("unknown sort column %q", s.Column)
		}
		if !c.Sortable() {
			return nil, invalid("column %q is not sortable", s.Column)
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		order = append(order, d.field(c)+" "+dir)
		if c.ID == "id" {
			byID = true
		}
	}
	if len(order) == 0 {
		order = append(order, d.Table+".created_at DESC")
	}
	if !byID {
		order = append(order, d.Table+".id ASC")
	}
	return order, nil
}

func invalid(format string, args ...any) error {
	return domain.NewAppError(domain.CodeInvalidOperation, fmt.Sprintf(format, args...), nil)
}
