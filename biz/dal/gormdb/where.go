package gormdb

import (
	"fmt"
	"strings"

	"doing_now/authdb/biz/adapter"

	"gorm.io/gorm/clause"
)

// buildWhere groups AND clauses with a single parenthesized OR group, matching
// the memory backend's semantics.
func buildWhere(where []adapter.CleanedWhere) []clause.Expression {
	var ands, ors []clause.Expression
	for _, w := range where {
		e := expression(w)
		if e == nil {
			continue
		}
		if w.Connector == adapter.ConnectorOr {
			ors = append(ors, e)
		} else {
			ands = append(ands, e)
		}
	}
	switch len(ors) {
	case 0:
	case 1:
		ands = append(ands, ors[0])
	default:
		ands = append(ands, clause.OrConditions{Exprs: ors})
	}
	return ands
}

func expression(w adapter.CleanedWhere) clause.Expression {
	col := clause.Column{Name: w.Field}
	switch w.Operator {
	case adapter.OpNe:
		return clause.Neq{Column: col, Value: w.Value}
	case adapter.OpLt:
		return clause.Lt{Column: col, Value: w.Value}
	case adapter.OpLte:
		return clause.Lte{Column: col, Value: w.Value}
	case adapter.OpGt:
		return clause.Gt{Column: col, Value: w.Value}
	case adapter.OpGte:
		return clause.Gte{Column: col, Value: w.Value}
	case adapter.OpIn:
		values, _ := w.Value.([]any)
		return clause.IN{Column: col, Values: values}
	case adapter.OpNotIn:
		values, _ := w.Value.([]any)
		if len(values) == 0 {
			return nil
		}
		return clause.Not(clause.IN{Column: col, Values: values})
	case adapter.OpContains:
		return like(col, "%"+escapeLike(w.Value)+"%")
	case adapter.OpStartsWith:
		return like(col, escapeLike(w.Value)+"%")
	case adapter.OpEndsWith:
		return like(col, "%"+escapeLike(w.Value))
	}
	return clause.Eq{Column: col, Value: w.Value}
}

// likeEscape must read as one character in every dialect's string literals.
const likeEscape = "!"

var likeEscaper = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

// escapeLike makes the value match literally inside a LIKE pattern.
func escapeLike(v any) string {
	return likeEscaper.Replace(fmt.Sprint(v))
}

func like(col clause.Column, pattern string) clause.Expression {
	return clause.Expr{SQL: "? LIKE ? ESCAPE '" + likeEscape + "'", Vars: []any{col, pattern}}
}
