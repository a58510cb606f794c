package database

import (
	"strings"

	"github.com/timeriffic/timeriffic/internal/keyspace"
)

// Filter selects rows of the profiles table. The zero value matches every
// row, ascending by order key. Each modifier narrows the selection; applying
// several is the same as ANDing them.
type Filter struct {
	id      *int64
	kind    RowKind
	min     *int64
	max     *int64
	enabled *bool
	desc    bool
	limit   int
}

// AllRows returns a filter matching every row.
func AllRows() Filter {
	return Filter{}
}

// ID confines the filter to the row with the given id.
func (f Filter) ID(id int64) Filter {
	f.id = &id
	return f
}

// Kind confines the filter to rows of kind k.
func (f Filter) Kind(k RowKind) Filter {
	f.kind = k
	return f
}

// Gte confines the filter to order keys >= key.
func (f Filter) Gte(key int64) Filter {
	if f.min == nil || key > *f.min {
		f.min = &key
	}
	return f
}

// Gt confines the filter to order keys > key.
func (f Filter) Gt(key int64) Filter {
	return f.Gte(key + 1)
}

// Lt confines the filter to order keys < key.
func (f Filter) Lt(key int64) Filter {
	if f.max == nil || key < *f.max {
		f.max = &key
	}
	return f
}

// In confines the filter to order keys inside r.
func (f Filter) In(r keyspace.Range) Filter {
	return f.Gte(r.Min).Lt(r.Max)
}

// Enabled confines the filter to rows whose enabled flag equals v.
func (f Filter) Enabled(v bool) Filter {
	f.enabled = &v
	return f
}

// Descending sorts by order key, largest first.
func (f Filter) Descending() Filter {
	f.desc = true
	return f
}

// Limit caps the number of rows returned by Query. Zero means no cap.
func (f Filter) Limit(n int) Filter {
	f.limit = n
	return f
}

func (f Filter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.id != nil {
		conds = append(conds, "id = ?")
		args = append(args, *f.id)
	}
	if f.kind != 0 {
		conds = append(conds, "kind = ?")
		args = append(args, int64(f.kind))
	}
	if f.min != nil {
		conds = append(conds, "order_key >= ?")
		args = append(args, *f.min)
	}
	if f.max != nil {
		conds = append(conds, "order_key < ?")
		args = append(args, *f.max)
	}
	if f.enabled != nil {
		conds = append(conds, "enabled = ?")
		args = append(args, boolToInt64(*f.enabled))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (f Filter) orderBy() string {
	if f.desc {
		return " ORDER BY order_key DESC, id DESC"
	}
	return " ORDER BY order_key ASC, id ASC"
}
