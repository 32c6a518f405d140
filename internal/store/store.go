// Package store maps the FreeRADIUS tables onto the NAS and user resources.
package store

import (
	"errors"

	"gorm.io/gorm"
)

// Sentinel errors returned by the stores.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrNoChanges    = errors.New("no changes made")
	ErrInvalidTable = errors.New("table must be either \"radcheck\" or \"radreply\"")
)

// ListOptions filters and pages list queries. Zero Limit returns every row.
type ListOptions struct {
	Search string
	Limit  int
	Offset int
}

func (o ListOptions) paginate(q *gorm.DB) *gorm.DB {
	if o.Limit > 0 {
		q = q.Limit(o.Limit)
		if o.Offset > 0 {
			q = q.Offset(o.Offset)
		}
	}
	return q
}
