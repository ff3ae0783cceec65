// Package repository holds the MySQL data access layer.  The sentinel
// errors below let handlers tell failure scenarios apart without looking
// at driver details.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/experiencias-arroyo/sierra-explora/internal/lifecycle"
)

// ErrNotFound is returned when the addressed row does not exist.
// Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller may not act on a row owned by
// someone else.  It is the lifecycle sentinel so errors.Is matches either
// source.  Handlers translate it into HTTP 403.
var ErrForbidden = lifecycle.ErrForbidden

// ErrConflict is returned when a write cannot proceed because of existing
// state.  Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when registering an email twice.
var ErrEmailExists = errors.New("email already exists")

// MySQL error numbers the repositories react to.
const (
	errDuplicateEntry = 1062
	errNoReferenced   = 1452
)

func mysqlErrno(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}
