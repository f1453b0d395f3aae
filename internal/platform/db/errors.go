package db

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

const errDuplicateEntry = 1062

// IsDuplicateKey reports a unique-index violation.
func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == errDuplicateEntry
	}
	return false
}
