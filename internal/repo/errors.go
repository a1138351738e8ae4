package repo

import (
	"errors"

	"github.com/lib/pq"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

func pqCode(err error) (pq.ErrorCode, string) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code, pqErr.Constraint
	}
	return "", ""
}

func isDuplicateKeyError(err error) bool {
	code, _ := pqCode(err)
	return code == codeUniqueViolation
}

func isForeignKeyError(err error) bool {
	code, _ := pqCode(err)
	return code == codeForeignKeyViolation
}

func isCheckViolation(err error) bool {
	code, _ := pqCode(err)
	return code == codeCheckViolation
}

func violatedConstraint(err error) string {
	_, constraint := pqCode(err)
	return constraint
}
