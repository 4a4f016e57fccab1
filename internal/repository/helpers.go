package repository

import (
	"database/sql"
	"errors"
)

// HandleNotFound turns sql.ErrNoRows into a nil result with no error, the
// convention for lookups where a missing row is an ordinary outcome.
//
//	var session model.Session
//	err := r.db.GetContext(ctx, &session, query, id, userID)
//	return HandleNotFound(&session, err)
func HandleNotFound[T any](result *T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// IsNotFound reports whether err means the caller owns no such session.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}
