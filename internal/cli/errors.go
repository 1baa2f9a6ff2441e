package cli

import (
	"errors"
	"io"

	"github.com/dmitrijs2005/gophportal/internal/common"
)

var errLoginRequired = errors.New("please log in first")

// describeErr turns a command error into the line shown to the user.
func describeErr(err error) string {
	switch {
	case errors.Is(err, errLoginRequired):
		return "Please log in first."
	case errors.Is(err, common.ErrAlreadyExists):
		return "Username already exists."
	case errors.Is(err, common.ErrUnauthorized):
		return "Invalid username or password."
	case errors.Is(err, common.ErrQuotaExhausted):
		return "No remaining queries. Ask an administrator to replenish your quota."
	case errors.Is(err, common.ErrBlacklisted):
		return "Search term contains a blacklisted keyword."
	case errors.Is(err, common.ErrStorageLocked):
		return "The database is busy, please try again later."
	case errors.Is(err, common.ErrNotFound):
		return "Not found."
	case errors.Is(err, common.ErrValidation):
		return "Invalid input: " + err.Error()
	case errors.Is(err, io.EOF):
		return "Input closed."
	default:
		return "Error: " + err.Error()
	}
}
