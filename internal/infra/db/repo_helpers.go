package db

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var errDBUnavailable = errors.New("db unavailable")

func newUUID() string {
	return uuid.NewString()
}

// placeholders returns "?, ?, ?" for n values.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
