// Package service implements the task and expense operations on top of the
// row store. Every call receives the signed-in user's session explicitly and
// only touches rows that user owns.
package service

import (
	"errors"
	"log"
	"strings"

	"github.com/nhle/kaizen/internal/model"
	"github.com/nhle/kaizen/internal/ordering"
)

// requireSession rejects calls made without a signed-in user.
func requireSession(sess model.Session) error {
	if strings.TrimSpace(sess.UserID) == "" {
		return ordering.Invalid("session", "not signed in")
	}
	return nil
}

// logFailure records an operation failure. Validation failures are caller
// errors and are not logged.
func logFailure(op string, err error) error {
	if err != nil && !errors.Is(err, ordering.ErrValidation) {
		log.Printf("%s: %v", op, err)
	}
	return err
}
