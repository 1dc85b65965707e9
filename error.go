package probeview

import (
	"errors"
	"strings"
)

// updateErrors wraps errors of multiple channels failing in the same
// update.
type updateErrors []error

func (e updateErrors) Error() string {
	s := []string{}
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ",")
}

// Is checks if any of errors match provided sentinel error.
func (e updateErrors) Is(err error) bool {
	for _, se := range e {
		if errors.Is(se, err) {
			return true
		}
	}
	return false
}

// ret returns untyped nil if error list is empty.
func (e updateErrors) ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}
