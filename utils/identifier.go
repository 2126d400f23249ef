package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedID is returned when a stored record id does not follow the
// prefix + zero-padded number scheme and the next id cannot be derived.
var ErrMalformedID = errors.New("malformed record id")

// NextSequentialID derives the next human-readable id for a record class
// (P001 for patients, D001 for doctors, A001 for appointments). lastID is
// the highest id currently stored, or empty when the class has no records
// yet. A malformed lastID fails with ErrMalformedID rather than producing
// a colliding or garbage id; uniqueness further relies on the caller
// holding the per-class allocation lock across read and insert.
func NextSequentialID(prefix, lastID string) (string, error) {
	if lastID == "" {
		return fmt.Sprintf("%s%03d", prefix, 1), nil
	}
	if !strings.HasPrefix(lastID, prefix) {
		return "", errors.Wrapf(ErrMalformedID, "id %q does not carry prefix %q", lastID, prefix)
	}
	number, err := strconv.Atoi(lastID[len(prefix):])
	if err != nil {
		return "", errors.Wrapf(ErrMalformedID, "id %q has a non-numeric suffix", lastID)
	}
	return fmt.Sprintf("%s%03d", prefix, number+1), nil
}
