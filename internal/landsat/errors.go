package landsat

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingMember is returned when an expected archive member cannot be found
	ErrMissingMember = errors.New("missing archive member")

	// ErrCountMismatch is returned when the archive does not hold exactly BandCount band tiles
	ErrCountMismatch = errors.New("band tile count mismatch")

	// ErrMissingCoefficient is returned when a calibration coefficient required by the band type is absent
	ErrMissingCoefficient = errors.New("missing calibration coefficient")
)

// MissingMemberError names the archive member that could not be found
type MissingMemberError struct {
	Archive string
	Member  string
}

func (e *MissingMemberError) Error() string {
	return fmt.Sprintf("archive '%s' has no member '%s'", e.Archive, e.Member)
}

func (e *MissingMemberError) Is(target error) bool {
	return target == ErrMissingMember
}

// CountMismatchError reports how many band tiles were found against the expected count
type CountMismatchError struct {
	Archive  string
	Found    int
	Expected int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("archive '%s' has %d band tiles, expected %d", e.Archive, e.Found, e.Expected)
}

func (e *CountMismatchError) Is(target error) bool {
	return target == ErrCountMismatch
}

// MissingCoefficientError names the band and the coefficient that is absent
type MissingCoefficientError struct {
	Band string
	Key  CoefficientKey
}

func (e *MissingCoefficientError) Error() string {
	return fmt.Sprintf("band %s: coefficient %s is missing", e.Band, e.Key)
}

func (e *MissingCoefficientError) Is(target error) bool {
	return target == ErrMissingCoefficient
}
