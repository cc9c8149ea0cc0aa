package common

import (
	"errors"

	"auction-market/domain"
)

func IsRecordNotFound(err error) bool {
	return errors.Is(err, domain.ErrRecordNotFound)
}

// IsDetailError finds the first DetailedError in err's chain.
func IsDetailError(err error) (*domain.DetailedError, bool) {
	var de *domain.DetailedError
	if errors.As(err, &de) {
		return de, true
	}
	var dv domain.DetailedError
	if errors.As(err, &dv) {
		return &dv, true
	}
	return nil, false
}
