package services

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/streamlink/internal/core/domain"
)

func isPlatformError(err error) bool {
	var perr *domain.PlatformError
	return errors.As(err, &perr)
}

// wrapPlatformAPI tags a raw platform failure with domain.ErrPlatformAPI unless it already carries a domain error.
func wrapPlatformAPI(err error) error {
	if errors.Is(err, domain.ErrPlatformAPI) ||
		errors.Is(err, domain.ErrRefreshFailed) ||
		errors.Is(err, domain.ErrReauthorizationRequired) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrPlatformAPI, err)
}
