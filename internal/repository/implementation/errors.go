package implementation

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"

	"swift-ai-market/pkg/apperr"
)

// storeError marks connectivity failures as apperr.ErrStoreUnavailable so the
// session layer can retry them. Query and constraint errors pass through.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	switch {
	case errors.As(err, &netErr),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
	}
	return err
}
