//go:build !cgo

package viewer

import (
	"context"
	"errors"
)

func Run(_ context.Context, _ Options) error {
	return errors.New("viewer: window mode requires cgo (build/run with CGO_ENABLED=1)")
}
