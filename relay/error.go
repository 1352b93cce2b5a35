package relay

import (
	"errors"
	"fmt"

	"github.com/996BC/996.Mesh/params"
)

// ErrNoHandler is returned for a verified command nobody handles
type ErrNoHandler struct {
	Cmd params.Cmd
}

func (e ErrNoHandler) Error() string {
	return fmt.Sprintf("no handler for cmd %v", e.Cmd)
}

var ErrPoolStopped = errors.New("relay pool stopped")

var ErrFrameTooLarge = errors.New("frame too large")
