package transfer

import (
	"fmt"

	"github.com/996BC/996.Mesh/utils"
)

// ErrUnverified is returned by CheckVerified for an envelope failing verification
type ErrUnverified struct {
	Pub []byte
}

func (e ErrUnverified) Error() string {
	return fmt.Sprintf("envelope from %s failed verification", utils.ShortHex(e.Pub))
}
