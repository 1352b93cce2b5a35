package params

import "fmt"

// Cmd is the instruction code carried by the command group of an envelope
type Cmd uint32

const (
	CmdBroadcast           = Cmd(1)
	CmdSynchronize         = Cmd(2)
	CmdHandshakeEncryption = Cmd(3)
)

func (c Cmd) String() string {
	switch c {
	case CmdBroadcast:
		return "BROADCAST"
	case CmdSynchronize:
		return "SYNCHRONIZE"
	case CmdHandshakeEncryption:
		return "HANDSHAKE_ENCRYPTION"
	default:
		return fmt.Sprintf("CMD(%d)", uint32(c))
	}
}

/////////////////////////////////////////////////////////////////

type CodeVersion uint16

const (
	// NodeVersionV1 starts from v1.0.0
	NodeVersionV1 = CodeVersion(1)
)

var CurrentCodeVersion = NodeVersionV1

////////////////////////////////////////////////////////////////

const (
	// MaxFrameSize bounds one envelope read from a stream, 16MB
	MaxFrameSize = 16 * 1024 * 1024
)

// PowSalt is the argon2 salt shared by every node of the network
var PowSalt = []byte("996.mesh/pow/v1")

// Bounds on the memory-hard hash cost, wider costs never meet any difficulty.
// MaxMCost is in KiB, 1 GiB.
const (
	MaxTCost = 64
	MaxMCost = 1 << 20
)

// Default cost class for new beam chains: 1 pass, 8 KiB, 1 lane, 32 bytes output
const (
	DefaultTCost   = 1
	DefaultMCost   = 8
	DefaultPCost   = 1
	DefaultNBits   = 8
	DefaultHashLen = 32
)
