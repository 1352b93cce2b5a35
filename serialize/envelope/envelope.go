/*
Package envelope is the canonical codec of the signed envelope wrapping a block.
It does no cryptography, signing and verification live in the transfer package.

All integers are big-endian.

Envelope
+---------+-----------------------+
|  Flags  |                       |
+---------+-+---------------------+
|  PubL     |       Pub           |
+-----------+---------------------+
|  SigL     |       Sig           |
+-----------+---------------------+
|  DataL          |     Data      |
+-----------+-----+---------------+
|  TargetL  |       Target        |
+-----------+---------------------+
|  [Cmd]                          |
+-----------+---------------------+
|  [CSigL]  |      [CSig]         |
+-----------+---------------------+
|  [CPubL]  |      [CPub]         |
+-----------+---------------------+
(bytes)
Flags               1
Pub length          2
Pub                 -
Sig length          2
Sig                 -
Data length         4
Data                -
Target length       2
Target              -
Cmd                 4   present when Flags & 0x01
CSig length         2   present when Flags & 0x02
CSig                -
CPub length         2   present when Flags & 0x04
CPub                -

The command group is all or nothing, Flags is either 0x00 or 0x07.
*/
package envelope

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/996BC/996.Mesh/params"
	"github.com/996BC/996.Mesh/utils"
)

const (
	flagCmd  = uint8(0x01)
	flagCSig = uint8(0x02)
	flagCPub = uint8(0x04)

	flagCommandGroup = flagCmd | flagCSig | flagCPub
)

// Command is the instruction a second identity layers over an envelope
type Command struct {
	Cmd  params.Cmd
	CSig []byte
	CPub []byte
}

// Envelope is the wire record of a packed block.
// Command is nil when no command group is attached.
type Envelope struct {
	Pub     []byte
	Sig     []byte
	Data    []byte
	Target  []byte
	Command *Command
}

// WithoutCommand returns a shallow copy with the command group removed
func (e *Envelope) WithoutCommand() *Envelope {
	return &Envelope{
		Pub:    e.Pub,
		Sig:    e.Sig,
		Data:   e.Data,
		Target: e.Target,
	}
}

// WithCommand returns a shallow copy carrying c
func (e *Envelope) WithCommand(c *Command) *Envelope {
	result := e.WithoutCommand()
	result.Command = c
	return result
}

func (e *Envelope) String() string {
	if e.Command == nil {
		return fmt.Sprintf("Pub %s Data %d bytes Target %s",
			utils.ShortHex(e.Pub), len(e.Data), utils.ShortHex(e.Target))
	}
	return fmt.Sprintf("Pub %s Data %d bytes Target %s Cmd %v CPub %s",
		utils.ShortHex(e.Pub), len(e.Data), utils.ShortHex(e.Target),
		e.Command.Cmd, utils.ShortHex(e.Command.CPub))
}

func Serialize(e *Envelope) ([]byte, error) {
	if err := checkLen("pub", e.Pub, math.MaxUint16); err != nil {
		return nil, err
	}
	if err := checkLen("sig", e.Sig, math.MaxUint16); err != nil {
		return nil, err
	}
	if err := checkLen("data", e.Data, math.MaxUint32); err != nil {
		return nil, err
	}
	if err := checkLen("target", e.Target, math.MaxUint16); err != nil {
		return nil, err
	}

	flags := uint8(0)
	if e.Command != nil {
		if err := checkLen("csig", e.Command.CSig, math.MaxUint16); err != nil {
			return nil, err
		}
		if err := checkLen("cpub", e.Command.CPub, math.MaxUint16); err != nil {
			return nil, err
		}
		flags = flagCommandGroup
	}

	result := new(bytes.Buffer)
	result.WriteByte(flags)

	binary.Write(result, binary.BigEndian, utils.Uint16Len(e.Pub))
	result.Write(e.Pub)

	binary.Write(result, binary.BigEndian, utils.Uint16Len(e.Sig))
	result.Write(e.Sig)

	binary.Write(result, binary.BigEndian, utils.Uint32Len(e.Data))
	result.Write(e.Data)

	binary.Write(result, binary.BigEndian, utils.Uint16Len(e.Target))
	result.Write(e.Target)

	if e.Command != nil {
		binary.Write(result, binary.BigEndian, uint32(e.Command.Cmd))

		binary.Write(result, binary.BigEndian, utils.Uint16Len(e.Command.CSig))
		result.Write(e.Command.CSig)

		binary.Write(result, binary.BigEndian, utils.Uint16Len(e.Command.CPub))
		result.Write(e.Command.CPub)
	}

	return result.Bytes(), nil
}

func checkLen(field string, data []byte, max uint64) error {
	if uint64(len(data)) > max {
		return fmt.Errorf("%w: %s length %d exceeds %d", ErrEncoding, field, len(data), max)
	}
	return nil
}

// Deserialize decodes exactly one envelope, trailing bytes are rejected
func Deserialize(data []byte) (*Envelope, error) {
	r := &reader{data: data}
	result := &Envelope{}

	flags, err := r.readFlags()
	if err != nil {
		return nil, err
	}
	if flags != 0 && flags != flagCommandGroup {
		return nil, fmt.Errorf("%w: invalid flags 0x%02X", ErrMalformedEnvelope, flags)
	}

	if result.Pub, err = r.bytes16("pub"); err != nil {
		return nil, err
	}
	if result.Sig, err = r.bytes16("sig"); err != nil {
		return nil, err
	}
	if result.Data, err = r.bytes32("data"); err != nil {
		return nil, err
	}
	if result.Target, err = r.bytes16("target"); err != nil {
		return nil, err
	}

	if flags == flagCommandGroup {
		cmd := &Command{}
		code, err := r.readCmd()
		if err != nil {
			return nil, err
		}
		cmd.Cmd = params.Cmd(code)
		if cmd.CSig, err = r.bytes16("csig"); err != nil {
			return nil, err
		}
		if cmd.CPub, err = r.bytes16("cpub"); err != nil {
			return nil, err
		}
		result.Command = cmd
	}

	if r.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedEnvelope, r.remaining())
	}
	return result, nil
}

// reader checks every length against the remaining input before slicing
type reader struct {
	data []byte
	off  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) take(field string, n int) ([]byte, error) {
	if n > r.remaining() {
		return nil, fmt.Errorf("%w: %s needs %d bytes, %d left",
			ErrMalformedEnvelope, field, n, r.remaining())
	}
	result := r.data[r.off : r.off+n]
	r.off += n
	return result, nil
}

func (r *reader) readFlags() (uint8, error) {
	b, err := r.take("flags", 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) readCmd() (uint32, error) {
	b, err := r.take("cmd", 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *reader) bytes16(field string) ([]byte, error) {
	l, err := r.take(field+" length", 2)
	if err != nil {
		return nil, err
	}
	return r.field(field, int(binary.BigEndian.Uint16(l)))
}

func (r *reader) bytes32(field string) ([]byte, error) {
	l, err := r.take(field+" length", 4)
	if err != nil {
		return nil, err
	}
	n := uint64(binary.BigEndian.Uint32(l))
	if n > uint64(r.remaining()) {
		return nil, fmt.Errorf("%w: %s needs %d bytes, %d left",
			ErrMalformedEnvelope, field, n, r.remaining())
	}
	return r.field(field, int(n))
}

func (r *reader) field(name string, n int) ([]byte, error) {
	b, err := r.take(name, n)
	if err != nil {
		return nil, err
	}
	result := make([]byte, n)
	copy(result, b)
	return result, nil
}
