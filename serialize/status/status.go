/*
Package status is the signed acknowledgement a node answers after a
connection block, telling the sender whether the beam is alive.

All integers are big-endian.

Status
+-----------+---------+----------------+
|  Version  |  State  |      Time      |
+-----------+-+-------+----------------+
|  PubL       |          Pub           |
+-------------+------------------------+
|  SigL       |          Sig           |
+-------------+------------------------+
(bytes)
Version         1
State           1
Time            8
Pub length      2
Pub             -
Sig length      2
Sig             -

The signature covers every field before Sig.
*/
package status

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/996BC/996.Mesh/utils"
)

const (
	// StatusV1 is the version 1 of the acknowledgement
	StatusV1 = 1

	StateConnected = uint8(1)
	StateClosed    = uint8(2)
)

var ErrInvalidStatus = errors.New("status: malformed")

type Status struct {
	Version uint8
	State   uint8
	Time    int64
	Pub     []byte
	Sig     []byte
}

func NewStatusV1(state uint8, pub []byte) *Status {
	return &Status{
		Version: StatusV1,
		State:   state,
		Time:    time.Now().Unix(),
		Pub:     pub,
	}
}

func UnmarshalStatus(data io.Reader) (*Status, error) {
	result := &Status{}
	var pubLen uint16
	var sigLen uint16
	var err error

	if err = binary.Read(data, binary.BigEndian, &result.Version); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}
	if result.Version != StatusV1 {
		return nil, fmt.Errorf("%w: unknown version %d", ErrInvalidStatus, result.Version)
	}
	if err = binary.Read(data, binary.BigEndian, &result.State); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}
	if err = binary.Read(data, binary.BigEndian, &result.Time); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}

	if err = binary.Read(data, binary.BigEndian, &pubLen); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}
	result.Pub = make([]byte, pubLen)
	if _, err = io.ReadFull(data, result.Pub); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}

	if err = binary.Read(data, binary.BigEndian, &sigLen); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}
	result.Sig = make([]byte, sigLen)
	if _, err = io.ReadFull(data, result.Sig); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}

	return result, nil
}

func (s *Status) Marshal() []byte {
	result := new(bytes.Buffer)
	s.writeContent(result)

	binary.Write(result, binary.BigEndian, utils.Uint16Len(s.Sig))
	result.Write(s.Sig)

	return result.Bytes()
}

// SignContent returns the bytes covered by Sig
func (s *Status) SignContent() []byte {
	buf := utils.GetBuf()
	defer utils.ReturnBuf(buf)

	s.writeContent(buf)
	return append([]byte{}, buf.Bytes()...)
}

func (s *Status) writeContent(buf *bytes.Buffer) {
	binary.Write(buf, binary.BigEndian, s.Version)
	binary.Write(buf, binary.BigEndian, s.State)
	binary.Write(buf, binary.BigEndian, s.Time)

	binary.Write(buf, binary.BigEndian, utils.Uint16Len(s.Pub))
	buf.Write(s.Pub)
}

func (s *Status) IsConnected() bool {
	return s.State == StateConnected
}

func (s *Status) String() string {
	state := "CLOSED"
	if s.IsConnected() {
		state = "CONNECTED"
	}
	return fmt.Sprintf("Version %d State %s Time %s Pub %s",
		s.Version, state, utils.TimeToString(s.Time), utils.ShortHex(s.Pub))
}
