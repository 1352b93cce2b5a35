package relay

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/996BC/996.Mesh/params"
	"github.com/996BC/996.Mesh/utils"
)

/*
Frames carry envelopes over a byte stream.

An inbound frame is

	+-----------+----------+
	| len:u32   | envelope |
	+-----------+----------+

an outbound frame names the next hop

	+-----------+--------+-----------+----------+
	| len:u16   | target | len:u32   | envelope |
	+-----------+--------+-----------+----------+
*/

// ReadFrame reads one inbound frame, io.EOF means the stream ended cleanly
func ReadFrame(r io.Reader) ([]byte, error) {
	var size uint32
	if err := binary.Read(r, binary.BigEndian, &size); err != nil {
		return nil, err
	}
	if size > params.MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}

	result := make([]byte, size)
	if _, err := io.ReadFull(r, result); err != nil {
		return nil, fmt.Errorf("read frame body failed: %w", io.ErrUnexpectedEOF)
	}
	return result, nil
}

// WriteFrame writes one inbound frame
func WriteFrame(w io.Writer, packed []byte) error {
	if len(packed) > params.MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(packed))
	}
	buf := utils.GetBuf()
	defer utils.ReturnBuf(buf)

	binary.Write(buf, binary.BigEndian, utils.Uint32Len(packed))
	buf.Write(packed)
	_, err := w.Write(buf.Bytes())
	return err
}

// FramePublisher is a Publisher writing outbound frames to a stream
type FramePublisher struct {
	mu sync.Mutex
	w  io.Writer
}

func NewFramePublisher(w io.Writer) *FramePublisher {
	return &FramePublisher{w: w}
}

func (f *FramePublisher) Publish(target []byte, packed []byte) error {
	if len(target) > math.MaxUint16 {
		return fmt.Errorf("%w: target %d bytes", ErrFrameTooLarge, len(target))
	}
	if len(packed) > params.MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(packed))
	}

	buf := utils.GetBuf()
	defer utils.ReturnBuf(buf)
	binary.Write(buf, binary.BigEndian, utils.Uint16Len(target))
	buf.Write(target)
	binary.Write(buf, binary.BigEndian, utils.Uint32Len(packed))
	buf.Write(packed)

	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.w.Write(buf.Bytes())
	return err
}

// ReadOutbound reads one frame written by FramePublisher
func ReadOutbound(r io.Reader) (target []byte, packed []byte, err error) {
	var tlen uint16
	if err = binary.Read(r, binary.BigEndian, &tlen); err != nil {
		return nil, nil, err
	}
	target = make([]byte, tlen)
	if _, err = io.ReadFull(r, target); err != nil {
		return nil, nil, io.ErrUnexpectedEOF
	}
	if packed, err = ReadFrame(r); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, nil, err
	}
	return target, packed, nil
}
