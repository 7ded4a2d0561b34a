// Package framing moves discrete messages over a connected byte stream.
//
// Each frame is a 4-byte big-endian unsigned payload length followed by
// exactly that many payload bytes. There is no type byte, checksum or
// acknowledgement.
package framing

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// headerLength is the size of the length prefix.
const headerLength = 4

// DefaultMaxFrameSize bounds the payload buffer Receive is willing to
// allocate for a single frame.
const DefaultMaxFrameSize = 16 * 1024 * 1024

var (
	// ErrWrite reports a failed or partial write of a header or payload.
	ErrWrite = errors.New("framing: write failed")
	// ErrConnectionClosed reports a clean end of stream before a new frame.
	ErrConnectionClosed = errors.New("framing: connection closed")
	// ErrIO reports a failed or partial read of the length prefix.
	ErrIO = errors.New("framing: read failed")
	// ErrAllocation reports a length prefix larger than the receiver accepts.
	ErrAllocation = errors.New("framing: frame too large")
	// ErrTruncatedMessage reports a payload that ended before its declared length.
	ErrTruncatedMessage = errors.New("framing: truncated message")
)

// Send writes one frame carrying payload to w. Both the header and the
// payload must be written in full.
func Send(w io.Writer, payload []byte) error {
	if uint64(len(payload)) > uint64(^uint32(0)) {
		return fmt.Errorf("%w: payload of %d bytes exceeds frame limit", ErrWrite, len(payload))
	}
	var header [headerLength]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if err := writeAll(w, header[:]); err != nil {
		return fmt.Errorf("%w: header: %v", ErrWrite, err)
	}
	if err := writeAll(w, payload); err != nil {
		return fmt.Errorf("%w: payload: %v", ErrWrite, err)
	}
	return nil
}

// SendString is Send for text payloads.
func SendString(w io.Writer, payload string) error {
	return Send(w, []byte(payload))
}

// Receive reads one frame from r using DefaultMaxFrameSize.
func Receive(r io.Reader) ([]byte, error) {
	return ReceiveLimit(r, DefaultMaxFrameSize)
}

// ReceiveLimit reads one frame from r, refusing payloads above maxSize.
// An ErrAllocation leaves the stream positioned after the header, so callers
// should drop the connection.
func ReceiveLimit(r io.Reader, maxSize uint32) ([]byte, error) {
	var header [headerLength]byte
	n, err := io.ReadFull(r, header[:])
	if err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return nil, ErrConnectionClosed
		}
		return nil, fmt.Errorf("%w: header (%d of %d bytes): %v", ErrIO, n, headerLength, err)
	}

	length := binary.BigEndian.Uint32(header[:])
	if maxSize > 0 && length > maxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds maximum %d", ErrAllocation, length, maxSize)
	}

	payload := make([]byte, length)
	if length == 0 {
		return payload, nil
	}
	n, err = io.ReadFull(r, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: got %d of %d bytes: %v", ErrTruncatedMessage, n, length, err)
	}
	return payload, nil
}

func writeAll(w io.Writer, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	n, err := w.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return io.ErrShortWrite
	}
	return nil
}
