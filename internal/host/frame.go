package host

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// Chrome native messaging framing: every message is a 4-byte little-endian
// length followed by a JSON payload. Chrome caps host-to-browser messages
// at 1 MiB.
const maxFrameSize = 1 << 20

// ReadFrame reads one length-prefixed JSON payload.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return nil, err
	}
	length := binary.LittleEndian.Uint32(lenBuf)
	if length > maxFrameSize {
		return nil, fmt.Errorf("frame too large: %d", length)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// WriteFrame serializes resp and writes it as one length-prefixed frame.
func WriteFrame(w *bufio.Writer, resp Response) error {
	encoded, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(len(encoded)))
	if _, err := w.Write(lenBuf); err != nil {
		return err
	}
	if _, err := w.Write(encoded); err != nil {
		return err
	}
	return w.Flush()
}
