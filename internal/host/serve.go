package host

import (
	"bufio"
	"context"
	"errors"
	"io"
)

const bufferSize = 1 << 16

// Serve reads framed requests from r and writes one framed response per
// request to w until EOF (Chrome closing the pipe) or a transport error.
// Request handling errors never terminate the loop; they are answered
// in-band.
func (h *Handler) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReaderSize(r, bufferSize)
	writer := bufio.NewWriterSize(w, bufferSize)

	for {
		payload, err := ReadFrame(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		resp := h.Handle(ctx, payload)

		if err := WriteFrame(writer, resp); err != nil {
			return err
		}
	}
}
