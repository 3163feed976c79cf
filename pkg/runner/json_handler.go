package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// JSONHandler speaks JSON Lines: one Command object per input line, one
// Reply object per output line.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Read(ctx context.Context) (Command, error) {
	for {
		line, err := readLine(ctx, h.Reader)
		if err != nil {
			return Command{}, err
		}
		if line == "" {
			continue
		}

		var cmd Command
		if err := json.Unmarshal([]byte(line), &cmd); err != nil {
			return Command{}, fmt.Errorf("%w: %v", ErrBadCommand, err)
		}
		if cmd.Op == "" {
			return Command{}, fmt.Errorf("%w: missing op", ErrBadCommand)
		}
		return cmd, nil
	}
}

func (h *JSONHandler) Write(ctx context.Context, reply Reply) error {
	return h.Encoder.Encode(reply)
}

// readLine returns the next sanitized line. A final line without a
// newline is still returned; io.EOF follows on the next call.
func readLine(ctx context.Context, r *bufio.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if errors.Is(err, io.EOF) && strings.TrimSpace(text) == "" {
		return "", io.EOF
	}
	line, serr := SanitizeLine(text)
	if serr != nil {
		return "", fmt.Errorf("%w: %v", ErrBadCommand, serr)
	}
	return line, nil
}
