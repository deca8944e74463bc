package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/YuminosukeSato/loanml/gateway"
	"github.com/YuminosukeSato/loanml/pkg/errors"
)

const maxLineBytes = 1 << 20

type call struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// serve answers one response line per non-blank input line until in is
// exhausted or ctx is cancelled.
func serve(ctx context.Context, gw *gateway.Gateway, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	w := bufio.NewWriter(out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var resp gateway.Response
		var c call
		if err := json.Unmarshal(line, &c); err != nil {
			resp = malformed(err)
		} else {
			resp = gw.Invoke(ctx, c.Name, c.Arguments)
		}

		if _, err := w.Write(append(resp.JSON(), '\n')); err != nil {
			return errors.Wrap(err, "write response")
		}
		if err := w.Flush(); err != nil {
			return errors.Wrap(err, "write response")
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "read call")
	}
	return nil
}

func malformed(err error) gateway.Response {
	return gateway.Response{
		Error: &gateway.ErrorDetail{
			Code:    errors.CodeInvalidArgument,
			Message: "call is not a JSON object of the form {\"name\": ..., \"arguments\": {...}}: " + err.Error(),
		},
	}
}
