package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	rlerrors "github.com/repolens/cli/errors"
)

const maxErrorBody = 4 << 10

// StatusError maps an HTTP status from the provider onto the error taxonomy.
func StatusError(op string, status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	switch {
	case status == http.StatusUnauthorized:
		return errors.Wrapf(rlerrors.NotAuthorized, "%s: %s", op, message)
	case status == http.StatusNotFound:
		return errors.Wrapf(rlerrors.NotFound, "%s: %s", op, message)
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= 500:
		return errors.Wrapf(rlerrors.Transient, "%s: status=%d %s", op, status, message)
	default:
		return errors.Wrapf(rlerrors.RemoteFault, "%s: status=%d %s", op, status, message)
	}
}

// CheckResponse returns nil for 2xx responses and a classified error
// otherwise. The body is drained for the provider's message.
func CheckResponse(op string, res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	var msg struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &msg) != nil || msg.Message == "" {
		msg.Message = strings.TrimSpace(string(body))
	}
	return StatusError(op, res.StatusCode, msg.Message)
}

// TransportError classifies a failure to reach the provider at all.
func TransportError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if rlerrors.Kind(err) != "internal" {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return errors.Wrapf(rlerrors.Transient, "%s: timed out", op)
	}
	return errors.Wrapf(rlerrors.Transient, "%s: %v", op, err)
}

// DecodeError marks a response body the provider should not have sent.
func DecodeError(op string, err error) error {
	return errors.Wrapf(rlerrors.RemoteFault, "%s: decode response: %v", op, err)
}

// StatusTransport turns non-2xx responses into classified errors at the
// transport level, for clients that do not expose the status code.
type StatusTransport struct {
	Op   string
	Base http.RoundTripper
}

func (t *StatusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	res, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if err := CheckResponse(t.Op, res); err != nil {
		res.Body.Close()
		return nil, err
	}
	return res, nil
}
