// Package compile sends source code to a remote compile service.
//
// The service accepts the raw source text as the body of an HTTP POST
// and replies with a JSON [Response] describing the compile and run.
// [Client] never reports transport failures as errors:
// they're converted into a Response in the [PhaseClient] phase
// so that callers can render every outcome the same way.
package compile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"braces.dev/errtrace"
)

// Well-known phases reported by the compile service.
// Services may report other phases.
const (
	// PhaseClient marks responses synthesized by the client
	// because the request never reached the service,
	// or its reply couldn't be read.
	PhaseClient = "client"

	PhaseCompile = "compile"
	PhaseRun     = "run"
	PhaseServer  = "server"
)

// Response is the outcome of a compile request.
type Response struct {
	// OK reports whether the program compiled and ran successfully.
	OK bool `json:"ok"`

	// Phase is the phase in which the request finished.
	Phase string `json:"phase"`

	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`

	// ExitCode of the last process run by the service,
	// or -1 if no process ran.
	ExitCode int `json:"exitCode"`
}

func (r *Response) String() string {
	return fmt.Sprintf("ok=%v phase=%v exitCode=%d", r.OK, r.Phase, r.ExitCode)
}

// responseJSON mirrors Response, but distinguishes
// missing keys from zero values.
type responseJSON struct {
	OK       *bool   `json:"ok"`
	Phase    *string `json:"phase"`
	Stdout   string  `json:"stdout"`
	Stderr   string  `json:"stderr"`
	ExitCode *int    `json:"exitCode"`
}

// decodeResponse parses a JSON response body.
// The body must be a single JSON object
// with at least the ok, phase, and exitCode fields.
func decodeResponse(body []byte) (*Response, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		return nil, errtrace.Errorf("response is not a JSON object: %q", truncate(string(body), 80))
	}

	var r responseJSON
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, errtrace.Errorf("decode response: %w", err)
	}

	var missing []string
	if r.OK == nil {
		missing = append(missing, "ok")
	}
	if r.Phase == nil {
		missing = append(missing, "phase")
	}
	if r.ExitCode == nil {
		missing = append(missing, "exitCode")
	}
	if len(missing) > 0 {
		return nil, errtrace.Errorf("response is missing fields %q: %q", missing, truncate(string(body), 80))
	}

	return &Response{
		OK:       *r.OK,
		Phase:    *r.Phase,
		Stdout:   r.Stdout,
		Stderr:   r.Stderr,
		ExitCode: *r.ExitCode,
	}, nil
}

// DefaultAdvice is the troubleshooting text appended to
// client-side failures if [Client.Advice] is unset.
const DefaultAdvice = `Make sure the compile server is running on your computer
and is reachable from this device.
If the device is connected over USB, forward the server's port with:

    adb reverse tcp:5000 tcp:5000`

// ClientError builds the response reported when a request to url
// fails on the client side with err.
// advice, if non-empty, is appended as troubleshooting instructions.
func ClientError(url string, err error, advice string) *Response {
	var msg strings.Builder
	fmt.Fprintf(&msg, "Could not get a response from the compile server at %v:\n%v\n", url, err)
	if advice != "" {
		msg.WriteString("\n")
		msg.WriteString(advice)
		if !strings.HasSuffix(advice, "\n") {
			msg.WriteString("\n")
		}
	}

	return &Response{
		OK:       false,
		Phase:    PhaseClient,
		Stdout:   "",
		Stderr:   msg.String(),
		ExitCode: -1,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
