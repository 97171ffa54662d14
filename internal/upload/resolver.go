package upload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/terratrac/terratrac-go/internal/client"
)

// OutcomeKind classifies a settled submission.
type OutcomeKind int

const (
	Success OutcomeKind = iota + 1
	ValidationFailed
	NetworkFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case ValidationFailed:
		return "validation_failed"
	case NetworkFailed:
		return "network_failed"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of a submission. FileID is set for Success;
// Message is the text shown in the error panel otherwise.
type Outcome struct {
	Kind    OutcomeKind
	FileID  string
	Message string
	Err     error
}

// ErrMalformedResponse marks a 2xx reply without a usable file_id.
var ErrMalformedResponse = errors.New("malformed server response")

// Resolve classifies an ingestion reply.
func Resolve(resp *client.Response) Outcome {
	if resp == nil {
		return ResolveError(ErrMalformedResponse)
	}

	switch {
	case resp.OK():
		id, err := fileID(resp.Body)
		if err != nil {
			return ResolveError(err)
		}
		return Outcome{Kind: Success, FileID: id}

	case resp.StatusCode == http.StatusBadRequest:
		return Outcome{
			Kind:    ValidationFailed,
			Message: validationMessage(resp.Body),
			Err:     fmt.Errorf("server rejected file: %d", resp.StatusCode),
		}

	default:
		return ResolveError(&client.StatusError{StatusCode: resp.StatusCode, Body: string(resp.Body)})
	}
}

// ResolveError classifies a request that produced no usable reply.
func ResolveError(err error) Outcome {
	return Outcome{Kind: NetworkFailed, Message: GenericRetryMessage, Err: err}
}

// fileID extracts file_id, which the server sends as a number or a string.
func fileID(body []byte) (string, error) {
	var payload struct {
		FileID json.RawMessage `json:"file_id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	raw := bytes.TrimSpace(payload.FileID)
	if len(raw) == 0 || string(raw) == "null" {
		return "", fmt.Errorf("%w: missing file_id", ErrMalformedResponse)
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || strings.TrimSpace(s) == "" {
			return "", fmt.Errorf("%w: empty file_id", ErrMalformedResponse)
		}
		return s, nil
	}
	if _, err := strconv.ParseFloat(string(raw), 64); err != nil {
		return "", fmt.Errorf("%w: file_id is %s", ErrMalformedResponse, raw)
	}
	return string(raw), nil
}

// validationMessage picks the first server-provided error. The server
// answers with {errors: [...]}, {error: "..."} or a bare list.
func validationMessage(body []byte) string {
	var payload struct {
		Errors json.RawMessage `json:"errors"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := firstMessage(payload.Errors); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
	}
	// Objects without a usable errors or error key get the generic text.
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] != '{' {
		if msg := firstMessage(trimmed); msg != "" {
			return msg
		}
	}
	return GenericValidationMessage
}

// firstMessage renders the first element of a JSON list, or a lone string.
func firstMessage(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	switch raw[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return ""
		}
		return firstMessage(list[0])
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case '{':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return ""
		}
		return buf.String()
	default:
		return ""
	}
}
