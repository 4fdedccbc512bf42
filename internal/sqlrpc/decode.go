package sqlrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const doneSentinel = "[DONE]"

// Path is a sequence of object keys leading to the row-set in a response.
type Path []string

var (
	// PathDirect is where direct DATABASES_RUN_SQL calls put their rows.
	PathDirect = Path{"result", "structuredContent", "result"}

	// PathRouted is where calls routed through INTEGRATIONS_CALL_TOOL put their rows.
	PathRouted = Path{"result", "structuredContent", "structuredContent", "result"}
)

func (p Path) String() string {
	return strings.Join(p, ".")
}

// Response is a decoded JSON-RPC message from the remote service.
type Response struct {
	Payload  json.RawMessage
	Streamed bool
}

// Decode turns a raw HTTP body into a Response. Event-stream bodies are folded
// over every data frame and the last valid JSON frame wins; anything else is
// parsed as plain JSON. A JSON-RPC error member is returned as *RPCError along
// with the decoded response.
func Decode(contentType string, body []byte) (*Response, error) {
	resp := &Response{}

	if strings.Contains(strings.ToLower(contentType), "text/event-stream") {
		payload, err := lastDataFrame(body)
		if err != nil {
			return nil, &DecodeError{Stage: "frame", Err: err}
		}
		resp.Payload = payload
		resp.Streamed = true
	} else {
		trimmed := bytes.TrimSpace(body)
		if !json.Valid(trimmed) {
			return nil, &DecodeError{Stage: "json", Err: fmt.Errorf("body is not valid JSON (%d bytes)", len(body))}
		}
		resp.Payload = json.RawMessage(trimmed)
	}

	var envelope struct {
		Error *RPCError `json:"error"`
	}
	// A non-object payload (e.g. a bare array) simply has no error member.
	if err := json.Unmarshal(resp.Payload, &envelope); err == nil && envelope.Error != nil {
		return resp, envelope.Error
	}

	return resp, nil
}

// lastDataFrame scans SSE lines and returns the payload of the last
// "data:" line that holds valid JSON, skipping the [DONE] sentinel.
func lastDataFrame(body []byte) (json.RawMessage, error) {
	var last json.RawMessage
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == doneSentinel {
			continue
		}
		if !json.Valid([]byte(data)) {
			continue
		}
		last = json.RawMessage(data)
	}
	if last == nil {
		return nil, ErrNoPayload
	}
	return last, nil
}

// Lookup walks p through nested objects. A missing key, a null value or a
// non-object along the way yields ErrShapeMismatch.
func (r *Response) Lookup(p Path) (json.RawMessage, error) {
	current := r.Payload
	for i, key := range p {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(current, &obj); err != nil || obj == nil {
			return nil, fmt.Errorf("%w: %s is not an object", ErrShapeMismatch, describe(p[:i]))
		}
		next, ok := obj[key]
		if !ok || isNull(next) {
			return nil, fmt.Errorf("%w: %s not present", ErrShapeMismatch, Path(p[:i+1]).String())
		}
		current = next
	}
	return current, nil
}

// Rows decodes the row-set at p. The value may be an array of rows or an
// array of statement results of the form [{"results": [rows...]}], which is
// flattened in order.
func (r *Response) Rows(p Path) (RowSet, error) {
	raw, err := r.Lookup(p)
	if err != nil {
		return nil, err
	}

	var items []Row
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %s is not an array of rows", ErrShapeMismatch, p)
	}

	if len(items) == 0 || !isStatementResult(items[0]) {
		return RowSet(items), nil
	}

	rows := RowSet{}
	for i, item := range items {
		results, ok := item["results"]
		if !ok || isNull(results) {
			continue
		}
		var stmtRows []Row
		if err := json.Unmarshal(results, &stmtRows); err != nil {
			return nil, fmt.Errorf("%w: %s[%d].results is not an array of rows", ErrShapeMismatch, p, i)
		}
		rows = append(rows, stmtRows...)
	}
	return rows, nil
}

func describe(p Path) string {
	if len(p) == 0 {
		return "response"
	}
	return p.String()
}

func isStatementResult(item Row) bool {
	results, ok := item["results"]
	if !ok {
		return false
	}
	trimmed := bytes.TrimSpace(results)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Row is a single result row keyed by column name.
type Row map[string]json.RawMessage

// RowSet is an ordered list of rows.
type RowSet []Row

// Int64 returns the first of keys holding an integer. Numbers encoded as
// JSON strings are accepted.
func (r Row) Int64(keys ...string) (int64, bool) {
	for _, key := range keys {
		raw, ok := r[key]
		if !ok || isNull(raw) {
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				continue
			}
			n = json.Number(strings.TrimSpace(s))
		}
		if v, err := n.Int64(); err == nil {
			return v, true
		}
		if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
			return int64(f), true
		}
	}
	return 0, false
}

// Text returns the first of keys holding a string.
func (r Row) Text(keys ...string) (string, bool) {
	for _, key := range keys {
		raw, ok := r[key]
		if !ok || isNull(raw) {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s, true
		}
	}
	return "", false
}

// Bool returns the first of keys holding a boolean. SQLite style 0/1
// integers and "true"/"false" strings are accepted.
func (r Row) Bool(keys ...string) (bool, bool) {
	for _, key := range keys {
		raw, ok := r[key]
		if !ok || isNull(raw) {
			continue
		}
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			return b, true
		}
		if n, ok := r.Int64(key); ok {
			return n != 0, true
		}
		if s, ok := r.Text(key); ok {
			if v, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
				return v, true
			}
		}
	}
	return false, false
}
