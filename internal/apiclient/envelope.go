package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// Envelope is the wrapper the backend puts around every JSON payload
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// IsSuccess reports whether the envelope code is in the success set
func (e *Envelope) IsSuccess() bool {
	return e.Code == http.StatusOK || e.Code == http.StatusCreated
}

// rawEnvelope tells an envelope apart from an arbitrary JSON body
type rawEnvelope struct {
	Code    *int            `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func isJSON(header http.Header) bool {
	mediaType, _, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/json" || (len(mediaType) > 5 && mediaType[len(mediaType)-5:] == "+json")
}

func isSuccessStatus(status int) bool {
	return status >= 200 && status < 300
}

// parseEnvelope returns nil when data is not an envelope
func parseEnvelope(data []byte) *Envelope {
	var raw rawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil || raw.Code == nil {
		return nil
	}
	return &Envelope{Code: *raw.Code, Message: raw.Message, Data: raw.Data}
}

// decodeResponse applies the response stage: blob bypass, envelope
// unwrapping and error normalization
func (c *Client) decodeResponse(resp *http.Response, blob bool, out any) error {
	method, target := resp.Request.Method, resp.Request.URL.String()

	if blob && isSuccessStatus(resp.StatusCode) {
		if err := writeBlob(resp.Body, out); err != nil {
			return &TransportError{Method: method, URL: target, StatusCode: resp.StatusCode, Err: err}
		}
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, URL: target, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	env := parseEnvelope(data)
	if env == nil {
		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return &APIError{Status: resp.StatusCode, Code: http.StatusUnauthorized, Message: http.StatusText(http.StatusUnauthorized)}
		case !isSuccessStatus(resp.StatusCode):
			return &TransportError{Method: method, URL: target, StatusCode: resp.StatusCode}
		case len(data) == 0:
			return nil
		case isJSON(resp.Header):
			return &TransportError{Method: method, URL: target, StatusCode: resp.StatusCode, Err: errors.New("response is not an envelope")}
		default:
			// Non-JSON success bodies are handed back raw
			if err := writeBlob(bytes.NewReader(data), out); err != nil {
				return &TransportError{Method: method, URL: target, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected %s response: %w", resp.Header.Get("Content-Type"), err)}
			}
			return nil
		}
	}

	if !env.IsSuccess() {
		return &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Message}
	}

	// A success code never overrides a failed HTTP status
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &APIError{Status: resp.StatusCode, Code: http.StatusUnauthorized, Message: http.StatusText(http.StatusUnauthorized)}
	case !isSuccessStatus(resp.StatusCode):
		return &TransportError{Method: method, URL: target, StatusCode: resp.StatusCode, Err: fmt.Errorf("envelope reports code %d", env.Code)}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &TransportError{Method: method, URL: target, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode data: %w", err)}
	}
	return nil
}

func writeBlob(r io.Reader, out any) error {
	switch v := out.(type) {
	case nil:
		_, err := io.Copy(io.Discard, r)
		return err
	case *[]byte:
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		*v = data
		return nil
	case io.Writer:
		_, err := io.Copy(v, r)
		return err
	default:
		return fmt.Errorf("blob output must be *[]byte or io.Writer, got %T", out)
	}
}

// errorFromResponse normalizes a non-2xx response outside the envelope path
// (file transfers)
func errorFromResponse(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if env := parseEnvelope(data); env != nil {
		return &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Message}
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return &APIError{Status: resp.StatusCode, Code: http.StatusUnauthorized, Message: http.StatusText(http.StatusUnauthorized)}
	}
	return &TransportError{Method: resp.Request.Method, URL: resp.Request.URL.String(), StatusCode: resp.StatusCode}
}
