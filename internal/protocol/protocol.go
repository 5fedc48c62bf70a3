// Package protocol defines the JSON messages exchanged with the
// browser extension.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Version of the GhostText wire protocol served in the redirect document.
const Version = 1

// CursorRange is a selection span in UTF-16 code-unit offsets, as the
// browser counts them. Start and End are zero-based.
type CursorRange struct {
	Start uint `json:"start"`
	End   uint `json:"end"`
}

// EditRequest is an inbound message describing the current state of the
// browser-side text field. Immutable once parsed.
type EditRequest struct {
	Selections []CursorRange `json:"selections"`
	Syntax     string        `json:"syntax"`
	Text       string        `json:"text"`
	Title      string        `json:"title"`
	URL        string        `json:"url"`
}

// TextSnapshot is an outbound message carrying the mirrored file's
// contents back to the browser.
type TextSnapshot struct {
	Text       string        `json:"text"`
	Selections []CursorRange `json:"selections"`
}

// Redirect is served to plain HTTP requests that are not websocket
// upgrades. It tells the extension which port to open the socket on.
type Redirect struct {
	WebSocketPort   uint16 `json:"WebSocketPort"`
	ProtocolVersion int    `json:"ProtocolVersion"`
}

// NewRedirect builds the redirect document for the given port.
func NewRedirect(port uint16) Redirect {
	return Redirect{WebSocketPort: port, ProtocolVersion: Version}
}

// ParseEditRequest decodes an EditRequest from a text frame.
func ParseEditRequest(data []byte) (*EditRequest, error) {
	var req EditRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decoding edit request: %w", err)
	}
	return &req, nil
}
