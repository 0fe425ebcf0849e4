/*
Package server implements msgpack IPC for rename suggestion services.

The server reads a stream of msgpack messages from stdin and writes one msgpack response per message to stdout.
Messages are processed synchronously with timing info included in responses.

# IPC

Right after start the server writes a ready message:

	{"id": "", "status": "ready"}

Rename requests carry the snippet, a 1-based cursor position and an optional subtoken count.
A missing or -1 count searches every count up to the configured maximum:

	{"id": "req_001", "code": "int x = 1; print(x);", "line": 1, "char": 18, "n": -1}

The server responds with the suggested name, its pseudo-log-likelihood rounded to 2 decimals, the subtoken count that won and the time taken in microseconds:

	{"id": "req_001", "s": ["total"], "p": [0.42], "k": 1, "o": "x", "t": 145210}

Failures carry a message, a status code and the error kind:

	{"id": "req_002", "e": "resolve not_an_identifier: token \"int\" at 1:1 is a keyword, not an identifier", "c": 400, "kind": "not_an_identifier"}

# Message Types

The kind field selects the operation, "rename" when empty.
"health" answers with a status message, "info" with the active model and search settings plus request counters.
*/
package server

// Message kinds.
const (
	KindRename = "rename"
	KindHealth = "health"
	KindInfo   = "info"
)

// Request - any client message; Kind picks the handler
type Request struct {
	ID   string `msgpack:"id"`
	Kind string `msgpack:"kind,omitempty"`
	Code string `msgpack:"code"`
	Line int    `msgpack:"line"`
	Char int    `msgpack:"char"`
	N    *int   `msgpack:"n,omitempty"`
}

// RenameResponse - rename suggestion response
type RenameResponse struct {
	ID          string    `msgpack:"id"`
	Suggestions []string  `msgpack:"s"`
	PLLs        []float64 `msgpack:"p"`
	Subtokens   int       `msgpack:"k"`
	Original    string    `msgpack:"o,omitempty"`
	TimeTaken   int64     `msgpack:"t"`
}

// RenameError holds basic error information for failed requests
type RenameError struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
	Kind  string `msgpack:"kind,omitempty"`
}

// StatusResponse - ready and health messages
type StatusResponse struct {
	ID     string `msgpack:"id"`
	Status string `msgpack:"status"`
}

// Info describes the loaded engine.
type Info struct {
	Version      string `msgpack:"version"`
	Backend      string `msgpack:"backend"`
	Strategy     string `msgpack:"strategy"`
	VocabFormat  string `msgpack:"vocab_format"`
	MaxLength    int    `msgpack:"max_length"`
	MaxSubtokens int    `msgpack:"max_subtokens"`
	MaxCodeBytes int    `msgpack:"max_code_bytes"`
}

// InfoResponse - info operation response
type InfoResponse struct {
	ID    string         `msgpack:"id"`
	Info  Info           `msgpack:",inline"`
	Stats map[string]int `msgpack:"stats"`
}
