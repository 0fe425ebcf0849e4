package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/bastiangx/nameserve/internal/logger"
	"github.com/bastiangx/nameserve/pkg/rename"
	"github.com/bastiangx/nameserve/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles the IPC for rename suggestions
type Server struct {
	engine  suggest.ISuggester
	info    Info
	decoder *msgpack.Decoder
	encoder *msgpack.Encoder
	log     *log.Logger
}

// NewServer creates a new rename server using stdin/stdout for IPC
func NewServer(engine suggest.ISuggester, info Info) *Server {
	return newServer(engine, info, os.Stdin, os.Stdout)
}

func newServer(engine suggest.ISuggester, info Info, r io.Reader, w io.Writer) *Server {
	return &Server{
		engine:  engine,
		info:    info,
		decoder: msgpack.NewDecoder(bufio.NewReader(r)),
		encoder: msgpack.NewEncoder(w),
		log:     logger.New("server"),
	}
}

// Start begins listening for IPC requests. It returns nil when the input ends.
func (s *Server) Start(ctx context.Context) error {
	s.log.Debug("Starting Server.")

	// Signal that the server is ready
	if err := s.send(StatusResponse{Status: "ready"}); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		// Raw first, so a badly typed message is rejected without losing the stream.
		raw, err := s.decoder.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.log.Errorf("Reading from stdin: %v", err)
			return err
		}
		if err := s.handleRequest(ctx, raw); err != nil {
			return err
		}
	}
}

// handleRequest decodes one message and dispatches it by kind.
func (s *Server) handleRequest(ctx context.Context, raw msgpack.RawMessage) error {
	var req Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		s.log.Errorf("Unmarshaling request: %v", err)
		return s.sendError("", "Invalid msgpack request", 400, "")
	}

	switch req.Kind {
	case "", KindRename:
		return s.handleRename(ctx, req)
	case KindHealth:
		return s.send(StatusResponse{ID: req.ID, Status: "ok"})
	case KindInfo:
		return s.send(InfoResponse{ID: req.ID, Info: s.info, Stats: s.engine.Stats()})
	default:
		return s.sendError(req.ID, fmt.Sprintf("Unknown kind: %s", req.Kind), 400, "")
	}
}

func (s *Server) handleRename(ctx context.Context, req Request) error {
	if req.Code == "" {
		s.log.Debug("Code is empty in request", "id", req.ID)
		return s.sendError(req.ID, "Missing 'code' parameter", 400, "")
	}
	if limit := s.info.MaxCodeBytes; limit > 0 && len(req.Code) > limit {
		s.log.Debug("Code is too long in request", "id", req.ID, "bytes", len(req.Code))
		return s.sendError(req.ID, fmt.Sprintf("Code exceeds maximum size of %d bytes", limit), 400, "")
	}

	count := rename.Auto
	if req.N != nil {
		count = *req.N
	}

	start := time.Now()
	res, err := s.engine.Rename(ctx, rename.Request{
		Code:      req.Code,
		Line:      req.Line,
		Column:    req.Char,
		Subtokens: count,
	})
	elapsed := time.Since(start)
	if err != nil {
		kind := rename.KindOf(err)
		code := rename.Status(kind)
		if code >= 500 {
			s.log.Error("rename failed", "id", req.ID, "err", err)
		} else {
			s.log.Debug("rename rejected", "id", req.ID, "err", err)
		}
		return s.sendError(req.ID, err.Error(), code, string(kind))
	}

	s.log.Debug("renamed", "id", req.ID, "from", res.Original, "to", res.Name, "k", res.Subtokens, "took", elapsed)
	return s.send(RenameResponse{
		ID:          req.ID,
		Suggestions: []string{res.Name},
		PLLs:        []float64{round2(res.PLL)},
		Subtokens:   res.Subtokens,
		Original:    res.Original,
		TimeTaken:   elapsed.Microseconds(),
	})
}

// send writes one msgpack message to the client.
func (s *Server) send(response any) error {
	if err := s.encoder.Encode(response); err != nil {
		s.log.Errorf("Writing response: %v", err)
		return err
	}
	return nil
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int, kind string) error {
	return s.send(RenameError{ID: id, Error: message, Code: code, Kind: kind})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
