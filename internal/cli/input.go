// Package cli handles cmd line input and suggestions for DBG and testing the rename pipeline against a local source file
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/nameserve/pkg/rename"
	"github.com/bastiangx/nameserve/pkg/suggest"
	"github.com/charmbracelet/log"
)

// Query is one parsed "line:col [n]" input.
type Query struct {
	Line      int
	Column    int
	Subtokens int
}

// InputHandler reads cursor positions from stdin and prints the suggested
// name for the identifier under each one, along with every count tried.
type InputHandler struct {
	engine       suggest.ISuggester
	code         string
	subtokens    int
	requestCount int
}

// NewInputHandler handles initialization of the InputHandler with the snippet
// every query runs against and the subtoken count used when a query names none.
func NewInputHandler(engine suggest.ISuggester, code string, subtokens int) *InputHandler {
	return &InputHandler{engine: engine, code: code, subtokens: subtokens}
}

// ReadSource loads the snippet file given by -src.
func ReadSource(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("no source file given, use -src")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", fmt.Errorf("source file %s is empty", path)
	}
	return string(data), nil
}

// Start begins the interface loop.
// It continuously prompts for input and hands each trimmed line to handleInput.
// Loop terminates when stdin closes or ctx is done.
func (h *InputHandler) Start(ctx context.Context) error {
	return h.run(ctx, os.Stdin)
}

func (h *InputHandler) run(ctx context.Context, in io.Reader) error {
	log.Print("NameServe CLI [BETA]")
	log.Printf("loaded %d lines", strings.Count(h.code, "\n")+1)
	log.Print("type line:col [n] and press Enter to see the suggestion (Ctrl+C to exit):")

	scanner := bufio.NewScanner(in)
	for {
		log.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		h.handleInput(ctx, input)
	}
}

// handleInput runs one query and prints the outcome to the log.
func (h *InputHandler) handleInput(ctx context.Context, input string) {
	h.requestCount++

	q, err := ParseQuery(input, h.subtokens)
	if err != nil {
		log.Error(err)
		return
	}

	start := time.Now()
	log.Debug("Processing request for", "line", q.Line, "col", q.Column, "n", q.Subtokens)
	res, err := h.engine.Rename(ctx, rename.Request{
		Code:      h.code,
		Line:      q.Line,
		Column:    q.Column,
		Subtokens: q.Subtokens,
	})
	elapsed := time.Since(start)
	if err != nil {
		log.Error("rename failed", "kind", rename.KindOf(err), "status", rename.Status(rename.KindOf(err)), "err", err)
		return
	}
	log.Debugf("Took [ %v ] for %d:%d", elapsed, q.Line, q.Column)

	clName := fmt.Sprintf("\033[38;5;75m%s\033[0m", res.Name)
	log.Printf("%s -> %s (pll: %.2f, k: %d)", res.Original, clName, res.PLL, res.Subtokens)
	for _, c := range res.Tried {
		log.Printf("%4d. %-40s (pll: %8.4f)", c.Subtokens, c.Name, c.PLL)
	}
}

// ParseQuery reads "line:col" with an optional subtoken count after it.
// Without one, fallback is used.
func ParseQuery(input string, fallback int) (Query, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 || len(fields) > 2 {
		return Query{}, fmt.Errorf("want line:col [n], got %q", input)
	}
	lineStr, colStr, ok := strings.Cut(fields[0], ":")
	if !ok {
		return Query{}, fmt.Errorf("position %q is not line:col", fields[0])
	}
	line, err := strconv.Atoi(lineStr)
	if err != nil {
		return Query{}, fmt.Errorf("line %q: %w", lineStr, err)
	}
	col, err := strconv.Atoi(colStr)
	if err != nil {
		return Query{}, fmt.Errorf("column %q: %w", colStr, err)
	}

	q := Query{Line: line, Column: col, Subtokens: fallback}
	if len(fields) == 2 {
		if q.Subtokens, err = strconv.Atoi(fields[1]); err != nil {
			return Query{}, fmt.Errorf("subtoken count %q: %w", fields[1], err)
		}
	}
	return q, nil
}
