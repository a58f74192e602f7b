// Package sandbox validates and executes LLM-generated filter/render source
// against in-memory thread records. Generated code is interpreted by yaegi
// with only safe stdlib packages loadable and a wall-clock timeout; the token
// denylist in front of it is a usability speed bump, not a security boundary,
// since identifier denylists are bypassable via obfuscation.
package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"feedlens/internal/models"
)

const DefaultTimeout = 5 * time.Second

// deniedTokens matches identifiers that indicate an escape attempt or unsafe
// I/O, as standalone words only.
var deniedTokens = regexp.MustCompile(`\b(os|net|http|exec|syscall|unsafe|plugin|reflect|cgo|eval|fetch|XMLHttpRequest|require|document|window|process)\b`)

type Executor struct {
	timeout        time.Duration
	allowedImports map[string]bool
	logger         *slog.Logger
}

func New(timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Executor{
		timeout: timeout,
		allowedImports: map[string]bool{
			"strings":       true,
			"strconv":       true,
			"fmt":           true,
			"math":          true,
			"sort":          true,
			"time":          true,
			"regexp":        true,
			"encoding/json": true,
			"unicode":       true,
			"unicode/utf8":  true,
			"bytes":         true,
			"errors":        true,
		},
		logger: slog.Default(),
	}
}

// validate rejects source that references a denied identifier or imports a
// package outside the allowlist.
func (e *Executor) validate(source string) error {
	if match := deniedTokens.FindString(source); match != "" {
		return fmt.Errorf("script references forbidden identifier %q", match)
	}

	return e.validateImports(source)
}

func (e *Executor) validateImports(source string) error {
	var imports []string

	inImportBlock := false
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "import (") {
			inImportBlock = true
			continue
		}
		if inImportBlock && strings.HasPrefix(trimmed, ")") {
			inImportBlock = false
			continue
		}

		if inImportBlock {
			if pkg := strings.Trim(trimmed, `"`); pkg != "" {
				imports = append(imports, pkg)
			}
		} else if strings.HasPrefix(trimmed, "import ") {
			pkg := strings.TrimPrefix(trimmed, "import ")
			imports = append(imports, strings.Trim(pkg, `"`))
		}
	}

	for _, pkg := range imports {
		if !e.allowedImports[pkg] {
			return fmt.Errorf("script imports forbidden package %q", pkg)
		}
	}

	return nil
}

// stripFences removes Markdown code-fence delimiters from the start and end
// of the source, since models commonly wrap code in fences.
func stripFences(source string) string {
	s := strings.TrimSpace(source)

	if strings.HasPrefix(s, "```") {
		if idx := strings.IndexByte(s, '\n'); idx != -1 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}

func wrapSource(source string) string {
	if strings.Contains(source, "package main") {
		return source
	}
	return "package main\n\n" + source
}

type evalOutcome struct {
	value interface{}
	err   error
}

// run evaluates the source in a fresh interpreter (no cross-call state
// leakage) and invokes the named entry function with threads as its only
// bound input. A timed-out interpreter goroutine cannot be killed, only
// abandoned.
func (e *Executor) run(ctx context.Context, source, entry string, threads []models.ThreadRecord) (interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	outcomes := make(chan evalOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				outcomes <- evalOutcome{err: fmt.Errorf("script panicked: %v", r)}
			}
		}()

		i := interp.New(interp.Options{})
		if err := i.Use(stdlib.Symbols); err != nil {
			outcomes <- evalOutcome{err: fmt.Errorf("failed to load interpreter stdlib: %w", err)}
			return
		}

		if _, err := i.Eval(wrapSource(source)); err != nil {
			outcomes <- evalOutcome{err: fmt.Errorf("script evaluation failed: %w", err)}
			return
		}

		fn, err := i.Eval("main." + entry)
		if err != nil {
			outcomes <- evalOutcome{err: fmt.Errorf("entry function %s not found: %w", entry, err)}
			return
		}

		value, err := invoke(fn.Interface(), entry, threads)
		outcomes <- evalOutcome{value: value, err: err}
	}()

	select {
	case outcome := <-outcomes:
		return outcome.value, outcome.err
	case <-ctx.Done():
		return nil, fmt.Errorf("script execution timed out after %s: %w", e.timeout, ctx.Err())
	}
}

func invoke(fn interface{}, entry string, threads []models.ThreadRecord) (interface{}, error) {
	switch typed := fn.(type) {
	case func([]map[string]interface{}) []map[string]interface{}:
		return typed(threads), nil
	case func([]map[string]interface{}) interface{}:
		return typed(threads), nil
	case func([]map[string]interface{}) string:
		return typed(threads), nil
	default:
		return nil, fmt.Errorf("entry function %s has unsupported signature %T", entry, fn)
	}
}
