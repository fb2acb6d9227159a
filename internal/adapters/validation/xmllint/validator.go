package xmllint

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"3tcapital/ms_ecf_core/internal/core/validation"
)

// DefaultBinary is the xmllint executable looked up on PATH.
const DefaultBinary = "xmllint"

// xmllint exit codes.
const (
	exitOK            = 0
	exitParseError    = 1
	exitValidation    = 3
	exitValidationAlt = 4
	exitSchemaCompile = 5
)

var (
	diagnosticLine = regexp.MustCompile(`^-:(\d+):\s*(.*)$`)
	caretLine      = regexp.MustCompile(`^\s*\^\s*$`)
)

// runFunc executes the validator binary with stdin and returns its stderr and exit code.
type runFunc func(ctx context.Context, name string, args []string, stdin []byte) (stderr []byte, exitCode int, err error)

// Validator validates documents against XSD files with libxml2's xmllint.
type Validator struct {
	binary    string
	schemaDir string
	log       *slog.Logger
	run       runFunc
}

// New returns a validator that resolves schema references under schemaDir.
func New(binary, schemaDir string, log *slog.Logger) *Validator {
	if binary == "" {
		binary = DefaultBinary
	}
	if log == nil {
		log = slog.Default()
	}
	return &Validator{
		binary:    binary,
		schemaDir: schemaDir,
		log:       log,
		run:       execRun,
	}
}

// Name identifies the validator in health reports.
func (v *Validator) Name() string { return "xmllint" }

// Check verifies the binary can be executed.
func (v *Validator) Check(ctx context.Context) error {
	stderr, code, err := v.run(ctx, v.binary, []string{"--version"}, nil)
	if err != nil {
		return fmt.Errorf("run %s: %w", v.binary, err)
	}
	if code != exitOK {
		return fmt.Errorf("%s --version exited with %d: %s", v.binary, code, strings.TrimSpace(string(stderr)))
	}
	return nil
}

// Validate pipes the document into xmllint. An empty schemaRef only checks
// well-formedness.
func (v *Validator) Validate(ctx context.Context, document []byte, schemaRef string) (validation.Result, error) {
	args := []string{"--noout"}
	if schemaRef != "" {
		args = append(args, "--schema", filepath.Join(v.schemaDir, schemaRef))
	}
	args = append(args, "-")

	start := time.Now()
	stderr, code, err := v.run(ctx, v.binary, args, document)
	if err != nil {
		return validation.Result{}, fmt.Errorf("run %s: %w", v.binary, err)
	}

	result := validation.Result{Schema: schemaRef, Diagnostics: ParseDiagnostics(stderr)}
	switch code {
	case exitOK:
		result.Valid = true
		result.Diagnostics = nil
	case exitParseError, exitValidation, exitValidationAlt:
		if len(result.Diagnostics) == 0 {
			result.Diagnostics = []validation.Diagnostic{{Message: strings.TrimSpace(string(stderr))}}
		}
	case exitSchemaCompile:
		return validation.Result{}, fmt.Errorf("compile schema %q: %s", schemaRef, strings.TrimSpace(string(stderr)))
	default:
		return validation.Result{}, fmt.Errorf("%s exited with status %d: %s", v.binary, code, strings.TrimSpace(string(stderr)))
	}

	v.log.DebugContext(ctx, "schema validation finished",
		slog.String("schema", schemaRef),
		slog.Bool("valid", result.Valid),
		slog.Int("diagnostics", len(result.Diagnostics)),
		slog.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// ParseDiagnostics extracts "-:LINE: message" entries from xmllint output.
// The column is taken from the caret line xmllint prints under parser errors,
// and is zero when there is none.
func ParseDiagnostics(output []byte) []validation.Diagnostic {
	var out []validation.Diagnostic

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()

		if m := diagnosticLine.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			out = append(out, validation.Diagnostic{Line: n, Message: strings.TrimSpace(m[2])})
			continue
		}

		if caretLine.MatchString(line) && len(out) > 0 && out[len(out)-1].Column == 0 {
			out[len(out)-1].Column = strings.Index(line, "^") + 1
		}
	}
	return out
}

func execRun(ctx context.Context, name string, args []string, stdin []byte) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stderr.Bytes(), 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return stderr.Bytes(), exitErr.ExitCode(), nil
	}
	return nil, -1, err
}
