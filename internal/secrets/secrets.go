package secrets

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

var (
	// ErrSecretNotFound is returned when the referenced secret does not exist.
	ErrSecretNotFound = errors.New("secret not found")
	// ErrEmptySecret is returned when the referenced secret resolves to an empty value.
	ErrEmptySecret = errors.New("secret is empty")
)

// Resolver maps a secret reference to its plaintext value.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// Runner executes a command and returns its stdout.
type Runner func(ctx context.Context, env []string, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// PassResolver reads secrets from a password-store (`pass show <ref>`). The
// first line of the entry is the secret.
type PassResolver struct {
	Binary   string
	StoreDir string
	Run      Runner
}

// Resolve implements Resolver.
func (p PassResolver) Resolve(ctx context.Context, ref string) (string, error) {
	ref = strings.Trim(strings.TrimSpace(ref), "/")
	if ref == "" {
		return "", fmt.Errorf("pass: %w: empty reference", ErrSecretNotFound)
	}

	bin := p.Binary
	if bin == "" {
		bin = "pass"
	}
	run := p.Run
	if run == nil {
		run = execRunner
	}
	var env []string
	if p.StoreDir != "" {
		env = append(env, "PASSWORD_STORE_DIR="+p.StoreDir)
	}

	out, err := run(ctx, env, bin, "show", ref)
	if err != nil {
		if strings.Contains(err.Error(), "is not in the password store") {
			return "", fmt.Errorf("pass %s: %w", ref, ErrSecretNotFound)
		}
		return "", fmt.Errorf("pass show %s: %w", ref, err)
	}
	return firstLine(ref, out)
}

// EnvResolver reads secrets from environment variables.
type EnvResolver struct{}

// Resolve implements Resolver.
func (EnvResolver) Resolve(_ context.Context, ref string) (string, error) {
	val, ok := os.LookupEnv(strings.TrimSpace(ref))
	if !ok {
		return "", fmt.Errorf("env %s: %w", ref, ErrSecretNotFound)
	}
	val = strings.TrimSpace(val)
	if val == "" {
		return "", fmt.Errorf("env %s: %w", ref, ErrEmptySecret)
	}
	return val, nil
}

// FileResolver reads secrets from files; the first line is the secret.
type FileResolver struct{}

// Resolve implements Resolver.
func (FileResolver) Resolve(_ context.Context, ref string) (string, error) {
	path := strings.TrimSpace(ref)
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("file %s: %w", path, ErrSecretNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read secret file: %w", err)
	}
	return firstLine(path, raw)
}

func firstLine(ref string, raw []byte) (string, error) {
	sc := bufio.NewScanner(bytes.NewReader(raw))
	if sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("read secret %s: %w", ref, err)
	}
	return "", fmt.Errorf("secret %s: %w", ref, ErrEmptySecret)
}

// Supported reference schemes.
const (
	SchemePass = "pass"
	SchemeEnv  = "env"
	SchemeFile = "file"
)

// SchemeResolver dispatches "scheme:rest" references to the resolver
// registered for scheme. References without a known scheme prefix go to the
// Default scheme.
type SchemeResolver struct {
	Resolvers map[string]Resolver
	Default   string
}

// NewResolver returns the standard pass/env/file resolver with pass as default.
func NewResolver(passBinary, storeDir string) *SchemeResolver {
	return &SchemeResolver{
		Resolvers: map[string]Resolver{
			SchemePass: PassResolver{Binary: passBinary, StoreDir: storeDir},
			SchemeEnv:  EnvResolver{},
			SchemeFile: FileResolver{},
		},
		Default: SchemePass,
	}
}

// Resolve implements Resolver.
func (s *SchemeResolver) Resolve(ctx context.Context, ref string) (string, error) {
	scheme, rest := s.Default, strings.TrimSpace(ref)
	if i := strings.Index(rest, ":"); i > 0 {
		candidate := strings.ToLower(rest[:i])
		if _, ok := s.Resolvers[candidate]; ok {
			scheme, rest = candidate, rest[i+1:]
		}
	}
	r, ok := s.Resolvers[scheme]
	if !ok {
		return "", fmt.Errorf("no secret resolver for scheme %q", scheme)
	}
	return r.Resolve(ctx, rest)
}
