package main

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

const (
	// Minimum accepted key length
	minKeyLength = 16
	// Random keys are this many bytes before encoding
	randomKeyBytes = 32
	defaultCost    = 12
)

var (
	errKeyMismatch = errors.New("keys do not match")
	errKeyTooShort = fmt.Errorf("key must be at least %d characters", minKeyLength)
	errNoHash      = errors.New("API_KEY_HASH is not set")
)

// readSecret reads a line from the terminal without echo.
var readSecret = func(prompt string) ([]byte, error) {
	fmt.Print(prompt)
	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	return secret, err
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	cost := bcryptCost(os.Getenv("BCRYPT_COST"))

	var err error
	switch command := os.Args[1]; command {
	case "generate":
		err = generate(os.Stdout, cost)
	case "random":
		err = random(os.Stdout, rand.Reader, cost)
	case "verify":
		err = verify(os.Stdout, os.Getenv("API_KEY_HASH"))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(command)) //nolint:gosec // G705 - sanitized via allowlist
		printUsage(os.Stdout)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// sanitizeCommand replaces any character that is not alphanumeric, a
// hyphen or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Transcoder API Key Management")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: hashkey <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  generate - Hash a key entered at the prompt")
	fmt.Fprintln(w, "  random   - Create a random key and print it with its hash")
	fmt.Fprintln(w, "  verify   - Check a key against API_KEY_HASH")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  API_KEY_HASH - Hash checked by verify")
	fmt.Fprintf(w, "  BCRYPT_COST  - Hashing cost (default: %d)\n", defaultCost)
}

// bcryptCost parses s, falling back to the default when it is missing or
// outside bcrypt's range.
func bcryptCost(s string) int {
	cost, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return defaultCost
	}
	return cost
}

func validateKey(key, confirm []byte) error {
	if !bytes.Equal(key, confirm) {
		return errKeyMismatch
	}
	if len(bytes.TrimSpace(key)) < minKeyLength {
		return errKeyTooShort
	}
	return nil
}

func generate(w io.Writer, cost int) error {
	key, err := readSecret("API key: ")
	if err != nil {
		return fmt.Errorf("reading key: %w", err)
	}
	confirm, err := readSecret("Confirm API key: ")
	if err != nil {
		return fmt.Errorf("reading key: %w", err)
	}
	if err := validateKey(key, confirm); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword(bytes.TrimSpace(key), cost)
	if err != nil {
		return fmt.Errorf("hashing key: %w", err)
	}
	fmt.Fprintf(w, "API_KEY_HASH=%s\n", hash)
	return nil
}

func random(w io.Writer, entropy io.Reader, cost int) error {
	buf := make([]byte, randomKeyBytes)
	if _, err := io.ReadFull(entropy, buf); err != nil {
		return fmt.Errorf("generating key: %w", err)
	}
	key := base64.RawURLEncoding.EncodeToString(buf)

	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return fmt.Errorf("hashing key: %w", err)
	}

	fmt.Fprintf(w, "API key (shown once): %s\n", key)
	fmt.Fprintf(w, "API_KEY_HASH=%s\n", hash)
	return nil
}

func verify(w io.Writer, hash string) error {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return errNoHash
	}

	key, err := readSecret("API key: ")
	if err != nil {
		return fmt.Errorf("reading key: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), bytes.TrimSpace(key)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			fmt.Fprintln(w, "Status: key does NOT match")
			return errKeyMismatch
		}
		return fmt.Errorf("checking key: %w", err)
	}

	fmt.Fprintln(w, "Status: key matches")
	return nil
}
