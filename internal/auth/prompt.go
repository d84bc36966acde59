package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ReadKey reads an access key. On a terminal the input is hidden; otherwise
// the first line of in is used, which also serves --key-stdin.
func ReadKey(prompt string, in *os.File, out io.Writer) (string, error) {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(out, prompt)
		key, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read access key: %w", err)
		}
		return strings.TrimSpace(string(key)), nil
	}
	return ReadKeyLine(in)
}

// ReadKeyLine reads the key from the first line of r.
func ReadKeyLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read access key: %w", err)
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return "", errors.New("access key cannot be empty")
	}
	return key, nil
}

// ReadNewKey prompts twice on a terminal and fails when the entries differ.
func ReadNewKey(in *os.File, out io.Writer) (string, error) {
	key, err := ReadKey("New access key: ", in, out)
	if err != nil {
		return "", err
	}
	if !term.IsTerminal(int(in.Fd())) {
		return key, nil
	}
	confirm, err := ReadKey("Confirm access key: ", in, out)
	if err != nil {
		return "", err
	}
	if key != confirm {
		return "", errors.New("access keys do not match")
	}
	return key, nil
}
