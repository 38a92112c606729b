package scanner

import (
	"encoding/hex"
	"errors"
	"io"
	"os"
	"strings"

	"sigscan/signature"
)

// Classifier decides whether a file's leading bytes match a signature set.
type Classifier struct {
	set *signature.Set
}

func NewClassifier(set *signature.Set) *Classifier {
	return &Classifier{set: set}
}

// Classify reads the file prefix and matches it against the set. Files with
// fewer than signature.MinPrefixLen bytes never match. A read failure is
// returned so the caller can record it.
func (c *Classifier) Classify(path string) (signature.Match, bool, error) {
	prefix, err := readPrefix(path, c.set.PrefixLen())
	if err != nil {
		return signature.Match{}, false, err
	}
	if len(prefix) < signature.MinPrefixLen {
		return signature.Match{}, false, nil
	}
	m, ok := c.set.Match(strings.ToUpper(hex.EncodeToString(prefix)))
	return m, ok, nil
}

func readPrefix(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return buf[:read], nil
}
