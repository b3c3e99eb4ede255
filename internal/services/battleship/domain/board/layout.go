package board

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	apperrors "github.com/louisbranch/broadside/internal/platform/errors"
)

// maxLayoutBytes bounds how much of a map source is read.
const maxLayoutBytes = 64 << 10

// ReadLayout reads a map source and drops all whitespace, so a map written as
// ten lines of ten symbols yields a 100-character layout. The charset and
// fleet rules are checked later by Load.
func ReadLayout(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxLayoutBytes+1))
	if err != nil {
		return "", fmt.Errorf("read layout: %w", err)
	}
	if len(data) > maxLayoutBytes {
		return "", apperrors.New(apperrors.CodeInvalidLayout, "layout source is too large")
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, string(data)), nil
}
