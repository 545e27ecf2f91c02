// Package joincode generates the short public codes used to join a session.
package joincode

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Length of a join code in characters.
const Length = 6

// codeSpace is 36^Length, the number of distinct codes.
const codeSpace = 36 * 36 * 36 * 36 * 36 * 36

// New returns a 6-character uppercase base-36 join code drawn from
// crypto/rand. Uniqueness is enforced at the store level, not here.
func New() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	n := binary.BigEndian.Uint64(b[:]) % codeSpace
	code := strings.ToUpper(strconv.FormatUint(n, 36))
	if len(code) < Length {
		code = strings.Repeat("0", Length-len(code)) + code
	}
	return code, nil
}

// Valid reports whether s looks like a join code: exactly 6 uppercase
// base-36 characters.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9') && !(r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}
