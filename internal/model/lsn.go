package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLSN converts a textual WAL location such as "16/B374D848" into the
// byte offset it denotes.
func ParseLSN(lsn string) (int64, error) {
	hi, lo, ok := strings.Cut(strings.TrimSpace(lsn), "/")
	if !ok {
		return 0, fmt.Errorf("parse LSN %q: missing separator", lsn)
	}

	// The high half is capped at 31 bits so the position stays a
	// non-negative int64.
	segment, err := strconv.ParseUint(hi, 16, 31)
	if err != nil {
		return 0, fmt.Errorf("parse LSN %q: %w", lsn, err)
	}
	displacement, err := strconv.ParseUint(lo, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("parse LSN %q: %w", lsn, err)
	}

	return int64(segment<<32 | displacement), nil
}

// FormatLSN is the inverse of ParseLSN.
func FormatLSN(pos int64) string {
	return fmt.Sprintf("%X/%X", uint64(pos)>>32, uint64(pos)&0xFFFFFFFF)
}
