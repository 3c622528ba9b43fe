// Package idgen mints the downstream-facing ids this gateway hands out for
// messages and tool_use blocks: a stable prefix plus a random suffix, never
// derived from an upstream identifier.
package idgen

import (
	"strings"

	"github.com/google/uuid"
)

// New returns prefix followed by a random, hyphen-free suffix.
func New(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.New().String(), "-", "")
}
