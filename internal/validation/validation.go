// Package validation provides validation functions for CIDR group fields.
// Group names are used verbatim as object-store keys, so they are limited to
// a flat, URL-safe alphabet.
package validation

import (
	"fmt"
	"net/netip"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxNameLength is the maximum length of a group name in bytes.
	MaxNameLength = 128
	// MaxStoredNameLength bounds names of groups already in the store, leaving
	// room for the ".json" suffix in a 255 byte key.
	MaxStoredNameLength = 250
	// MaxDescriptionLength is the maximum length of a description in characters.
	MaxDescriptionLength = 1024
)

// isAlpha returns true if the byte is an ASCII letter.
func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// isNum returns true if the byte is an ASCII digit.
func isNum(b byte) bool {
	return b >= '0' && b <= '9'
}

// isAlphaNum returns true if the byte is an ASCII letter or digit.
func isAlphaNum(b byte) bool {
	return isAlpha(b) || isNum(b)
}

// ValidateGroupName validates a group name.
// Names start with a letter or digit and contain only letters, digits,
// hyphens, underscores or dots. The caller is expected to trim it first.
func ValidateGroupName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("name must be at most %d characters", MaxNameLength)
	}
	if !isAlphaNum(name[0]) {
		return fmt.Errorf("name must start with a letter or digit")
	}
	for _, b := range []byte(name) {
		if !isAlphaNum(b) && b != '-' && b != '_' && b != '.' {
			return fmt.Errorf("name can only contain letters, digits, '-', '_' or '.'")
		}
	}
	return nil
}

// ValidateStoredName checks that name can address an existing group object.
// It is looser than ValidateGroupName: any flat, printable key is reachable,
// but path separators and dot segments never are.
func ValidateStoredName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > MaxStoredNameLength {
		return fmt.Errorf("name must be at most %d characters", MaxStoredNameLength)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("name must be valid UTF-8")
	}
	if name != strings.TrimSpace(name) {
		return fmt.Errorf("name must not have surrounding whitespace")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("name must not be a dot segment")
	}
	for _, r := range name {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return fmt.Errorf("name must not contain path separators or control characters")
		}
	}
	return nil
}

// ValidateDescription validates a free-text description.
func ValidateDescription(description string) error {
	if description == "" {
		return fmt.Errorf("description is required")
	}
	if !utf8.ValidString(description) {
		return fmt.Errorf("description must be valid UTF-8")
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return fmt.Errorf("description must be at most %d characters", MaxDescriptionLength)
	}
	return nil
}

// NormalizeCIDR parses an IPv4 or IPv6 network in CIDR notation and returns
// its canonical form with host bits cleared, so "10.0.0.1/24" becomes
// "10.0.0.0/24". An empty string is a group that is not configured yet and
// is returned unchanged.
func NormalizeCIDR(cidr string) (string, error) {
	cidr = strings.TrimSpace(cidr)
	if cidr == "" {
		return "", nil
	}
	if !strings.Contains(cidr, "/") {
		return "", fmt.Errorf("must be in CIDR notation (address/prefix)")
	}
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return "", fmt.Errorf("must be a valid IPv4 or IPv6 CIDR")
	}
	return prefix.Masked().String(), nil
}
