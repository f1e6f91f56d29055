package ingest

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	driveLetter = regexp.MustCompile(`^[A-Za-z]:`)
	hasScheme   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)
	fileDrive   = regexp.MustCompile(`^/[A-Za-z]:`)
)

// NormalizeRef turns a local path or URL into a loadable URL.
//
// Backslashes become forward slashes, drive-letter paths become
// file:/// URLs, and anything without a scheme is treated as a local path.
func NormalizeRef(p string) string {
	u := strings.ReplaceAll(p, `\`, "/")
	switch {
	case u == "":
		return ""
	case strings.HasPrefix(u, "data:"):
		return u
	case driveLetter.MatchString(u):
		return "file:///" + u
	case hasScheme.MatchString(u):
		return u
	default:
		return "file://" + u
	}
}

// FilePath returns the local path of a file:// reference.
func FilePath(ref string) (string, bool) {
	if !strings.HasPrefix(ref, "file://") {
		return "", false
	}
	p := strings.TrimPrefix(ref, "file://")
	if fileDrive.MatchString(p) {
		p = p[1:]
	}
	return p, true
}

// ErrInlineData is returned for malformed inline payloads.
var ErrInlineData = errors.New("ingest: malformed inline data")

// DecodeInline extracts image bytes from a data URL or a bare base64 string.
func DecodeInline(s string) ([]byte, error) {
	payload := s
	if strings.HasPrefix(s, "data:") {
		meta, data, ok := strings.Cut(s[len("data:"):], ",")
		if !ok {
			return nil, fmt.Errorf("%w: data URL without payload", ErrInlineData)
		}
		if !strings.HasSuffix(meta, ";base64") {
			return nil, fmt.Errorf("%w: data URL is not base64", ErrInlineData)
		}
		payload = data
	}
	payload = strings.TrimSpace(payload)
	if out, err := base64.StdEncoding.DecodeString(payload); err == nil {
		return out, nil
	}
	out, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInlineData, err)
	}
	return out, nil
}
