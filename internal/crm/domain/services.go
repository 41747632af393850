package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidServices is returned when a request carries a service list that
// is neither a string nor an array of strings.
var ErrInvalidServices = errors.New("service list must be a string or an array of strings")

const servicesSeparator = ", "

// NormalizeServices trims and NFC-normalizes each label, then drops empty
// labels and duplicates. First-seen order is kept.
func NormalizeServices(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = norm.NFC.String(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ParseServices decodes a stored service_demande value. Both encodings found
// in existing databases are accepted: a JSON array and a comma-joined string.
func ParseServices(stored string) []string {
	trimmed := strings.TrimSpace(stored)
	switch {
	case trimmed == "":
		return []string{}
	case strings.HasPrefix(trimmed, "["):
		var list []string
		if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
			return NormalizeServices(list)
		}
	case strings.HasPrefix(trimmed, `"`):
		var single string
		if err := json.Unmarshal([]byte(trimmed), &single); err == nil {
			return ParseServices(single)
		}
	}
	return NormalizeServices(strings.Split(trimmed, ","))
}

// FormatServices encodes a service list for storage. The comma-joined form is
// used unless it would not parse back to the same list, in which case a JSON
// array is written.
func FormatServices(services []string) string {
	services = NormalizeServices(services)
	if len(services) == 0 {
		return ""
	}

	joined := strings.Join(services, servicesSeparator)
	if !needsJSON(services, joined) {
		return joined
	}

	b, err := json.Marshal(services)
	if err != nil {
		return joined
	}
	return string(b)
}

func needsJSON(services []string, joined string) bool {
	if strings.HasPrefix(joined, "[") || strings.HasPrefix(joined, `"`) {
		return true
	}
	for _, s := range services {
		if strings.Contains(s, ",") {
			return true
		}
	}
	return false
}

// DecodeServices reads the service_demande member of a request body, which
// the forms send either as an array or as a single string.
func DecodeServices(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []string{}, nil
	}

	switch raw[0] {
	case '[':
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, ErrInvalidServices
		}
		return NormalizeServices(list), nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, ErrInvalidServices
		}
		return ParseServices(s), nil
	default:
		return nil, ErrInvalidServices
	}
}
