package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig marks configuration rejected before the engine acted on it.
var ErrInvalidConfig = errors.New("invalid config")

// Document is a top-level engine configuration split into its sections.
type Document map[string]json.RawMessage

// ValidateConfig checks the outer shape of an engine configuration: a JSON
// object whose "inbounds" and "outbounds" (when present) are arrays and whose
// "route" is an object. Section contents are left to the engine.
func ValidateConfig(cfg string) (Document, error) {
	if strings.TrimSpace(cfg) == "" {
		return nil, fmt.Errorf("%w: empty config", ErrInvalidConfig)
	}
	var doc Document
	if err := json.Unmarshal([]byte(cfg), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: top level must be an object", ErrInvalidConfig)
	}
	for _, key := range []string{"inbounds", "outbounds"} {
		if raw, ok := doc[key]; ok && !isKind(raw, '[') {
			return nil, fmt.Errorf("%w: %s must be an array", ErrInvalidConfig, key)
		}
	}
	if raw, ok := doc["route"]; ok && !isKind(raw, '{') {
		return nil, fmt.Errorf("%w: route must be an object", ErrInvalidConfig)
	}
	return doc, nil
}

func isKind(raw json.RawMessage, open byte) bool {
	b := bytes.TrimSpace(raw)
	if bytes.Equal(b, []byte("null")) {
		return true
	}
	return len(b) > 0 && b[0] == open
}

// IsInvalidConfig reports whether err stems from ValidateConfig.
func IsInvalidConfig(err error) bool { return errors.Is(err, ErrInvalidConfig) }
