package storage

import (
	"encoding/json"
	"fmt"
)

// Pointer records which bank file is current. The current map keys banks by
// category; the top-level path field is the pre-category format and is kept
// readable so old pointer files keep working.
type Pointer struct {
	Current map[string]string `json:"current,omitempty"`
	Path    string            `json:"path,omitempty"`
}

// DecodePointer parses a pointer document. An empty document yields a zero
// Pointer rather than an error.
func DecodePointer(data []byte) (Pointer, error) {
	var p Pointer
	if len(data) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return Pointer{}, fmt.Errorf("decode bank pointer: %w", err)
	}
	return p, nil
}

// Encode serializes the pointer for storage.
func (p Pointer) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode bank pointer: %w", err)
	}
	return data, nil
}

// Resolve returns the bank path for a category. The category map wins; the
// legacy path field only applies when no category was requested. When neither
// matches, fallback is returned.
func (p Pointer) Resolve(category, fallback string) string {
	if category != "" {
		if path, ok := p.Current[category]; ok && path != "" {
			return path
		}
		return fallback
	}
	if p.Path != "" {
		return p.Path
	}
	return fallback
}

// SetCurrent points a category at a bank path, allocating the map on first
// use.
func (p *Pointer) SetCurrent(category, path string) {
	if p.Current == nil {
		p.Current = make(map[string]string)
	}
	p.Current[category] = path
}
