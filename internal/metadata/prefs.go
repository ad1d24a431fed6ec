package metadata

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// Prefs is the ruleset of a process: the structure and metadata types it knows
type Prefs struct {
	DocStructTypes []DocStructType `yaml:"doc_struct_types"`
	MetadataTypes  []string        `yaml:"metadata_types"`
}

// DocStructType describes one logical structure type
type DocStructType struct {
	Name   string `yaml:"name"`
	Anchor bool   `yaml:"anchor"`
	// AllowedMetadata restricts the metadata of this type; empty allows every known type
	AllowedMetadata []string `yaml:"allowed_metadata,omitempty"`
}

// LoadPrefs reads a ruleset file
func LoadPrefs(path string) (*Prefs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ruleset: %w", err)
	}

	prefs := &Prefs{}
	if err := yaml.Unmarshal(data, prefs); err != nil {
		return nil, fmt.Errorf("failed to parse ruleset %s: %w", path, err)
	}
	return prefs, nil
}

// DocStructType looks up a structure type by name
func (p *Prefs) DocStructType(name string) (DocStructType, bool) {
	if p == nil {
		return DocStructType{}, false
	}
	for _, t := range p.DocStructTypes {
		if t.Name == name {
			return t, true
		}
	}
	return DocStructType{}, false
}

// HasDocStructType reports whether the type may be created.
// A ruleset without structure types accepts every type.
func (p *Prefs) HasDocStructType(name string) bool {
	if p == nil || len(p.DocStructTypes) == 0 {
		return true
	}
	_, ok := p.DocStructType(name)
	return ok
}

// IsAnchor reports whether the named type is an anchor
func (p *Prefs) IsAnchor(name string) bool {
	t, ok := p.DocStructType(name)
	return ok && t.Anchor
}

// HasMetadataType reports whether the metadata type is defined.
// A ruleset without metadata types accepts every type.
func (p *Prefs) HasMetadataType(name string) bool {
	if p == nil || len(p.MetadataTypes) == 0 {
		return true
	}
	for _, t := range p.MetadataTypes {
		if t == name {
			return true
		}
	}
	return false
}

// AllowsMetadata reports whether structType may carry metadataType
func (p *Prefs) AllowsMetadata(structType, metadataType string) bool {
	t, ok := p.DocStructType(structType)
	if !ok || len(t.AllowedMetadata) == 0 {
		return true
	}
	for _, m := range t.AllowedMetadata {
		if m == metadataType {
			return true
		}
	}
	return false
}
