// Package metadata implements the logical/physical document model of a process
// and its YAML serialization.
package metadata

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PageType is the structure type of physical page elements
const PageType = "page"

// DefaultPhysicalType is used when a document has no physical root yet
const DefaultPhysicalType = "BoundBook"

var (
	ErrUnknownStructType   = errors.New("structure type not defined in ruleset")
	ErrMetadataNotAllowed  = errors.New("metadata type not allowed for structure type")
	ErrUnknownMetadataType = errors.New("metadata type not defined in ruleset")
	ErrNoLogicalStructure  = errors.New("document has no logical structure")
)

// Document is the metadata record of one process
type Document struct {
	Logical  *DocStruct `yaml:"logical"`
	Physical *DocStruct `yaml:"physical,omitempty"`

	// highest allocated number per ID prefix, scanned from the tree on first use
	highest map[string]int
}

// DocStruct is a node of the logical or physical structure
type DocStruct struct {
	ID           string       `yaml:"id"`
	Type         string       `yaml:"type"`
	Metadata     []Metadata   `yaml:"metadata,omitempty"`
	Children     []*DocStruct `yaml:"children,omitempty"`
	References   []string     `yaml:"references,omitempty"`
	ReferencedBy []string     `yaml:"referenced_by,omitempty"`
	Page         *Page        `yaml:"page,omitempty"`
}

// Metadata is a typed value attached to a structure element
type Metadata struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

// Page holds the physical attributes of a page element
type Page struct {
	PhysicalNumber int    `yaml:"physical_number"`
	LogicalNumber  string `yaml:"logical_number,omitempty"`
	ContentFile    string `yaml:"content_file"`
	MimeType       string `yaml:"mime_type,omitempty"`
}

// CreateDocStruct creates a new, unattached element of the given type.
// Logical types must be known to prefs; page elements always are.
func (d *Document) CreateDocStruct(prefs *Prefs, structType string) (*DocStruct, error) {
	if structType == "" {
		return nil, fmt.Errorf("%w: empty type", ErrUnknownStructType)
	}
	prefix := "LOG"
	if structType == PageType {
		prefix = "PHYS"
	} else if !prefs.HasDocStructType(structType) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStructType, structType)
	}
	return &DocStruct{ID: d.nextID(prefix), Type: structType}, nil
}

// EnsurePhysical returns the physical root, creating it if the document has none
func (d *Document) EnsurePhysical() *DocStruct {
	if d.Physical == nil {
		d.Physical = &DocStruct{ID: d.nextID("PHYS"), Type: DefaultPhysicalType}
	}
	return d.Physical
}

// AddReference links from (a logical element) and to (a page) in both directions
func (d *Document) AddReference(from, to *DocStruct) {
	if !contains(from.References, to.ID) {
		from.References = append(from.References, to.ID)
	}
	if !contains(to.ReferencedBy, from.ID) {
		to.ReferencedBy = append(to.ReferencedBy, from.ID)
	}
}

// Pages returns the page elements of the physical root in order
func (d *Document) Pages() []*DocStruct {
	if d.Physical == nil {
		return nil
	}
	var pages []*DocStruct
	for _, c := range d.Physical.Children {
		if c.Type == PageType {
			pages = append(pages, c)
		}
	}
	return pages
}

// nextID allocates the next free "<prefix>_nnnn" identifier. Numbers handed out
// once are never reused, even if the element is never attached.
func (d *Document) nextID(prefix string) string {
	if d.highest == nil {
		d.highest = make(map[string]int)
		visit := func(ds *DocStruct) {
			p, num, ok := strings.Cut(ds.ID, "_")
			if !ok {
				return
			}
			if n, err := strconv.Atoi(num); err == nil && n > d.highest[p] {
				d.highest[p] = n
			}
		}
		walk(d.Logical, visit)
		walk(d.Physical, visit)
	}
	d.highest[prefix]++
	return fmt.Sprintf("%s_%04d", prefix, d.highest[prefix])
}

func walk(ds *DocStruct, fn func(*DocStruct)) {
	if ds == nil {
		return
	}
	fn(ds)
	for _, c := range ds.Children {
		walk(c, fn)
	}
}

// AddChild appends child as the last child
func (ds *DocStruct) AddChild(child *DocStruct) {
	ds.Children = append(ds.Children, child)
}

// FirstChild returns the first child or nil
func (ds *DocStruct) FirstChild() *DocStruct {
	if len(ds.Children) == 0 {
		return nil
	}
	return ds.Children[0]
}

// MetadataByType returns all values of the given type
func (ds *DocStruct) MetadataByType(metadataType string) []Metadata {
	var out []Metadata
	for _, m := range ds.Metadata {
		if m.Type == metadataType {
			out = append(out, m)
		}
	}
	return out
}

// SetMetadata sets a single value of the given type, replacing any existing values.
// A type missing from prefs returns ErrUnknownMetadataType.
func (ds *DocStruct) SetMetadata(prefs *Prefs, metadataType, value string) error {
	if !prefs.HasMetadataType(metadataType) {
		return fmt.Errorf("%w: %s", ErrUnknownMetadataType, metadataType)
	}
	if !prefs.AllowsMetadata(ds.Type, metadataType) {
		return fmt.Errorf("%w: %s on %s", ErrMetadataNotAllowed, metadataType, ds.Type)
	}

	kept := ds.Metadata[:0]
	for _, m := range ds.Metadata {
		if m.Type != metadataType {
			kept = append(kept, m)
		}
	}
	ds.Metadata = append(kept, Metadata{Type: metadataType, Value: value})
	return nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
