package achievements

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Catalog is an immutable, ordered set of definitions. It is safe for
// concurrent use.
type Catalog struct {
	defs []Definition
	byID map[string]int
}

// NewCatalog validates defs and builds a catalog. IDs must be unique.
func NewCatalog(defs ...Definition) (*Catalog, error) {
	c := &Catalog{defs: make([]Definition, 0, len(defs)), byID: make(map[string]int, len(defs))}
	var errs []error
	for _, d := range defs {
		d.ID = strings.TrimSpace(d.ID)
		if err := d.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := c.byID[d.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate achievement id %q", d.ID))
			continue
		}
		if d.Rarity == "" {
			d.Rarity = RarityCommon
		}
		c.byID[d.ID] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

// Len returns the number of definitions.
func (c *Catalog) Len() int { return len(c.defs) }

// Definitions returns a copy of the definitions in catalog order.
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Get looks up a definition by id.
func (c *Catalog) Get(id string) (Definition, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// Check returns the definitions that are met by s, still available at now
// and not yet in unlocked, in catalog order.
func (c *Catalog) Check(s Snapshot, unlocked map[string]bool, now time.Time) []Definition {
	var out []Definition
	for _, d := range c.defs {
		if unlocked[d.ID] || !d.Available(now) {
			continue
		}
		if d.Met(s) {
			out = append(out, d)
		}
	}
	return out
}

type catalogFile struct {
	Achievements []Definition `json:"achievements" toml:"achievements"`
}

// Format names a catalog file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))
}

// ParseCatalog decodes a catalog document.
func ParseCatalog(data []byte, format Format) (*Catalog, error) {
	var f catalogFile
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode json catalog: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, fmt.Errorf("decode toml catalog: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return nil, fmt.Errorf("decode toml catalog: unknown keys %s", strings.Join(keys, ", "))
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	if len(f.Achievements) == 0 {
		return nil, errors.New("catalog has no achievements")
	}
	return NewCatalog(f.Achievements...)
}

// LoadCatalog reads a JSON or TOML catalog from path.
func LoadCatalog(path string) (*Catalog, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data, format)
}

// LoadCatalogOrDefault loads the catalog at path and falls back to
// DefaultCatalog when path is empty or cannot be loaded. It never returns a
// catalog with zero definitions.
func LoadCatalogOrDefault(path string, logger *slog.Logger) *Catalog {
	if path == "" {
		return DefaultCatalog()
	}
	c, err := LoadCatalog(path)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("achievement catalog unavailable, using built-in definitions",
			"path", path, "error", err)
		return DefaultCatalog()
	}
	return c
}
