// Package dataset reads and writes family snapshots as JSON or YAML files.
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanshika/kintrace/internal/domain"
)

// Format is a dataset encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DefaultFamilyID names a loaded family whose file carries no familyId.
const DefaultFamilyID = "default"

// ErrUnsupportedFormat is returned for file extensions other than .json, .yaml and .yml.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// FormatFor picks the encoding from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads a snapshot from path.
func Load(path string) (domain.FamilySnapshot, error) {
	format, err := FormatFor(path)
	if err != nil {
		return domain.FamilySnapshot{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return domain.FamilySnapshot{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	snap, err := Decode(f, format)
	if err != nil {
		return domain.FamilySnapshot{}, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	return snap, nil
}

// Decode reads one snapshot in the given format. A missing family id is
// replaced by DefaultFamilyID.
func Decode(r io.Reader, format Format) (domain.FamilySnapshot, error) {
	var snap domain.FamilySnapshot
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&snap); err != nil {
			return domain.FamilySnapshot{}, err
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&snap); err != nil && !errors.Is(err, io.EOF) {
			return domain.FamilySnapshot{}, err
		}
	default:
		return domain.FamilySnapshot{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	snap.FamilyID = strings.TrimSpace(snap.FamilyID)
	if snap.FamilyID == "" {
		snap.FamilyID = DefaultFamilyID
	}
	return snap, nil
}

// Write stores snap at path, creating or truncating the file.
func Write(path string, snap domain.FamilySnapshot) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	if err := Encode(f, format, snap); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode dataset %s: %w", path, err)
	}
	return f.Close()
}

// Encode writes snap in the given format.
func Encode(w io.Writer, format Format, snap domain.FamilySnapshot) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Source serves snapshots held in memory. It satisfies the family service's
// source contract for file-backed runs.
type Source struct {
	families map[string]domain.FamilySnapshot
}

// NewSource indexes the snapshots by family id. Later snapshots replace
// earlier ones with the same id.
func NewSource(snaps ...domain.FamilySnapshot) *Source {
	s := &Source{families: make(map[string]domain.FamilySnapshot, len(snaps))}
	for _, snap := range snaps {
		s.families[snap.FamilyID] = snap
	}
	return s
}

// LoadFamily returns the snapshot registered under familyID.
func (s *Source) LoadFamily(ctx context.Context, familyID string) (domain.FamilySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.FamilySnapshot{}, err
	}
	snap, ok := s.families[familyID]
	if !ok {
		return domain.FamilySnapshot{}, fmt.Errorf("%w: %s", domain.ErrFamilyNotFound, familyID)
	}
	return snap, nil
}
