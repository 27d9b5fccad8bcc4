// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes the review with id, including papers, as YAML.
func (s *Store) ExportYAML(ctx context.Context, id string, w io.Writer) error {
	r, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes the review with id, including papers, as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, id string, w io.Writer) error {
	r, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}
