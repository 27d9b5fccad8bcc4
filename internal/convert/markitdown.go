// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/litreview/internal/container"
)

const imageMarkitdown = "markitdown:latest"

// MarkitdownConverter pipes documents through the markitdown container.
type MarkitdownConverter struct {
	runtime container.Runtime
}

// NewMarkitdownConverter verifies that the markitdown image is present in
// rt before returning a converter.
func NewMarkitdownConverter(ctx context.Context, rt container.Runtime) (*MarkitdownConverter, error) {
	if err := rt.ImageExists(ctx, imageMarkitdown); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownConverter{runtime: rt}, nil
}

func (m *MarkitdownConverter) Convert(ctx context.Context, r io.Reader) (string, error) {
	var out bytes.Buffer
	if err := m.runtime.Run(ctx, imageMarkitdown, r, &out); err != nil {
		return "", fmt.Errorf("converting with markitdown: %w", err)
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("markitdown produced empty output")
	}
	return out.String(), nil
}
