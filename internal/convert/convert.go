// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns uploaded documents into plain text for citation
// annotation. Text and Markdown files are read directly; PDF and DOCX
// files are piped through the markitdown container image.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/litreview/internal/container"
)

// ErrUnsupported is returned for file extensions no converter handles.
var ErrUnsupported = errors.New("unsupported document type")

// Converter extracts text from a document stream.
type Converter interface {
	Convert(ctx context.Context, r io.Reader) (string, error)
}

// Extensions lists the accepted document extensions.
var Extensions = []string{".txt", ".md", ".pdf", ".docx"}

// ForFile picks a converter by the extension of name. rt may be nil when
// only text documents are expected.
func ForFile(name string, rt container.Runtime) (Converter, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".txt", ".md", ".markdown":
		return TextConverter{}, nil
	case ".pdf", ".docx":
		if rt == nil {
			return nil, fmt.Errorf("converting %s files requires a container runtime", ext)
		}
		return &MarkitdownConverter{runtime: rt}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// File converts the document at path.
func File(ctx context.Context, path string, rt container.Runtime) (string, error) {
	c, err := ForFile(path, rt)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return c.Convert(ctx, f)
}

// TextConverter reads UTF-8 text and strips a leading byte-order mark.
type TextConverter struct{}

func (TextConverter) Convert(_ context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading document: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", errors.New("document is not valid UTF-8 text")
	}
	return string(data), nil
}
