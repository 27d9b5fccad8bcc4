// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRuntime implements container.Runtime with canned output.
type fakeRuntime struct {
	output   string
	runErr   error
	imageErr error
	gotInput string
}

func (f *fakeRuntime) Name() string { return "fake" }
func (f *fakeRuntime) Available(context.Context) bool { return true }
func (f *fakeRuntime) ImageExists(context.Context, string) error { return f.imageErr }

func (f *fakeRuntime) Run(_ context.Context, _ string, stdin io.Reader, stdout io.Writer) error {
	data, _ := io.ReadAll(stdin)
	f.gotInput = string(data)
	if f.runErr != nil {
		return f.runErr
	}
	_, err := io.WriteString(stdout, f.output)
	return err
}

func TestForFile(t *testing.T) {
	rt := &fakeRuntime{}
	tests := []struct {
		name     string
		rt       *fakeRuntime
		wantText bool
		wantMD   bool
		wantErr  error
	}{
		{name: "notes.txt", rt: rt, wantText: true},
		{name: "README.MD", wantText: true},
		{name: "paper.pdf", rt: rt, wantMD: true},
		{name: "thesis.docx", rt: rt, wantMD: true},
		{name: "image.png", rt: rt, wantErr: ErrUnsupported},
		{name: "noext", rt: rt, wantErr: ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Converter
			var err error
			if tt.rt == nil {
				c, err = ForFile(tt.name, nil)
			} else {
				c, err = ForFile(tt.name, tt.rt)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if _, ok := c.(TextConverter); ok != tt.wantText {
				t.Errorf("TextConverter = %v, want %v", ok, tt.wantText)
			}
			if _, ok := c.(*MarkitdownConverter); ok != tt.wantMD {
				t.Errorf("MarkitdownConverter = %v, want %v", ok, tt.wantMD)
			}
		})
	}
}

func TestForFilePDFWithoutRuntime(t *testing.T) {
	_, err := ForFile("paper.pdf", nil)
	if err == nil || !strings.Contains(err.Error(), "container runtime") {
		t.Errorf("err = %v", err)
	}
}

func TestTextConverter(t *testing.T) {
	got, err := TextConverter{}.Convert(context.Background(), strings.NewReader("\xef\xbb\xbfHello [1]"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "Hello [1]" {
		t.Errorf("got %q", got)
	}

	if _, err := (TextConverter{}).Convert(context.Background(), strings.NewReader("\xff\xfe\xfd")); err == nil {
		t.Error("expected error for invalid UTF-8")
	}
}

func TestMarkitdownConverter(t *testing.T) {
	rt := &fakeRuntime{output: "# Converted\n"}
	c, err := NewMarkitdownConverter(context.Background(), rt)
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Convert(context.Background(), strings.NewReader("%PDF-1.7"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "# Converted\n" || rt.gotInput != "%PDF-1.7" {
		t.Errorf("got %q from input %q", got, rt.gotInput)
	}
}

func TestMarkitdownConverterErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := NewMarkitdownConverter(ctx, &fakeRuntime{imageErr: errors.New("no image")}); err == nil {
		t.Error("expected error for missing image")
	}

	c := &MarkitdownConverter{runtime: &fakeRuntime{runErr: errors.New("exit status 1")}}
	if _, err := c.Convert(ctx, strings.NewReader("x")); err == nil || !strings.Contains(err.Error(), "markitdown") {
		t.Errorf("run failure err = %v", err)
	}

	c = &MarkitdownConverter{runtime: &fakeRuntime{}}
	if _, err := c.Convert(ctx, strings.NewReader("x")); err == nil || !strings.Contains(err.Error(), "empty output") {
		t.Errorf("empty output err = %v", err)
	}
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "draft.md")
	if err := os.WriteFile(path, []byte("As shown in [2]."), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := File(context.Background(), path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "As shown in [2]." {
		t.Errorf("got %q", got)
	}

	if _, err := File(context.Background(), filepath.Join(dir, "missing.txt"), nil); err == nil {
		t.Error("expected error for missing file")
	}
}
