package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"kinotut-bot/internal/catalog"
)

// File keeps the catalog as an indented JSON document on disk.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string { return f.path }

func (f *File) Load(ctx context.Context) (*catalog.Document, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s does not exist", catalog.ErrNotInitialized, f.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var doc catalog.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", f.path, err)
	}
	normalize(&doc)
	return &doc, nil
}

// Save writes to a temp file next to the target and renames it into place.
func (f *File) Save(ctx context.Context, doc *catalog.Document) error {
	b, err := encode(doc)
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

// Init creates an empty catalog if the file does not exist yet.
func (f *File) Init(ctx context.Context) error {
	if _, err := os.Stat(f.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return f.Save(ctx, catalog.NewDocument())
}

func (f *File) Close(ctx context.Context) error { return nil }

func encode(doc *catalog.Document) ([]byte, error) {
	out := *doc
	normalize(&out)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&out); err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	return buf.Bytes(), nil
}

func normalize(doc *catalog.Document) {
	if doc.Genres == nil {
		doc.Genres = []string{}
	}
	if doc.Movies == nil {
		doc.Movies = []catalog.Movie{}
	}
}
