package source

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/webp"
)

// DirFetcher serves locators from a local directory that mirrors the asset
// tree. A segment folder may also be packaged as a single document
// (<segment>.pdf or <segment>.cbz); its pages are then rasterized in order.
type DirFetcher struct {
	base string

	mu   sync.Mutex
	docs map[string]*DocumentFetcher
}

func NewDirFetcher(base string) (*DirFetcher, error) {
	fi, err := os.Stat(base)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s не является папкой", base)
	}
	return &DirFetcher{base: base, docs: make(map[string]*DocumentFetcher)}, nil
}

func (f *DirFetcher) Fetch(ctx context.Context, locator string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := filepath.Join(f.base, filepath.FromSlash(strings.TrimPrefix(locator, "/")))
	img, err := decodeFile(p)
	if err == nil || !os.IsNotExist(err) {
		return img, err
	}

	doc, derr := f.document(locator)
	if derr != nil {
		return nil, derr
	}
	if doc == nil {
		return nil, err
	}
	return doc.Fetch(ctx, locator)
}

// document returns a fitz-backed fetcher when the segment folder is packaged
// as a document, or nil when it is not.
func (f *DirFetcher) document(locator string) (*DocumentFetcher, error) {
	dir, _ := splitLocator(locator)
	folder := filepath.Join(f.base, filepath.FromSlash(strings.TrimPrefix(dir, "/")))

	f.mu.Lock()
	defer f.mu.Unlock()

	if doc, ok := f.docs[folder]; ok {
		return doc, nil
	}

	for _, ext := range documentExtensions {
		candidate := folder + ext
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		doc, err := NewDocumentFetcher(candidate)
		if err != nil {
			return nil, err
		}
		f.docs[folder] = doc
		return doc, nil
	}
	f.docs[folder] = nil
	return nil, nil
}

func (f *DirFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var first error
	for k, doc := range f.docs {
		if doc != nil {
			if err := doc.Close(); err != nil && first == nil {
				first = err
			}
		}
		delete(f.docs, k)
	}
	return first
}

func decodeFile(p string) (image.Image, error) {
	file, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", p, err)
	}
	return img, nil
}
