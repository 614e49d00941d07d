package source

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"
)

var documentExtensions = []string{".cbz", ".pdf"}

// DocumentFetcher rasterizes frames from a segment packaged as one document
// (PDF or CBZ). Local frame N is page N-1.
type DocumentFetcher struct {
	DPI float64

	mu   sync.Mutex
	doc  *fitz.Document
	path string
}

func NewDocumentFetcher(path string) (*DocumentFetcher, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open document %s: %w", path, err)
	}
	return &DocumentFetcher{DPI: 150, doc: doc, path: path}, nil
}

func (d *DocumentFetcher) PageCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.NumPage()
}

func (d *DocumentFetcher) Fetch(ctx context.Context, locator string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	local, err := LocalIndex(locator)
	if err != nil {
		return nil, err
	}

	// fitz documents are not safe for concurrent rendering
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.doc == nil {
		return nil, fmt.Errorf("document %s closed", d.path)
	}
	if local > d.doc.NumPage() {
		return nil, fmt.Errorf("document %s: page %d out of %d", d.path, local, d.doc.NumPage())
	}
	return d.doc.ImageDPI(local-1, d.DPI)
}

func (d *DocumentFetcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.doc == nil {
		return nil
	}
	err := d.doc.Close()
	d.doc = nil
	return err
}

// LocalIndex extracts the 1-based local frame number from a locator such as
// "/assets/stairs/ezgif-frame-007.jpg".
func LocalIndex(locator string) (int, error) {
	_, file := splitLocator(locator)
	i := strings.LastIndex(file, "-frame-")
	if i < 0 {
		return 0, fmt.Errorf("locator %q has no frame number", locator)
	}
	digits := file[i+len("-frame-"):]
	if dot := strings.IndexByte(digits, '.'); dot >= 0 {
		digits = digits[:dot]
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("locator %q has no frame number", locator)
	}
	return n, nil
}
