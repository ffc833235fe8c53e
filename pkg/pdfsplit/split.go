package pdfsplit

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Page is a single-page document produced from a larger PDF.
type Page struct {
	Name   string
	Number int
	Data   []byte
}

// SplitPages splits a PDF into one document per page. Page names are
// derived from the source name: report.pdf yields report_1.pdf,
// report_2.pdf, and so on, in page order.
func SplitPages(name string, data []byte) ([]Page, error) {
	dir, err := os.MkdirTemp("", "pdfsplit-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	base := strings.TrimSuffix(name, filepath.Ext(name))

	if err := api.Split(bytes.NewReader(data), dir, base+".pdf", 1, nil); err != nil {
		return nil, fmt.Errorf("split %s: %w", name, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read split output: %w", err)
	}

	pages := make([]Page, 0, len(entries))
	for _, entry := range entries {
		number, ok := pageNumber(base, entry.Name())
		if !ok {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read page %s: %w", entry.Name(), err)
		}
		pages = append(pages, Page{
			Name:   entry.Name(),
			Number: number,
			Data:   content,
		})
	}

	sort.Slice(pages, func(i, j int) bool {
		return pages[i].Number < pages[j].Number
	})

	return pages, nil
}

// pageNumber extracts N from "<base>_N.pdf".
func pageNumber(base, filename string) (int, bool) {
	trimmed := strings.TrimSuffix(filename, ".pdf")
	rest, found := strings.CutPrefix(trimmed, base+"_")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}
