package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kenttraders/aimarketops/backend-go/internal/analytics"
	"github.com/rs/zerolog/log"
)

// FileSource lists and downloads files from a folder.
type FileSource interface {
	ListFiles(ctx context.Context, folderID string) ([]File, error)
	DownloadFile(ctx context.Context, fileID string, w io.Writer) error
}

var _ FileSource = (*Service)(nil)

// FileReport is the import outcome for one file.
type FileReport struct {
	Name string `json:"name"`
	analytics.ImportReport
}

// FolderReport sums the per file outcomes of ImportFolder.
type FolderReport struct {
	Files    []FileReport `json:"files"`
	Imported int          `json:"imported"`
	Skipped  int          `json:"skipped"`
}

// OrderFolderImporter feeds every CSV or XLSX file of a folder to an OrderImporter.
type OrderFolderImporter struct {
	source   FileSource
	importer *analytics.OrderImporter
}

func NewOrderFolderImporter(source FileSource, importer *analytics.OrderImporter) *OrderFolderImporter {
	return &OrderFolderImporter{source: source, importer: importer}
}

// ImportFolder imports files in name order and stops at the first failing file.
// Files that are neither CSV nor XLSX are ignored.
func (o *OrderFolderImporter) ImportFolder(ctx context.Context, folderID string) (FolderReport, error) {
	var report FolderReport

	files, err := o.source.ListFiles(ctx, folderID)
	if err != nil {
		return report, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		ext := strings.ToLower(filepath.Ext(f.Name))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}

		var raw bytes.Buffer
		if err := o.source.DownloadFile(ctx, f.ID, &raw); err != nil {
			return report, fmt.Errorf("failed to download %s: %w", f.Name, err)
		}

		data := &raw
		if ext == ".xlsx" {
			var converted bytes.Buffer
			if err := convertXLSXToCSV(&raw, &converted); err != nil {
				return report, fmt.Errorf("failed to convert %s to csv: %w", f.Name, err)
			}
			data = &converted
		}

		res, err := o.importer.ImportCSV(ctx, data)
		if err != nil {
			return report, fmt.Errorf("failed to import %s: %w", f.Name, err)
		}
		log.Info().Str("file", f.Name).Int("imported", res.Imported).Int("skipped", res.Skipped).Msg("drive: order file imported")

		report.Files = append(report.Files, FileReport{Name: f.Name, ImportReport: res})
		report.Imported += res.Imported
		report.Skipped += res.Skipped
	}
	return report, nil
}
