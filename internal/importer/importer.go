// Package importer loads entity nodes from spreadsheet exports. Each row
// becomes a node upsert, optionally followed by an embedding event so the
// worker can backfill vectors.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/graph-resolver/internal/core/domain"
	"github.com/kirillkom/graph-resolver/internal/core/ports"
)

type Importer struct {
	writer ports.NodeWriter
	queue  ports.NodeEventQueue
	logger *slog.Logger
}

type Summary struct {
	Imported int
	Skipped  int
}

func New(writer ports.NodeWriter, queue ports.NodeEventQueue, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{writer: writer, queue: queue, logger: logger}
}

// ImportFile reads an xlsx sheet with a header row of name, tags, entity and
// id columns (name required, the rest optional) and upserts one node per row.
func (i *Importer) ImportFile(ctx context.Context, path, sheet, scope string) (Summary, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return Summary{}, fmt.Errorf("open workbook: %w", err)
	}
	defer file.Close()

	if sheet == "" {
		sheet = file.GetSheetName(0)
	}
	rows, err := file.GetRows(sheet)
	if err != nil {
		return Summary{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return Summary{}, nil
	}

	columns, err := headerColumns(rows[0])
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for rowIndex, row := range rows[1:] {
		record, ok := recordFromRow(columns, row, scope)
		if !ok {
			summary.Skipped++
			i.logger.Warn("import_row_skipped", "sheet", sheet, "row", rowIndex+2)
			continue
		}

		if err := i.writer.UpsertNode(ctx, record); err != nil {
			return summary, fmt.Errorf("upsert row %d: %w", rowIndex+2, err)
		}
		summary.Imported++

		if i.queue != nil {
			if err := i.queue.PublishNodeUpserted(ctx, record.ID); err != nil {
				i.logger.Warn("import_enqueue_failed", "node_id", record.ID, "error", err)
			}
		}
	}

	i.logger.Info("import_finished",
		"sheet", sheet,
		"imported", summary.Imported,
		"skipped", summary.Skipped,
	)
	return summary, nil
}

type columnMap struct {
	name   int
	tags   int
	entity int
	id     int
}

func headerColumns(header []string) (columnMap, error) {
	columns := columnMap{name: -1, tags: -1, entity: -1, id: -1}
	for index, cell := range header {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "name":
			columns.name = index
		case "tags":
			columns.tags = index
		case "entity":
			columns.entity = index
		case "id":
			columns.id = index
		}
	}
	if columns.name < 0 {
		return columns, fmt.Errorf("header row has no 'name' column")
	}
	return columns, nil
}

func recordFromRow(columns columnMap, row []string, scope string) (domain.NodeRecord, bool) {
	name := strings.TrimSpace(cellAt(row, columns.name))
	if name == "" {
		return domain.NodeRecord{}, false
	}

	id := strings.TrimSpace(cellAt(row, columns.id))
	if id == "" {
		id = uuid.NewString()
	}

	return domain.NodeRecord{
		ID:       id,
		Name:     name,
		Tags:     splitTags(cellAt(row, columns.tags)),
		IsEntity: parseEntityFlag(cellAt(row, columns.entity)),
		Scope:    scope,
	}, true
}

func cellAt(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return row[index]
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

func parseEntityFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "1", "y":
		return true
	default:
		return false
	}
}
