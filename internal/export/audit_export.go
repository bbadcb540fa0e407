// Package export renders audit log pages into downloadable spreadsheets. The
// exporter drives the same validated list query the API serves, walking cursor
// pages until the log is exhausted so the file never needs an offset scan.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lumenhq/adminapi/internal/domain"
	"github.com/lumenhq/adminapi/internal/listquery"
	"github.com/lumenhq/adminapi/internal/repository"
)

const (
	auditSheetName  = "Audit Log"
	// defaultPageSize stays under the builder's limit cap so pages are never
	// silently clamped.
	defaultPageSize = 250
	defaultMaxRows  = 1_000_000
)

var auditHeaders = []string{
	"ID", "Trace ID", "Actor ID", "Actor Session ID", "Action",
	"Target ID", "Field", "Old Value", "New Value", "Reason", "Created At",
}

// AuditLister is the read capability the exporter pages over.
type AuditLister interface {
	List(ctx context.Context, query listquery.ListQuery) (repository.AuditPage, error)
}

// Service streams audit log exports.
type Service struct {
	audit    AuditLister
	builder  *listquery.Builder
	pageSize int
	maxRows  int
}

// Option customizes a Service.
type Option func(*Service)

// WithPageSize overrides the rows fetched per cursor page.
func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithMaxRows bounds the total rows written to one file.
func WithMaxRows(max int) Option {
	return func(s *Service) {
		if max > 0 {
			s.maxRows = max
		}
	}
}

// NewService creates an export service over the given audit lister. The
// builder must be the same one the audit list endpoint uses, so exported
// filters and sorts behave identically to the API.
func NewService(audit AuditLister, builder *listquery.Builder, opts ...Option) *Service {
	service := &Service{
		audit:    audit,
		builder:  builder,
		pageSize: defaultPageSize,
		maxRows:  defaultMaxRows,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Request carries the caller's filter and sort selection for an export.
type Request struct {
	Sort    string
	Filters []listquery.RawFilter
}

// ExportXLSX writes the matching audit entries as a spreadsheet. Invalid sort
// or filter input surfaces as a listquery.ValidationError so handlers can map
// it to a client error.
func (s *Service) ExportXLSX(ctx context.Context, req Request, w io.Writer) (int, error) {
	query, err := s.builder.Build(listquery.Input{
		Limit:   fmt.Sprintf("%d", s.pageSize),
		Sort:    req.Sort,
		Filters: req.Filters,
	})
	if err != nil {
		return 0, err
	}

	file := excelize.NewFile()
	defer file.Close()
	if err := file.SetSheetName(file.GetSheetName(0), auditSheetName); err != nil {
		return 0, fmt.Errorf("failed to name export sheet: %w", err)
	}
	stream, err := file.NewStreamWriter(auditSheetName)
	if err != nil {
		return 0, fmt.Errorf("failed to open stream writer: %w", err)
	}

	if err := writeRow(stream, 1, headerCells()); err != nil {
		return 0, err
	}

	rows := 0
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		page, err := s.audit.List(ctx, query)
		if err != nil {
			return 0, fmt.Errorf("failed to load audit page: %w", err)
		}
		for _, entry := range page.Entries {
			if rows >= s.maxRows {
				return 0, fmt.Errorf("export exceeds %d rows; narrow the filters", s.maxRows)
			}
			rows++
			if err := writeRow(stream, rows+1, entryCells(entry)); err != nil {
				return 0, err
			}
		}
		if !page.HasMore {
			break
		}
		query, err = s.builder.Build(listquery.Input{
			Limit:   fmt.Sprintf("%d", s.pageSize),
			Sort:    req.Sort,
			Filters: req.Filters,
			Cursor:  page.NextCursor,
		})
		if err != nil {
			// Cursors we minted ourselves decode cleanly; a failure here means
			// the sort allowlist changed mid-export.
			return 0, fmt.Errorf("failed to rebuild export query: %w", err)
		}
	}

	if err := stream.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush export rows: %w", err)
	}
	if err := file.Write(w); err != nil {
		return 0, fmt.Errorf("failed to write workbook: %w", err)
	}
	return rows, nil
}

// FileName returns a timestamped download name for an export.
func FileName(now time.Time) string {
	return "audit-log-" + now.UTC().Format("20060102-150405") + ".xlsx"
}

func writeRow(stream *excelize.StreamWriter, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to compute cell coordinates: %w", err)
	}
	if err := stream.SetRow(cell, cells); err != nil {
		return fmt.Errorf("failed to write export row: %w", err)
	}
	return nil
}

func headerCells() []any {
	cells := make([]any, len(auditHeaders))
	for i, header := range auditHeaders {
		cells[i] = excelize.Cell{Value: header, StyleID: 0}
	}
	return cells
}

func entryCells(e domain.AuditEntry) []any {
	return []any{
		e.ID.String(),
		e.TraceID,
		e.ActorID.String(),
		e.ActorSessionID.String(),
		string(e.Action),
		e.TargetID.String(),
		e.Field,
		e.OldValue,
		e.NewValue,
		e.Reason,
		e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// IsValidationError reports whether an export failure came from caller input.
func IsValidationError(err error) bool {
	var verr *listquery.ValidationError
	return errors.As(err, &verr)
}
