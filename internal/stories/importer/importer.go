// Package importer reconciles stock spreadsheets with the warehouse ledger.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"usta-bot/internal/infra/xlsx"
	"usta-bot/internal/stories/warehouse"
)

const maxReportedErrors = 5

var (
	modelAliases       = []string{"MODEL", "Model", "model"}
	categoryAliases    = []string{"CATEGORY", "Category", "category"}
	subcategoryAliases = []string{"SUB CATEGORY", "Sub Category", "sub category", "SUBCATEGORY", "Subcategory"}
	quantityAliases    = []string{"QUANTITY", "Quantity", "quantity"}
)

type ledger interface {
	UpsertFromImport(ctx context.Context, row warehouse.ImportRow) (warehouse.UpsertOutcome, error)
}

type Result struct {
	Imported int
	Updated  int
	Skipped  int
	Total    int
	// Errors holds the first few row errors; RemainingErrors counts the rest.
	Errors          []string
	RemainingErrors int
}

func (r *Result) addError(msg string) {
	r.Skipped++
	if len(r.Errors) < maxReportedErrors {
		r.Errors = append(r.Errors, msg)
		return
	}
	r.RemainingErrors++
}

type Importer struct {
	ledger ledger
	logger *slog.Logger
}

func New(ledger ledger, logger *slog.Logger) *Importer {
	return &Importer{ledger: ledger, logger: logger}
}

// Import reads the workbook and adds every row's quantity to the (model, region) stock row.
// A nil region targets the region-less rows. Importing the same file twice doubles quantities.
func (i *Importer) Import(ctx context.Context, data []byte, region *string) (Result, error) {
	rows, err := xlsx.ReadRows(data)
	if err != nil {
		return Result{}, errors.Wrap(err, "read workbook")
	}
	return i.ImportRows(ctx, rows, region), nil
}

func (i *Importer) ImportRows(ctx context.Context, rows []map[string]string, region *string) Result {
	res := Result{Total: len(rows)}

	for idx, row := range rows {
		rowNum := idx + 2

		model := lookup(row, modelAliases)
		if model == "" {
			res.addError(fmt.Sprintf("Qator %d: MODEL ustuni bo'sh", rowNum))
			continue
		}

		qty := 0
		if raw := lookup(row, quantityAliases); raw != "" {
			n, err := parseQuantity(raw)
			if err != nil {
				res.addError(fmt.Sprintf("Qator %d: QUANTITY noto'g'ri (%s)", rowNum, raw))
				continue
			}
			qty = n
		}

		outcome, err := i.ledger.UpsertFromImport(ctx, warehouse.ImportRow{
			Name:        model,
			Region:      region,
			Category:    optional(lookup(row, categoryAliases)),
			Subcategory: optional(lookup(row, subcategoryAliases)),
			Quantity:    qty,
		})
		if err != nil {
			i.logger.Error("Failed to import row",
				slog.Int("row", rowNum),
				slog.String("model", model),
				slog.Any("error", err))
			res.addError(fmt.Sprintf("Qator %d: %v", rowNum, err))
			continue
		}

		switch outcome {
		case warehouse.UpsertInserted:
			res.Imported++
		case warehouse.UpsertUpdated:
			res.Updated++
		}
	}

	return res
}

func lookup(row map[string]string, aliases []string) string {
	for _, a := range aliases {
		if v := strings.TrimSpace(row[a]); v != "" {
			return v
		}
	}
	return ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// parseQuantity accepts whole numbers, including spreadsheet renderings like "5.0".
func parseQuantity(raw string) (int, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 {
			return 0, errors.New("negative quantity")
		}
		return n, nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || f != float64(int(f)) {
		return 0, errors.New("not a whole number")
	}
	return int(f), nil
}
