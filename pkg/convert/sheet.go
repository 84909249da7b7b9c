package convert

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

// XLSXToCSV writes the first worksheet of in as CSV.
func XLSXToCSV(ctx context.Context, in, out string) error {
	f, err := excelize.OpenFile(in)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	dst, err := os.Create(out)
	if err != nil {
		return err
	}
	w := csv.NewWriter(dst)
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			_ = dst.Close()
			return err
		}
		if err := w.Write(row); err != nil {
			_ = dst.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// CSVToXLSX writes in as the single sheet of a new workbook.
func CSVToXLSX(ctx context.Context, in, out string) error {
	src, err := os.Open(in)
	if err != nil {
		return err
	}
	defer src.Close()

	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i := 1; ; i++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read csv line %d: %w", i, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, i)
		if err != nil {
			return err
		}
		values := make([]any, len(record))
		for j, v := range record {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return f.SaveAs(out)
}
