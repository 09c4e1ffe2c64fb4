package engine

import (
	"context"

	"github.com/Veraticus/mint-balance/internal/model"
)

// ExportDateLayout is the date format of exported rows.
const ExportDateLayout = "02.01.2006"

// ExportHeader names the columns of ExportRows.
func ExportHeader() []string {
	return []string{"Date", "Amount", "Category", "Note"}
}

// ExportRows renders every operation as display strings, newest first.
// Amounts are signed and shown in the display currency, or in the base
// when the display currency has no rate.
func (e *Engine) ExportRows(ctx context.Context) ([]model.ExportRow, error) {
	ops, err := e.Operations(ctx)
	if err != nil {
		return nil, err
	}

	display := e.renderCurrency()
	rows := make([]model.ExportRow, 0, len(ops))
	for _, op := range ops {
		amount, err := e.Convert(model.FromMinorUnits(op.Signed()), e.rates.Base(), display)
		if err != nil {
			return nil, err
		}
		rows = append(rows, model.ExportRow{
			Date:     op.Date.Format(ExportDateLayout),
			Amount:   model.FormatMoney(amount, display),
			Category: categoryLabel(op),
			Note:     op.Note,
		})
	}
	return rows, nil
}
