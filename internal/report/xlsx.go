package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// WriteXLSX saves the evaluation, and outcome statistics when given, as an
// XLSX workbook at path.
func WriteXLSX(path string, ev *Evaluation, outcomes *OutcomeStats) error {
	f := xlsx.NewFile()

	if ev != nil {
		if err := evaluationSheet(f, ev); err != nil {
			return err
		}
	}
	if outcomes != nil {
		if err := outcomesSheet(f, outcomes); err != nil {
			return err
		}
	}
	if len(f.Sheets) == 0 {
		return eris.New("xlsx: nothing to export")
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func evaluationSheet(f *xlsx.File, ev *Evaluation) error {
	sheet, err := f.AddSheet("Evaluation")
	if err != nil {
		return eris.Wrap(err, "xlsx: add evaluation sheet")
	}

	addRow(sheet, "Predictor", "N", "RMSE", "Accuracy", "Brier", "Macro-F1")
	metricsRow(sheet, "forecast", ev.N, ev.Forecast).AddCell().SetFloat(ev.MacroF1)
	metricsRow(sheet, "most common: "+ev.ModeGrade, ev.N, ev.Mode)
	metricsRow(sheet, "random", ev.N, ev.Random)

	dist, err := f.AddSheet("Distribution")
	if err != nil {
		return eris.Wrap(err, "xlsx: add distribution sheet")
	}
	addRow(dist, "Grade", "Truth", "Forecast")
	for _, d := range ev.Distribution {
		row := dist.AddRow()
		row.AddCell().SetString(d.Grade)
		row.AddCell().SetInt(d.Truth)
		row.AddCell().SetInt(d.Forecast)
	}
	return nil
}

func metricsRow(sheet *xlsx.Sheet, name string, n int, m Metrics) *xlsx.Row {
	row := sheet.AddRow()
	row.AddCell().SetString(name)
	row.AddCell().SetInt(n)
	row.AddCell().SetFloat(m.RMSE)
	row.AddCell().SetFloat(m.Accuracy)
	row.AddCell().SetFloat(m.Brier)
	return row
}

func outcomesSheet(f *xlsx.File, st *OutcomeStats) error {
	sheet, err := f.AddSheet("Outcomes")
	if err != nil {
		return eris.Wrap(err, "xlsx: add outcomes sheet")
	}
	addRow(sheet, "Term", "Informative")
	for _, tc := range st.ByTerm {
		row := sheet.AddRow()
		row.AddCell().SetString(tc.Term)
		row.AddCell().SetInt(tc.Count)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}
