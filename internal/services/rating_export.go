package services

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	resumoSheet      = "Resumo"
	comentariosSheet = "Comentarios"
)

// WriteReportXLSX renders the ratings report as a spreadsheet with one sheet
// for the per-menu averages and one for the latest comments.
func WriteReportXLSX(w io.Writer, report *RatingReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resumoSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(comentariosSheet); err != nil {
		return err
	}

	headers := []string{"Data", "Refeição", "Avaliações", "Sabor", "Temperatura", "Atendimento", "Limpeza", "Geral"}
	if err := writeHeader(f, resumoSheet, headers); err != nil {
		return err
	}
	for i, r := range report.Resumo {
		row := i + 2
		values := []any{r.DataRef, r.Refeicao, r.TotalAvaliacoes,
			cellFloat(r.MediaSabor), cellFloat(r.MediaTemperatura), cellFloat(r.MediaAtendimento),
			cellFloat(r.MediaLimpeza), cellFloat(r.MediaGeral)}
		if err := f.SetSheetRow(resumoSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
	}

	if err := writeHeader(f, comentariosSheet, []string{"Autor", "Nota geral", "Comentário", "Data"}); err != nil {
		return err
	}
	for i, c := range report.Comentarios {
		row := i + 2
		var nota any
		if c.NotaGeral != nil {
			nota = *c.NotaGeral
		}
		values := []any{c.Autor, nota, c.Comentario, c.CriadoEm.Format("02/01/2006 15:04")}
		if err := f.SetSheetRow(comentariosSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(comentariosSheet, "C", "C", 60)

	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}
	return nil
}

// nil averages (menus nobody rated) stay blank
func cellFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
