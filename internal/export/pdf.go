/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin    = 10.0 // mm
	pdfRowHeight = 6.0
	pdfFontSize  = 9.0
	pdfMinCol    = 12.0
)

// writePDF lays the table out on landscape A4 pages. The header row is
// repeated at the top of every page and cells are cut to the column width.
func writePDF(path string, t table, title string) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetCreator("csvedit", true)
	if title != "" {
		pdf.SetTitle(title, true)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", pdfFontSize)

	pageW, pageH := pdf.GetPageSize()
	widths := pdfColumnWidths(pdf, t, pageW-2*pdfMargin, tr)

	drawRow := func(cells []string, style string, fill bool) {
		pdf.SetFont("Helvetica", style, pdfFontSize)
		for i, w := range widths {
			pdf.CellFormat(w, pdfRowHeight, fitText(pdf, tr(cells[i]), w-2), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}
	headerCells := make([]string, len(t.headers))
	for i := range t.headers {
		headerCells[i] = t.label(i)
	}
	newPage := func(first bool) {
		pdf.AddPage()
		if first && title != "" {
			pdf.SetFont("Helvetica", "B", 14)
			pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
		}
		if len(widths) > 0 {
			pdf.SetFillColor(221, 221, 221)
			drawRow(headerCells, "B", true)
		}
	}

	newPage(true)
	for _, row := range t.rows {
		if pdf.GetY()+pdfRowHeight > pageH-pdfMargin {
			newPage(false)
		}
		drawRow(row, "", false)
	}
	return pdf.OutputFileAndClose(path)
}

// pdfColumnWidths distributes the printable width in proportion to each
// column's widest text, never narrower than pdfMinCol.
func pdfColumnWidths(pdf *gofpdf.Fpdf, t table, avail float64, tr func(string) string) []float64 {
	n := len(t.headers)
	if n == 0 {
		return nil
	}
	want := make([]float64, n)
	total := 0.0
	for i := range want {
		w := pdf.GetStringWidth(tr(t.label(i)))
		for _, row := range t.rows {
			w = max(w, pdf.GetStringWidth(tr(row[i])))
		}
		want[i] = max(w+2, pdfMinCol)
		total += want[i]
	}
	if total <= avail {
		return want
	}
	scale := avail / total
	for i := range want {
		want[i] = max(want[i]*scale, pdfMinCol)
	}
	return want
}

// fitText shortens s with "..." until it fits into width.
func fitText(pdf *gofpdf.Fpdf, s string, width float64) string {
	s = strings.Join(strings.Fields(s), " ")
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
