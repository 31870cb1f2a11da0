package export

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"notekeeper/internal/library"
)

// PDF renders libraries and notes into PDF documents.
type PDF struct{}

func NewPDF() PDF { return PDF{} }

// Library renders every folder with its notes, in library order.
func (PDF) Library(lib library.Library) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	title(doc, "Library")

	for _, f := range lib {
		doc.SetFont("Helvetica", "B", 14)
		doc.CellFormat(0, 8, fmt.Sprintf("%d. %s", f.Order, f.Name), "", 1, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 10)
		doc.CellFormat(0, 6, fmt.Sprintf("color %s, default: %v", f.Color, f.IsDefault), "", 1, "L", false, 0, "")
		doc.Ln(2)

		for _, n := range f.Notes {
			writeNote(doc, n)
		}
		doc.Ln(4)
	}

	return output(doc)
}

// Notes renders a flat list of notes under one heading, used for bin backups.
func (PDF) Notes(heading string, notes []library.Note) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	title(doc, heading)

	for _, n := range notes {
		writeNote(doc, n)
	}

	return output(doc)
}

func title(doc *fpdf.Fpdf, text string) {
	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 12, text, "", 1, "C", false, 0, "")
	doc.Ln(4)
}

func writeNote(doc *fpdf.Fpdf, n library.Note) {
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 7, n.Title, "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.MultiCell(0, 5, n.Body, "", "L", false)
	meta := fmt.Sprintf("updated %s", n.UpdatedAt)
	if n.Trashed {
		meta += fmt.Sprintf(", trashed until %s", n.DeletedDate)
	}
	doc.SetFont("Helvetica", "I", 9)
	doc.CellFormat(0, 5, meta, "", 1, "L", false, 0, "")
	doc.Ln(2)
}

func output(doc *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
