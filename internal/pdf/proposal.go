package pdf

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/soinechankit/Soinech-CRM/internal/models"
)

// Generator is the interface handlers depend on (easy to mock in tests).
type Generator interface {
	RenderProposal(w io.Writer, data ProposalData) error
}

// ProposalGenerator renders proposals as A4 documents. Without a FontPath it
// falls back to the built-in Helvetica, which only covers Latin-1.
type ProposalGenerator struct {
	FontPath    string
	CompanyName string
	fontName    string
}

type ProposalData struct {
	Proposal   *models.Proposal
	ClientName string
	IssuedAt   time.Time
}

func NewProposalGenerator(fontPath, companyName string) *ProposalGenerator {
	g := &ProposalGenerator{FontPath: fontPath, CompanyName: companyName, fontName: "Helvetica"}
	if fontPath != "" {
		g.fontName = "DejaVu"
	}
	return g
}

func (g *ProposalGenerator) RenderProposal(w io.Writer, data ProposalData) error {
	p := data.Proposal
	if p == nil {
		return fmt.Errorf("render proposal: nil proposal")
	}
	issued := data.IssuedAt
	if issued.IsZero() {
		issued = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(p.Title, true)
	pdf.SetAuthor(g.CompanyName, true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	g.addFont(pdf)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// ===== Header
	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, "PROPOSAL", "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 12)
	pdf.CellFormat(0, 7, p.Title, "", 1, "C", false, 0, "")
	g.hr(pdf)
	pdf.Ln(3)

	g.sectionTitle(pdf, "Details")
	g.kvLine(pdf, "From", g.CompanyName)
	if data.ClientName != "" {
		g.kvLine(pdf, "Prepared for", data.ClientName)
	}
	g.kvLine(pdf, "Issued", issued.Format("02 Jan 2006"))
	if p.ValidUntil != nil {
		g.kvLine(pdf, "Valid until", p.ValidUntil.Format("02 Jan 2006"))
	}
	g.kvLine(pdf, "Status", string(p.Status))
	if p.Description != nil && *p.Description != "" {
		pdf.Ln(2)
		pdf.SetFont(g.fontName, "", 11)
		pdf.MultiCell(0, 6, *p.Description, "", "L", false)
	}
	pdf.Ln(2)
	g.hr(pdf)

	if len(p.Items) > 0 {
		g.sectionTitle(pdf, "Items")
		g.itemsTable(pdf, p.Items)
		pdf.Ln(2)
	}

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(130, 8, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, p.TotalValue.StringFixed(2), "T", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render proposal: %w", err)
	}
	return nil
}

func (g *ProposalGenerator) itemsTable(pdf *gofpdf.Fpdf, items []models.ProposalItem) {
	widths := []float64{90, 20, 30, 30}
	pdf.SetFont(g.fontName, "B", 10)
	for i, h := range []string{"Item", "Qty", "Unit price", "Amount"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 7, h, "B", 0, align, false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(g.fontName, "", 10)
	for _, it := range items {
		pdf.CellFormat(widths[0], 6, it.Name, "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprintf("%d", it.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, it.UnitPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, it.Total().StringFixed(2), "", 1, "R", false, 0, "")
	}
}

func (g *ProposalGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *ProposalGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *ProposalGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}

func (g *ProposalGenerator) addFont(pdf *gofpdf.Fpdf) {
	if g.FontPath == "" {
		return
	}
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
}
