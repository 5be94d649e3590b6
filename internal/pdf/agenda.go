package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
)

var diasPT = map[time.Weekday]string{
	time.Sunday:    "domingo",
	time.Monday:    "segunda",
	time.Tuesday:   "terça",
	time.Wednesday: "quarta",
	time.Thursday:  "quinta",
	time.Friday:    "sexta",
	time.Saturday:  "sábado",
}

// AgendaEntry é uma linha da agenda exportada.
type AgendaEntry struct {
	DataHora    time.Time
	ClienteNome string
	Telefone    string
	Status      string
	Sintomas    string
}

// BuildAgendaPDF gera o PDF da agenda do massoterapeuta no período dado, com
// QR apontando para a agenda no site. As entradas vêm já ordenadas por data.
func BuildAgendaPDF(massoterapeutaNome string, inicio, fim time.Time, entries []AgendaEntry, agendaURL string) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(15, 15, 15)
	doc.SetAutoPageBreak(true, 15)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 14)
	doc.CellFormat(0, 8, "Agenda de atendimentos", "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(0, 6, massoterapeutaNome, "", 1, "L", false, 0, "")
	doc.CellFormat(0, 6, fmt.Sprintf("Período: %s a %s", inicio.Format("02/01/2006"), fim.Format("02/01/2006")), "", 1, "L", false, 0, "")
	doc.Ln(4)

	if len(entries) == 0 {
		doc.CellFormat(0, 6, "Nenhum atendimento no período.", "", 1, "L", false, 0, "")
	}

	var diaAtual string
	for _, e := range entries {
		dia := fmt.Sprintf("%s (%s)", e.DataHora.Format("02/01/2006"), diasPT[e.DataHora.Weekday()])
		if dia != diaAtual {
			diaAtual = dia
			doc.Ln(2)
			doc.SetFont("Helvetica", "B", 11)
			doc.CellFormat(0, 7, dia, "B", 1, "L", false, 0, "")
			doc.SetFont("Helvetica", "", 10)
		}
		linha := fmt.Sprintf("%s  %s  [%s]", e.DataHora.Format("15:04"), e.ClienteNome, e.Status)
		if e.Telefone != "" {
			linha += "  " + e.Telefone
		}
		doc.CellFormat(0, 6, linha, "", 1, "L", false, 0, "")
		if e.Sintomas != "" {
			doc.SetFont("Helvetica", "I", 9)
			doc.MultiCell(0, 5, "    "+e.Sintomas, "", "", false)
			doc.SetFont("Helvetica", "", 10)
		}
	}

	if agendaURL != "" {
		qrPNG, err := qrcode.Encode(agendaURL, qrcode.Medium, 128)
		if err == nil {
			opts := fpdf.ImageOptions{ImageType: "PNG"}
			doc.RegisterImageOptionsReader("agenda-qr", opts, bytes.NewReader(qrPNG))
			doc.Ln(6)
			doc.ImageOptions("agenda-qr", 15, doc.GetY(), 28, 28, false, opts, 0, "")
			doc.SetY(doc.GetY() + 30)
			doc.SetFont("Helvetica", "", 8)
			doc.CellFormat(0, 5, "Agenda atualizada: "+agendaURL, "", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
