package kids

import (
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/domain"
)

// Label is the printed tag a guardian keeps to pick the child up
type Label struct {
	Child       string
	Code        string
	Guardian    string
	Phone       string
	Allergies   string
	GeneratedAt time.Time
}

// NewLabel builds the label of a session
func NewLabel(s domain.KidsCheckIn, now time.Time) Label {
	return Label{
		Child:       s.NomeCrianca,
		Code:        s.CodigoSeguranca,
		Guardian:    s.NomeResponsavel,
		Phone:       FormatPhone(s.TelefoneResponsavel),
		Allergies:   strings.TrimSpace(s.Alergias),
		GeneratedAt: now,
	}
}

var labelTemplate = template.Must(template.New("label").Parse(`================================
 KIDS
================================
Criança:     {{.Child}}
Código:      {{.Code}}
Responsável: {{.Guardian}}
Telefone:    {{.Phone}}
{{- if .Allergies}}
--------------------------------
ALERGIAS: {{.Allergies}}
{{- end}}
--------------------------------
Gerado em {{.GeneratedAt.Format "02/01/2006 15:04"}}
================================
`))

// RenderLabel writes the label as plain text for a receipt printer
func RenderLabel(w io.Writer, l Label) error {
	return labelTemplate.Execute(w, l)
}

// FormatPhone formats a Brazilian phone number as (DD) DDDDD-DDDD or
// (DD) DDDD-DDDD. A leading 55 country code is dropped. Other lengths are
// returned as digits.
func FormatPhone(phone string) string {
	d := domain.OnlyDigits(phone)
	if (len(d) == 12 || len(d) == 13) && strings.HasPrefix(d, "55") {
		d = d[2:]
	}
	switch len(d) {
	case 11:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	case 10:
		return "(" + d[:2] + ") " + d[2:6] + "-" + d[6:]
	default:
		return d
	}
}
