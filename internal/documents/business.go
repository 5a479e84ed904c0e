package documents

import (
	"html/template"
	"io/fs"
	"time"

	"github.com/amsilks/amsilks-erp/web"
)

// Business is the letterhead printed on every document.
type Business struct {
	Name     string
	Contact  string
	Currency string
}

// Renderer builds the business documents.
type Renderer struct {
	business  Business
	money     Money
	html      HTMLRenderer
	quotation *template.Template
	now       func() time.Time
}

// NewRenderer parses the embedded quotation template. html may be nil when
// quotation PDFs are not needed.
func NewRenderer(business Business, html HTMLRenderer) (*Renderer, error) {
	if business.Name == "" {
		business.Name = "AMSilks"
	}
	return newRenderer(business, html, web.Templates)
}

func newRenderer(business Business, html HTMLRenderer, templates fs.FS) (*Renderer, error) {
	money := NewMoney(business.Currency)
	tmpl, err := template.New("quotation.html").Funcs(template.FuncMap{
		"money":  money.Format,
		"amount": money.Amount,
		"date":   func(t time.Time) string { return t.Format("02 Jan 2006") },
	}).ParseFS(templates, "templates/reports/quotation.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{
		business:  business,
		money:     money,
		html:      html,
		quotation: tmpl,
		now:       time.Now,
	}, nil
}

// Money exposes the renderer's amount formatter.
func (r *Renderer) Money() Money { return r.money }
