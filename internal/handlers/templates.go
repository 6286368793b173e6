package handlers

import (
	"embed"
	"html/template"

	"banking_portal/internal/models"
	"banking_portal/internal/money"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"amount": money.Format,
}

// loadTemplates parses the embedded views. A broken template is a build
// defect, so it panics.
func loadTemplates() *template.Template {
	return template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html"))
}

// formValues echoes submitted text fields back into a re-rendered form.
type formValues struct {
	Name     string
	Email    string
	Username string
}

// historyQuery echoes the history filter back into the page.
type historyQuery struct {
	From string
	To   string
	Kind string
}

// pageData is the single view model shared by every template.
type pageData struct {
	Title     string
	Username  string
	Name      string
	Balance   string
	Currency  string
	Flashes   []models.Flash
	Error     string
	Errors    map[string]string
	Form      formValues
	RequestID string
	Amount    string
	Entries   []models.LedgerEntry
	Query     historyQuery
}
