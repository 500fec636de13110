package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"pet-adoption-portal/internal/middleware"
	"pet-adoption-portal/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// Raw HTML in free text is escaped because WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

var pageNames = []string{
	"home.html",
	"login.html",
	"register.html",
	"profile.html",
	"admin.html",
	"animal_form.html",
	"denied.html",
	"session_failed.html",
	"error.html",
}

type option struct {
	Value string
	Label string
}

var (
	sexOptions = []option{
		{Value: string(model.SexMale), Label: "Male"},
		{Value: string(model.SexFemale), Label: "Female"},
	}
	sizeOptions = []option{
		{Value: string(model.SizeSmall), Label: "Small"},
		{Value: string(model.SizeMedium), Label: "Medium"},
		{Value: string(model.SizeLarge), Label: "Large"},
	}
	speciesOptions = []option{
		{Value: "cachorro", Label: "Dog"},
		{Value: "gato", Label: "Cat"},
		{Value: "ambos", Label: "Both"},
	}
	preferredSizeOptions = []option{
		{Value: "pequeno", Label: "Small"},
		{Value: "medio", Label: "Medium"},
		{Value: "grande", Label: "Large"},
		{Value: "qualquer", Label: "Any"},
	}
)

// Page is what every template receives. Content carries the page-specific data.
type Page struct {
	Title         string
	Authenticated bool
	CSRFField     template.HTML
	Flash         string
	Error         string
	Refresh       string
	Content       any
}

// Renderer holds one parsed template set per page, all sharing the layout.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"formatDate":           formatDate,
		"years":                years,
		"weight":               formatWeight,
		"markdown":             renderMarkdown,
		"sexOptions":           func() []option { return sexOptions },
		"sizeOptions":          func() []option { return sizeOptions },
		"speciesOptions":       func() []option { return speciesOptions },
		"preferredSizeOptions": func() []option { return preferredSizeOptions },
		"dict":                 dict,
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name,
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tpl
	}

	return &Renderer{pages: pages}, nil
}

// Render executes the page into a buffer first so a template failure never
// leaves a half-written response.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, page Page) {
	tpl, ok := v.pages[name]
	if !ok {
		slog.Error("unknown template", "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	page.CSRFField = csrf.TemplateField(r)
	if tokens, ok := middleware.TokensFromContext(r.Context()); ok {
		page.Authenticated = tokens.IsAuthenticated(r.Context())
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, page); err != nil {
		slog.Error("render failed", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// formatDate renders server timestamps as dd/mm/yyyy and leaves anything
// unparseable as it came.
func formatDate(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return raw
}

func years(n int) string {
	if n == 1 {
		return "1 year"
	}
	return strconv.Itoa(n) + " years"
}

func formatWeight(kg float64) string {
	return strconv.FormatFloat(kg, 'f', -1, 64) + " kg"
}

// dict builds the argument map for partials called with more than one value.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	out := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		out[key] = pairs[i+1]
	}
	return out, nil
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String())
}
