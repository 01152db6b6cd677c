package catalog

import (
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var listTemplate = template.Must(template.New("categories").Parse(
	`<ul class="category-list">{{range .}}<li class="category" id="category-{{.Slug}}">` +
		`{{if .ImageURL}}<img src="{{.ImageURL}}" alt="{{.Name}}" loading="lazy">{{end}}` +
		`<h3>{{.Name}}</h3>` +
		`{{if .HTML}}<div class="category-body">{{.HTML}}</div>` +
		`{{else if .Description}}<p>{{.Description}}</p>{{end}}` +
		`</li>{{end}}</ul>`))

type listItem struct {
	Name        string
	Slug        string
	Description string
	ImageURL    string
	HTML        template.HTML
}

// Sanitizer renders category lists. Rich HTML fragments coming from the
// upstream API pass through a user generated content policy before they are
// trusted by the page template.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.UGCPolicy()}
}

// RenderList builds the category list markup. An empty list renders nothing.
func (s *Sanitizer) RenderList(categories []Category) (template.HTML, error) {
	if len(categories) == 0 {
		return "", nil
	}

	items := make([]listItem, 0, len(categories))
	for _, c := range categories {
		items = append(items, listItem{
			Name:        c.Name,
			Slug:        c.Slug,
			Description: c.Description,
			ImageURL:    c.ImageURL,
			//nolint:gosec // sanitised by the UGC policy
			HTML: template.HTML(s.policy.Sanitize(c.HTML)),
		})
	}

	var sb strings.Builder
	if err := listTemplate.Execute(&sb, items); err != nil {
		return "", err
	}

	//nolint:gosec // produced by html/template from escaped fields
	return template.HTML(sb.String()), nil
}
