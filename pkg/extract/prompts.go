package extract

import (
	"bytes"
	"fmt"
	"text/template"

	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

const systemMsg = `You extract facts from classified ad pages. Answer only with JSON. Never invent values.`

// fieldsTmpl is the custom field extraction prompt template.
const fieldsTmpl = `Extract the following fields from this classified ad page.
Respond ONLY with a JSON object containing exactly these keys.
If a field cannot be determined from the page, use null.

Fields:
{{- range .Fields}}
- "{{.Name}}" ({{typeName .Type}}): {{.Description}}
{{- end}}

Page:
{{.Page}}`

var fieldsTemplate = template.Must(template.New("fields").Funcs(template.FuncMap{
	"typeName": func(t string) string {
		switch t {
		case domain.ColumnNumber:
			return "number"
		case "boolean":
			return "boolean"
		default:
			return "string"
		}
	},
}).Parse(fieldsTmpl))

// RenderFieldsPrompt renders the extraction prompt for fields over page.
func RenderFieldsPrompt(page string, fields []domain.CustomField) (string, error) {
	var buf bytes.Buffer
	err := fieldsTemplate.Execute(&buf, struct {
		Page   string
		Fields []domain.CustomField
	}{Page: page, Fields: fields})
	if err != nil {
		return "", fmt.Errorf("executing fields template: %w", err)
	}
	return buf.String(), nil
}
