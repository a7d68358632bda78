// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"strings"
	"text/template"
)

var prompts = template.Must(template.New("prompts").Parse(`
{{define "summary"}}Summarize the following medical research paper in {{.MinWords}}-{{.MaxWords}} words.
Focus on the main findings, methodology, and clinical implications.
Use clear, concise language suitable for medical professionals.

Title: {{.Doc.Title}}
Authors: {{.Doc.DisplayAuthors}}
Journal: {{or .Doc.Journal "Unknown"}}
Publication Date: {{or .Doc.PublicationDate "Unknown"}}

Abstract:
{{or .Abstract "No abstract available"}}

Full Text:
{{.Text}}
{{end}}

{{define "narration"}}Create a natural-sounding narration script for a video about this medical research paper.
The script should be engaging, clear, and suited to text-to-speech.
Write plain sentences only, with no headings, stage directions, or markup.

Title: {{.Doc.Title}}
Authors: {{.Doc.DisplayAuthors}}
Journal: {{or .Doc.Journal "Unknown"}}
Publication Date: {{or .Doc.PublicationDate "Unknown"}}

Paper Summary:
{{.Summary}}

Abstract:
{{or .Abstract "No abstract available"}}

Structure the script as an introduction naming the paper, then the main findings,
the methodology, the clinical implications, and a short conclusion.
Use natural transitions and avoid complex sentence structures.
{{end}}

{{define "takeaways"}}Extract exactly {{.Count}} key takeaways from this medical research paper.
Each takeaway should be a single, concise sentence of at most {{.MaxChars}} characters.
Focus on the most important findings and clinical implications.

Title: {{.Doc.Title}}

Paper Summary:
{{.Summary}}

Format your response as a numbered list with exactly {{.Count}} items.
{{end}}

{{define "relevance"}}Identify the clinical relevance of this medical research paper for practicing physicians.
Focus on how the findings might change clinical practice, patient care, or treatment decisions,
and name the medical specialties that would benefit most.

Title: {{.Doc.Title}}

Paper Summary:
{{.Summary}}

Write one concise paragraph of 150-250 words.
{{end}}
`))

func render(name string, data promptData) (string, error) {
	var b strings.Builder
	if err := prompts.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}
