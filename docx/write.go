package docx

import (
	"fmt"
	"io"

	godocx "github.com/fumiama/go-docx"
)

const (
	// Letter, portrait.
	pageWidthTwips  = 12240
	pageHeightTwips = 15840

	headerFooterTwips = 720
)

// Save writes the package to w. go-docx lays out document.xml and the
// package skeleton; styles.xml and the doc properties are generated here
// and swapped into its default template.
func (d *Document) Save(w io.Writer) error {
	parts, err := d.parts()
	if err != nil {
		return err
	}
	f := godocx.New().UseTemplate(templateName, godocx.DefaultTemplateFilesList, parts)
	for _, p := range d.Paragraphs {
		d.addParagraph(f, p)
	}
	m := d.Margins
	f.Document.Body.Items = append(f.Document.Body.Items, &godocx.SectPr{
		PgSz: &godocx.PgSz{W: pageWidthTwips, H: pageHeightTwips},
		PgMar: &godocx.PgMar{
			Top:    twips(m.Top),
			Left:   twips(m.Left),
			Bottom: twips(m.Bottom),
			Right:  twips(m.Right),
			Header: headerFooterTwips,
			Footer: headerFooterTwips,
		},
	})
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("docx: write package: %w", err)
	}
	return nil
}

func (d *Document) addParagraph(f *godocx.Docx, p *Paragraph) {
	para := f.AddParagraph()
	if p.Style != "" && p.Style != StyleNormal {
		// go-docx emits pStyle after spacing and jc, so a styled paragraph
		// carries nothing but its style reference.
		para.Style(p.Style)
	} else {
		if a := d.Format.Alignment; a != "" {
			para.Justification(string(a))
		}
		if ls := d.Format.LineSpacing; ls > 0 {
			if para.Properties == nil {
				para.Properties = &godocx.ParagraphProperties{}
			}
			para.Properties.Spacing = &godocx.Spacing{Line: lineTwips(ls), LineRule: "auto"}
		}
	}
	if p.Text == "" {
		return
	}
	run := para.AddText(p.Text)
	for _, c := range run.Children {
		if t, ok := c.(*godocx.Text); ok {
			t.XMLSpace = "preserve"
		}
	}
	if p.Color != nil {
		run.Color(p.Color.Hex())
	}
}
