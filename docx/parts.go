package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"time"

	godocx "github.com/fumiama/go-docx"
)

const (
	templateName = "default"
	nsW          = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

	headingColor       = "365F91"
	headingBeforeTwips = 480
)

// partsFS overlays generated parts on go-docx's embedded default template.
type partsFS map[string][]byte

func (p partsFS) Open(name string) (fs.File, error) {
	if b, ok := p[name]; ok {
		return &memPart{Reader: bytes.NewReader(b), name: path.Base(name)}, nil
	}
	return godocx.TemplateXMLFS.Open(name)
}

// memPart is both the open file and its FileInfo; Size comes from the reader.
type memPart struct {
	*bytes.Reader
	name string
}

func (m *memPart) Stat() (fs.FileInfo, error) { return m, nil }
func (m *memPart) Close() error               { return nil }
func (m *memPart) Name() string               { return m.name }
func (m *memPart) Mode() fs.FileMode          { return 0o444 }
func (m *memPart) ModTime() time.Time         { return time.Time{} }
func (m *memPart) IsDir() bool                { return false }
func (m *memPart) Sys() any                   { return nil }

func (d *Document) parts() (partsFS, error) {
	gen := []struct {
		name string
		data any
	}{
		{"word/styles.xml", d.styles()},
		{"docProps/core.xml", d.core()},
		{"docProps/app.xml", appProps{XMLNS: "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties", Application: "research_article_generator"}},
	}
	out := make(partsFS, len(gen))
	for _, g := range gen {
		b, err := xml.Marshal(g.data)
		if err != nil {
			return nil, fmt.Errorf("docx: marshal %s: %w", g.name, err)
		}
		out["xml/"+templateName+"/"+g.name] = append([]byte(xml.Header), b...)
	}
	return out, nil
}

// Element order in these structs is the schema's sequence order; encoding/xml
// writes fields in declaration order.

type stylesPart struct {
	XMLName  xml.Name    `xml:"w:styles"`
	XMLNS    string      `xml:"xmlns:w,attr"`
	Defaults docDefaults `xml:"w:docDefaults"`
	Styles   []styleDef  `xml:"w:style"`
}

type docDefaults struct {
	RPr runProps `xml:"w:rPrDefault>w:rPr"`
}

type styleDef struct {
	Type       string     `xml:"w:type,attr"`
	Default    string     `xml:"w:default,attr,omitempty"`
	StyleID    string     `xml:"w:styleId,attr"`
	Name       valAttr    `xml:"w:name"`
	BasedOn    *valAttr   `xml:"w:basedOn"`
	Next       *valAttr   `xml:"w:next"`
	UIPriority *valAttr   `xml:"w:uiPriority"`
	QFormat    *flag      `xml:"w:qFormat"`
	PPr        *paraProps `xml:"w:pPr"`
	RPr        *runProps  `xml:"w:rPr"`
}

type paraProps struct {
	KeepNext   *flag    `xml:"w:keepNext"`
	KeepLines  *flag    `xml:"w:keepLines"`
	Spacing    *spacing `xml:"w:spacing"`
	Jc         *valAttr `xml:"w:jc"`
	OutlineLvl *valAttr `xml:"w:outlineLvl"`
}

type runProps struct {
	Fonts  *fonts   `xml:"w:rFonts"`
	Bold   *flag    `xml:"w:b"`
	BoldCs *flag    `xml:"w:bCs"`
	Color  *valAttr `xml:"w:color"`
	Size   *valAttr `xml:"w:sz"`
	SizeCs *valAttr `xml:"w:szCs"`
	Lang   *valAttr `xml:"w:lang"`
}

type fonts struct {
	ASCII    string `xml:"w:ascii,attr"`
	HAnsi    string `xml:"w:hAnsi,attr"`
	EastAsia string `xml:"w:eastAsia,attr"`
	CS       string `xml:"w:cs,attr"`
}

type spacing struct {
	Before   string `xml:"w:before,attr,omitempty"`
	After    string `xml:"w:after,attr,omitempty"`
	Line     string `xml:"w:line,attr,omitempty"`
	LineRule string `xml:"w:lineRule,attr,omitempty"`
}

type valAttr struct {
	Val string `xml:"w:val,attr"`
}

type flag struct{}

func val(v string) *valAttr { return &valAttr{Val: v} }

func fontProps(f Font) *runProps {
	rp := &runProps{}
	if f.Name != "" {
		rp.Fonts = &fonts{ASCII: f.Name, HAnsi: f.Name, EastAsia: f.Name, CS: f.Name}
	}
	if f.SizePt > 0 {
		hp := strconv.Itoa(halfPoints(f.SizePt))
		rp.Size, rp.SizeCs = val(hp), val(hp)
	}
	return rp
}

func (d *Document) normalParagraph() *paraProps {
	f := d.Format
	pp := &paraProps{}
	if f.SetSpaceAfter || f.LineSpacing > 0 {
		pp.Spacing = &spacing{}
		if f.SetSpaceAfter {
			pp.Spacing.After = strconv.Itoa(twips(f.SpaceAfterPt))
		}
		if f.LineSpacing > 0 {
			pp.Spacing.Line = strconv.Itoa(lineTwips(f.LineSpacing))
			pp.Spacing.LineRule = "auto"
		}
	}
	if f.Alignment != "" {
		pp.Jc = val(string(f.Alignment))
	}
	if pp.Spacing == nil && pp.Jc == nil {
		return nil
	}
	return pp
}

func (d *Document) styles() stylesPart {
	defaults := fontProps(d.NormalFont)
	defaults.Lang = val("en-US")

	heading := fontProps(d.HeadingFont)
	heading.Bold, heading.BoldCs = &flag{}, &flag{}
	heading.Color = val(headingColor)

	return stylesPart{
		XMLNS:    nsW,
		Defaults: docDefaults{RPr: *defaults},
		Styles: []styleDef{
			{
				Type:    "paragraph",
				Default: "1",
				StyleID: StyleNormal,
				Name:    valAttr{Val: "Normal"},
				QFormat: &flag{},
				PPr:     d.normalParagraph(),
				RPr:     fontProps(d.NormalFont),
			},
			{
				Type:       "paragraph",
				StyleID:    StyleHeading1,
				Name:       valAttr{Val: "heading 1"},
				BasedOn:    val(StyleNormal),
				Next:       val(StyleNormal),
				UIPriority: val("9"),
				QFormat:    &flag{},
				PPr: &paraProps{
					KeepNext:   &flag{},
					KeepLines:  &flag{},
					Spacing:    &spacing{Before: strconv.Itoa(headingBeforeTwips)},
					OutlineLvl: val("0"),
				},
				RPr: heading,
			},
		},
	}
}

type coreProps struct {
	XMLName xml.Name `xml:"cp:coreProperties"`
	CP      string   `xml:"xmlns:cp,attr"`
	DC      string   `xml:"xmlns:dc,attr"`
	DCTerms string   `xml:"xmlns:dcterms,attr"`
	XSI     string   `xml:"xmlns:xsi,attr"`
	Title   string   `xml:"dc:title"`
	Creator string   `xml:"dc:creator"`
	Created w3cdtf   `xml:"dcterms:created"`
}

type w3cdtf struct {
	Type  string `xml:"xsi:type,attr"`
	Value string `xml:",chardata"`
}

type appProps struct {
	XMLName     xml.Name `xml:"Properties"`
	XMLNS       string   `xml:"xmlns,attr"`
	Application string   `xml:"Application"`
}

func (d *Document) core() coreProps {
	created := d.Created
	if created.IsZero() {
		created = time.Now()
	}
	return coreProps{
		CP:      "http://schemas.openxmlformats.org/package/2006/metadata/core-properties",
		DC:      "http://purl.org/dc/elements/1.1/",
		DCTerms: "http://purl.org/dc/terms/",
		XSI:     "http://www.w3.org/2001/XMLSchema-instance",
		Title:   d.Title,
		Creator: d.Creator,
		Created: w3cdtf{Type: "dcterms:W3CDTF", Value: created.UTC().Format(time.RFC3339)},
	}
}
