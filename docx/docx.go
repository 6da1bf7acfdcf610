// Package docx writes the report's WordprocessingML (.docx) package on top
// of fumiama/go-docx: a Normal and a Heading 1 style, one section, and a
// flat list of paragraphs.
package docx

import (
	"bytes"
	"fmt"
	"time"
)

const (
	// MIMEType is the registered media type of a .docx file.
	MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	StyleNormal   = "Normal"
	StyleHeading1 = "Heading1"
)

// Color is a 24-bit RGB run color.
type Color struct {
	R, G, B uint8
}

func (c Color) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

type Alignment string

const (
	AlignLeft    Alignment = "left"
	AlignCenter  Alignment = "center"
	AlignRight   Alignment = "right"
	AlignJustify Alignment = "both"
)

// Font describes a style's typeface.
type Font struct {
	Name   string
	SizePt float64
}

// ParagraphFormat is written into the Normal style, so every paragraph
// inherits it. Zero values leave Word's defaults in place except where
// noted.
type ParagraphFormat struct {
	Alignment Alignment
	// SpaceAfterPt is only written when SetSpaceAfter is true, so that an
	// explicit zero can be expressed.
	SpaceAfterPt  float64
	SetSpaceAfter bool
	// LineSpacing is a multiple of single spacing; 1 is single.
	LineSpacing float64
}

// Paragraph is a single run of text with optional color.
type Paragraph struct {
	Text  string
	Style string
	Color *Color
}

// Margins are page margins in points.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// Uniform returns margins of pt on every side.
func Uniform(pt float64) Margins {
	return Margins{Top: pt, Right: pt, Bottom: pt, Left: pt}
}

// Document is built in memory and serialized with Save.
type Document struct {
	Title       string
	Creator     string
	Created     time.Time
	NormalFont  Font
	HeadingFont Font
	Format      ParagraphFormat
	Margins     Margins
	Paragraphs  []*Paragraph
}

// New returns an empty Letter-size document with 1 inch margins.
func New() *Document {
	return &Document{
		Created:     time.Now().UTC(),
		NormalFont:  Font{Name: "Calibri", SizePt: 11},
		HeadingFont: Font{Name: "Calibri Light", SizePt: 14},
		Margins:     Uniform(72),
	}
}

// AddParagraph appends a paragraph and returns it for further styling.
func (d *Document) AddParagraph(text, style string) *Paragraph {
	if style == "" {
		style = StyleNormal
	}
	p := &Paragraph{Text: text, Style: style}
	d.Paragraphs = append(d.Paragraphs, p)
	return p
}

// Bytes serializes the document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// twips converts points to twentieths of a point.
func twips(pt float64) int {
	return int(pt*20 + 0.5)
}

// halfPoints converts points to the w:sz unit.
func halfPoints(pt float64) int {
	return int(pt*2 + 0.5)
}

// lineTwips converts a spacing multiple to w:line with lineRule auto.
func lineTwips(multiple float64) int {
	return int(multiple*240 + 0.5)
}
