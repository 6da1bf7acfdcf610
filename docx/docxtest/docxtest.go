// Package docxtest reads back packages written by docx so tests can assert
// on what Word would render: paragraph text, effective paragraph format
// after the style chain is applied, page margins and the Normal font.
package docxtest

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/klauspost/compress/zip"

	"research_article_generator/docx"
)

const nsW = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// ErrNotDocx is returned by Inspect when the package lacks word/document.xml.
var ErrNotDocx = errors.New("docxtest: word/document.xml not found")

var errPartNotFound = errors.New("part not found")

// ParagraphInfo is what Inspect recovers about one paragraph. Style is the
// resolved style id. Color is the direct run color only.
type ParagraphInfo struct {
	Text          string
	Style         string
	Color         string
	Alignment     string
	SpaceAfterPt  float64
	HasSpaceAfter bool
	LineSpacing   float64
}

// Summary is a read-back view of a serialized document.
type Summary struct {
	Paragraphs []ParagraphInfo
	Margins    docx.Margins
	NormalFont docx.Font
}

// Part returns the raw bytes of one package part.
func Part(data []byte, name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("docxtest: open package: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("docxtest: open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("docxtest: %s: %w", name, errPartNotFound)
}

// Inspect parses a .docx far enough to check its structure.
func Inspect(data []byte) (*Summary, error) {
	docPart, err := Part(data, "word/document.xml")
	if errors.Is(err, errPartNotFound) {
		return nil, ErrNotDocx
	}
	if err != nil {
		return nil, err
	}
	stylePart, err := Part(data, "word/styles.xml")
	if err != nil && !errors.Is(err, errPartNotFound) {
		return nil, err
	}

	st, err := parseStyles(stylePart)
	if err != nil {
		return nil, err
	}
	s := &Summary{}
	direct, err := parseDocument(docPart, s)
	if err != nil {
		return nil, err
	}
	for _, p := range direct {
		if p.style == "" {
			p.style = st.defaultID
		}
		eff := st.resolve(p.style)
		eff.apply(p.props)
		s.Paragraphs = append(s.Paragraphs, ParagraphInfo{
			Text:          p.text,
			Style:         p.style,
			Color:         p.color,
			Alignment:     eff.jc,
			SpaceAfterPt:  eff.after,
			HasSpaceAfter: eff.hasAfter,
			LineSpacing:   eff.line,
		})
	}
	normal := st.resolve(st.defaultID)
	s.NormalFont = docx.Font{Name: normal.font, SizePt: normal.size}
	return s, nil
}

// props holds the subset of pPr and rPr the report uses. Unset fields are
// inherited, attribute by attribute, as Word does.
type props struct {
	jc       string
	after    float64
	hasAfter bool
	line     float64
	font     string
	size     float64
}

func (p *props) apply(o props) {
	if o.jc != "" {
		p.jc = o.jc
	}
	if o.hasAfter {
		p.after, p.hasAfter = o.after, true
	}
	if o.line != 0 {
		p.line = o.line
	}
	if o.font != "" {
		p.font = o.font
	}
	if o.size != 0 {
		p.size = o.size
	}
}

type style struct {
	basedOn string
	props   props
}

type styleSheet struct {
	defaults  props
	defaultID string
	styles    map[string]style
}

func (s *styleSheet) resolve(id string) props {
	var chain []props
	seen := map[string]bool{}
	for id != "" && !seen[id] {
		seen[id] = true
		st, ok := s.styles[id]
		if !ok {
			break
		}
		chain = append(chain, st.props)
		id = st.basedOn
	}
	out := s.defaults
	for i := len(chain) - 1; i >= 0; i-- {
		out.apply(chain[i])
	}
	return out
}

func wAttr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Space == nsW && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func twipsAttr(se xml.StartElement, local string) float64 {
	v, err := strconv.Atoi(wAttr(se, local))
	if err != nil {
		return 0
	}
	return float64(v) / 20
}

// readProp folds one pPr or rPr child into p.
func readProp(t xml.StartElement, p *props) {
	switch t.Name.Local {
	case "jc":
		p.jc = wAttr(t, "val")
	case "spacing":
		if wAttr(t, "after") != "" {
			p.hasAfter = true
			p.after = twipsAttr(t, "after")
		}
		if line, err := strconv.Atoi(wAttr(t, "line")); err == nil {
			p.line = float64(line) / 240
		}
	case "rFonts":
		p.font = wAttr(t, "ascii")
	case "sz":
		if v, err := strconv.Atoi(wAttr(t, "val")); err == nil {
			p.size = float64(v) / 2
		}
	}
}

func parseStyles(data []byte) (*styleSheet, error) {
	st := &styleSheet{defaultID: docx.StyleNormal, styles: map[string]style{}}
	if data == nil {
		return st, nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		cur        *style
		curID      string
		inDefaults bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return st, nil
		}
		if err != nil {
			return nil, fmt.Errorf("docxtest: parse styles.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != nsW {
				continue
			}
			switch t.Name.Local {
			case "docDefaults":
				inDefaults = true
			case "style":
				curID = wAttr(t, "styleId")
				cur = &style{}
				if wAttr(t, "type") == "paragraph" && wAttr(t, "default") == "1" {
					st.defaultID = curID
				}
			case "basedOn":
				if cur != nil {
					cur.basedOn = wAttr(t, "val")
				}
			default:
				switch {
				case cur != nil:
					readProp(t, &cur.props)
				case inDefaults:
					readProp(t, &st.defaults)
				}
			}
		case xml.EndElement:
			if t.Name.Space != nsW {
				continue
			}
			switch t.Name.Local {
			case "docDefaults":
				inDefaults = false
			case "style":
				if cur != nil {
					st.styles[curID] = *cur
				}
				cur = nil
			}
		}
	}
}

type rawParagraph struct {
	text  string
	style string
	color string
	props props
}

func parseDocument(data []byte, s *Summary) ([]*rawParagraph, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		out    []*rawParagraph
		cur    *rawParagraph
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("docxtest: parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != nsW {
				continue
			}
			switch t.Name.Local {
			case "p":
				cur = &rawParagraph{}
				out = append(out, cur)
			case "pStyle":
				if cur != nil {
					cur.style = wAttr(t, "val")
				}
			case "color":
				if cur != nil {
					cur.color = wAttr(t, "val")
				}
			case "tab":
				if cur != nil {
					cur.text += "\t"
				}
			case "t":
				inText = true
			case "pgMar":
				s.Margins = docx.Margins{
					Top:    twipsAttr(t, "top"),
					Right:  twipsAttr(t, "right"),
					Bottom: twipsAttr(t, "bottom"),
					Left:   twipsAttr(t, "left"),
				}
			default:
				if cur != nil {
					readProp(t, &cur.props)
				}
			}
		case xml.EndElement:
			if t.Name.Space != nsW {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				cur = nil
			}
		case xml.CharData:
			if inText && cur != nil {
				cur.text += string(t)
			}
		}
	}
}
