package doc

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const docXMLMax = 50 << 20

var reNewlines = regexp.MustCompile(`\n{3,}`)

// ParseDocx returns the text of word/document.xml. Paragraphs and table rows
// end a line, table cells are separated by tabs and deleted revisions are
// left out.
func ParseDocx(content []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open docx: %w", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return nil, errors.New("document.xml not found in docx")
	}
	if body.UncompressedSize64 > docXMLMax {
		return nil, fmt.Errorf("document.xml too large: %d bytes", body.UncompressedSize64)
	}

	rc, err := body.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open document.xml: %w", err)
	}
	defer rc.Close()

	return extractText(xml.NewDecoder(io.LimitReader(rc, docXMLMax)))
}

func extractText(dec *xml.Decoder) ([]byte, error) {
	var sb strings.Builder
	inText := false
	deleted := 0
	cell := 0
	inCell := 0

	endLine := func() {
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse document xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "del":
				deleted++
			case "t":
				inText = true
			case "tab":
				if deleted == 0 {
					sb.WriteByte('\t')
				}
			case "br", "cr":
				if deleted == 0 {
					sb.WriteByte('\n')
				}
			case "tbl":
				endLine()
			case "tr":
				cell = 0
			case "tc":
				inCell++
				if deleted == 0 {
					if cell > 0 {
						sb.WriteByte('\t')
					}
					cell++
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "tc":
				if inCell > 0 {
					inCell--
				}
			case "p":
				if deleted == 0 && inCell == 0 {
					sb.WriteByte('\n')
				}
			case "tr", "tbl":
				if deleted == 0 {
					sb.WriteByte('\n')
				}
			case "del":
				if deleted > 0 {
					deleted--
				}
			}
		case xml.CharData:
			if inText && deleted == 0 {
				sb.Write(t)
			}
		}
	}

	text := strings.TrimSpace(sb.String())
	text = reNewlines.ReplaceAllString(text, "\n\n")
	if text != "" {
		text += "\n"
	}
	return []byte(text), nil
}
