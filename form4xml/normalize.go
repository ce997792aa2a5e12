package form4xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"golang.org/x/net/html/charset"
)

// MalformedDocumentError reports XML that could not be parsed into an
// ownershipDocument. It is fatal for the filing; callers must not attempt
// extraction after it.
type MalformedDocumentError struct {
	Err error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed ownership document: %v", e.Err)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

// Normalize parses the raw XML of one ownershipDocument into a uniform
// Document tree. The input may be the bare XML or a full-text submission
// file that wraps the XML between <XML> and </XML> markers.
//
// Documents declaring non-UTF-8 encodings (ISO-8859-1 and windows-1252
// appear in older filings) are decoded via their declared charset.
func Normalize(data []byte) (*Document, error) {
	data = extractEmbeddedXML(data)
	data = normalizeText(data)

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, &MalformedDocumentError{Err: err}
	}
	if doc.XMLName.Local != "ownershipDocument" {
		return nil, &MalformedDocumentError{
			Err: fmt.Errorf("unexpected root element <%s>", doc.XMLName.Local),
		}
	}

	// Forms 3, 4 and 5 share the schema; older generators omit the type.
	if doc.DocumentType == "" {
		doc.DocumentType = "4"
	}

	return &doc, nil
}

// extractEmbeddedXML pulls the ownership XML out of a full-text submission
// file. Daily-index submissions embed the document between <XML> markers
// and name the file inconsistently (form4.xml, primarydocument.xml, ...),
// so the markers are the only reliable delimiter.
func extractEmbeddedXML(data []byte) []byte {
	start := bytes.Index(data, []byte("<XML>"))
	if start < 0 {
		return data
	}
	rest := data[start+len("<XML>"):]
	end := bytes.Index(rest, []byte("</XML>"))
	if end < 0 {
		return data
	}
	return bytes.TrimSpace(rest[:end])
}

// normalizeText fixes the character-level issues that show up in SEC XML
// before it reaches the decoder: non-breaking spaces, zero-width
// characters, stray BOMs and CRLF line endings.
func normalizeText(data []byte) []byte {
	text := string(data)

	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "\u00A0", " ")

	// Zero-width spaces and BOMs should never appear inside XML.
	text = strings.ReplaceAll(text, "\u200B", "")
	text = strings.ReplaceAll(text, "\uFEFF", "")

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return []byte(text)
}
