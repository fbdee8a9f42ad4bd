package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadXLSX reads one sheet of a .xlsx workbook into a Dataset. The first row
// is the header. Numeric cells stay float64, which keeps spreadsheet serial
// dates as plain numbers; text cells go through the same locale-aware numeric
// parsing as CSV.
func LoadXLSX(path string, opt Options) (*Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	var wb workbookXML
	if err := decodePart(zr, "xl/workbook.xml", &wb); err != nil {
		return nil, err
	}
	var rels relsXML
	if err := decodePart(zr, "xl/_rels/workbook.xml.rels", &rels); err != nil {
		return nil, err
	}
	target, err := resolveSheet(wb.Sheets, rels.targets(), opt)
	if err != nil {
		return nil, fmt.Errorf("%w in workbook '%s'", err, filepath.Base(path))
	}
	var sst sstXML
	if err := decodePart(zr, "xl/sharedStrings.xml", &sst); err != nil {
		return nil, err
	}
	sheet, err := readPart(zr, target)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", target, err)
	}
	rr := newSheetRowReader(sheet, sst.values())

	ds := &Dataset{Name: filepath.Base(path)}
	header, ok := rr.Next()
	if !ok || len(header) == 0 {
		return ds, nil
	}
	names := make([]string, len(header))
	for i, c := range header {
		names[i] = c.text
	}
	ds.Columns = normalizeHeader(names)
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	for {
		row, ok := rr.Next()
		if !ok {
			break
		}
		if rowBlank(row) {
			continue
		}
		ds.Total++
		if len(ds.Rows) >= maxRows {
			continue
		}
		rec := make(Record, len(ds.Columns))
		for j, name := range ds.Columns {
			if j >= len(row) {
				rec[name] = nil
				continue
			}
			rec[name] = row[j].value(opt)
		}
		ds.Rows = append(ds.Rows, rec)
	}
	return ds, nil
}

func resolveSheet(sheets []wbSheet, rels map[string]string, opt Options) (string, error) {
	if opt.SheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s.Name, opt.SheetName) {
				if rel, ok := rels[s.RID]; ok {
					return partPath(rel), nil
				}
			}
		}
		available := make([]string, len(sheets))
		for i, s := range sheets {
			available[i] = s.Name
		}
		return "", fmt.Errorf("sheet '%s' not found (available sheets: %s)", opt.SheetName, strings.Join(available, ", "))
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	for _, s := range sheets {
		if s.SheetID == idx {
			if rel, ok := rels[s.RID]; ok {
				return partPath(rel), nil
			}
		}
	}
	return fmt.Sprintf("xl/worksheets/sheet%d.xml", idx), nil
}

// workbookXML, relsXML and sstXML mirror the pieces of xl/workbook.xml,
// its relationships part and xl/sharedStrings.xml that the loader reads.
type workbookXML struct {
	Sheets []wbSheet `xml:"sheets>sheet"`
}

type wbSheet struct {
	Name    string `xml:"name,attr"`
	SheetID int    `xml:"sheetId,attr"`
	RID     string `xml:"id,attr"` // r:id
}

type relsXML struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// targets maps relationship ids to their Target paths.
func (r relsXML) targets() map[string]string {
	out := make(map[string]string, len(r.Relationships))
	for _, rel := range r.Relationships {
		if rel.ID != "" && rel.Target != "" {
			out[rel.ID] = rel.Target
		}
	}
	return out
}

type sstXML struct {
	Items []struct {
		T    string `xml:"t"`
		Runs []struct {
			T string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

// values flattens shared string items; rich text runs are concatenated and
// phonetic hints are dropped.
func (s sstXML) values() []string {
	out := make([]string, len(s.Items))
	for i, it := range s.Items {
		var b strings.Builder
		b.WriteString(it.T)
		for _, r := range it.Runs {
			b.WriteString(r.T)
		}
		out[i] = b.String()
	}
	return out
}

// readPart returns the bytes of a ZIP entry. A missing entry wraps
// fs.ErrNotExist.
func readPart(zr *zip.Reader, name string) ([]byte, error) {
	f, err := zr.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// decodePart unmarshals an optional XML part into v; a missing part leaves v
// at its zero value.
func decodePart(zr *zip.Reader, name string, v any) error {
	b, err := readPart(zr, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := xml.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// sheetCell is a raw cell: its text plus the "t" attribute that says how to
// read it (s = shared string, b = boolean, e = error, str/inlineStr = text,
// empty = number).
type sheetCell struct {
	text string
	kind string
}

func (c sheetCell) value(opt Options) any {
	switch c.kind {
	case "e":
		return nil
	case "b":
		return c.text == "1"
	case "", "n":
		if strings.TrimSpace(c.text) == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(c.text), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	}
	return cellValue(c.text, opt)
}

func rowBlank(row []sheetCell) bool {
	for _, c := range row {
		if strings.TrimSpace(c.text) != "" {
			return false
		}
	}
	return true
}

type sheetRowReader struct {
	dec    *xml.Decoder
	shared []string
	inRow  bool
	curRow []sheetCell
	maxCol int
}

func newSheetRowReader(data []byte, shared []string) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

func (r *sheetRowReader) Next() ([]sheetCell, bool) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "row" {
				r.inRow = true
				r.curRow = nil
				r.maxCol = 0
			}
			if r.inRow && se.Name.Local == "c" {
				var rAttr, tAttr string
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "r":
						rAttr = a.Value
					case "t":
						tAttr = a.Value
					}
				}
				colIdx := colIndexFromRef(rAttr)
				if colIdx < 0 {
					colIdx = len(r.curRow)
				}
				if colIdx+1 > r.maxCol {
					r.maxCol = colIdx + 1
				}
				cell := r.readCell(tAttr)
				if len(r.curRow) <= colIdx {
					tmp := make([]sheetCell, colIdx+1)
					copy(tmp, r.curRow)
					r.curRow = tmp
				}
				r.curRow[colIdx] = cell
			}
		case xml.EndElement:
			if se.Name.Local == "row" {
				if len(r.curRow) < r.maxCol {
					tmp := make([]sheetCell, r.maxCol)
					copy(tmp, r.curRow)
					r.curRow = tmp
				}
				r.inRow = false
				return r.curRow, true
			}
		}
	}
}

// readCell consumes tokens up to the closing </c>, capturing <v> or <is><t>.
func (r *sheetRowReader) readCell(tAttr string) sheetCell {
	var val string
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return sheetCell{text: val, kind: tAttr}
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				var sb strings.Builder
				for {
					tk, er := r.dec.Token()
					if er != nil {
						break
					}
					if ed, ok := tk.(xml.EndElement); ok && (ed.Name.Local == "v" || ed.Name.Local == "t") {
						break
					}
					if ch, ok := tk.(xml.CharData); ok {
						sb.Write(ch)
					}
				}
				val = sb.String()
			}
		case xml.EndElement:
			if se.Name.Local == "c" {
				if tAttr == "s" {
					idx, err := strconv.Atoi(strings.TrimSpace(val))
					if err == nil && idx >= 0 && idx < len(r.shared) {
						return sheetCell{text: r.shared[idx], kind: "str"}
					}
					return sheetCell{kind: "str"}
				}
				return sheetCell{text: val, kind: tAttr}
			}
		}
	}
}

// colIndexFromRef turns refs like "C12" into a 0-based column index (2).
// Returns -1 when the ref carries no column letters.
func colIndexFromRef(ref string) int {
	idx := 0
	for _, r := range strings.ToUpper(ref) {
		if r < 'A' || r > 'Z' {
			break
		}
		idx = idx*26 + int(r-'A') + 1
	}
	return idx - 1
}

// partPath resolves a workbook relationship Target to a ZIP entry name.
// Relative targets are resolved against xl/; absolute ones are rooted at the
// package, with xl/ assumed when the target omits it. ZIP names always use
// forward slashes.
func partPath(target string) string {
	if strings.HasPrefix(target, "/") {
		p := path.Clean(strings.TrimPrefix(target, "/"))
		if strings.HasPrefix(p, "xl/") {
			return p
		}
		return path.Join("xl", p)
	}
	if strings.HasPrefix(target, "xl/") {
		return path.Clean(target)
	}
	return path.Join("xl", target)
}
