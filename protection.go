package diaryfill

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// readSheetProtection maps each sheet name to whether its worksheet part
// carries <sheetProtection sheet="1">. excelize can set protection but does
// not report it, so the package parts are scanned directly.
func readSheetProtection(data []byte) (map[string]bool, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	result := make(map[string]bool)
	workbookXML, err := readZipFile(r, "xl/workbook.xml")
	if err != nil || workbookXML == nil {
		return result, err
	}
	relsXML, err := readZipFile(r, "xl/_rels/workbook.xml.rels")
	if err != nil || relsXML == nil {
		return result, err
	}

	sheetFiles := parseWorkbookRels(relsXML, parseWorkbookSheets(workbookXML))
	for name, path := range sheetFiles {
		sheetXML, err := readZipFile(r, path)
		if err != nil {
			return nil, err
		}
		result[name] = hasSheetProtection(sheetXML)
	}
	return result, nil
}

func readZipFile(r *zip.Reader, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, nil
}

// parseWorkbookSheets returns rId -> sheet name.
func parseWorkbookSheets(data []byte) map[string]string {
	result := make(map[string]string)
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		se, ok := token.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var name, rID string
		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "name":
				name = attr.Value
			case "id":
				rID = attr.Value
			}
		}
		if name != "" && rID != "" {
			result[rID] = name
		}
	}
	return result
}

// parseWorkbookRels returns sheet name -> worksheet part path.
func parseWorkbookRels(data []byte, sheetsByID map[string]string) map[string]string {
	result := make(map[string]string)
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		se, ok := token.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var rID, target string
		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "Id":
				rID = attr.Value
			case "Target":
				target = attr.Value
			}
		}
		if name, ok := sheetsByID[rID]; ok && strings.Contains(strings.ToLower(target), "worksheet") {
			result[name] = resolvePartPath(target)
		}
	}
	return result
}

// resolvePartPath turns a workbook relationship target into a package path.
func resolvePartPath(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	for strings.HasPrefix(target, "../") {
		target = strings.TrimPrefix(target, "../")
	}
	if strings.HasPrefix(target, "xl/") {
		return target
	}
	return "xl/" + target
}

func hasSheetProtection(data []byte) bool {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err != nil {
			return false
		}
		se, ok := token.(xml.StartElement)
		if !ok || se.Name.Local != "sheetProtection" {
			continue
		}
		for _, attr := range se.Attr {
			if attr.Name.Local == "sheet" {
				v := strings.ToLower(strings.TrimSpace(attr.Value))
				return v == "1" || v == "true"
			}
		}
		return false
	}
}
