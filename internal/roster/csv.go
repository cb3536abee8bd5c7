package roster

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"meeting-attendance/internal/attendance"
)

// Header names of a staff list, in different languages.
type staffListDefinition struct {
	NameField       string
	EmailField      string
	DepartmentField string

	Language string // Language code, e.g. "en", "fi"
}

var staffListDefinitions = []staffListDefinition{
	{
		NameField:       "name",
		EmailField:      "email",
		DepartmentField: "department",
		Language:        "en",
	},
	{
		NameField:       "full name",
		EmailField:      "e-mail",
		DepartmentField: "department",
		Language:        "en",
	},
	{
		NameField:       "nimi",
		EmailField:      "sähköposti",
		DepartmentField: "osasto",
		Language:        "fi",
	},
}

var ErrMissingColumns = errors.New("staff list is missing required columns")

// decodeStaffList returns a UTF-8 reader for r. Spreadsheet exports are often
// UTF-16 with a BOM.
func decodeStaffList(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	bom, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read BOM: %w", err)
	}

	if len(bom) == 2 && (bom[0] == 0xFE && bom[1] == 0xFF || bom[0] == 0xFF && bom[1] == 0xFE) {
		utf16bom := unicode.BOMOverride(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder())
		return transform.NewReader(br, utf16bom), nil
	}
	// Strip a UTF-8 BOM if present.
	return transform.NewReader(br, unicode.UTF8BOM.NewDecoder()), nil
}

// ParseStaffList reads a tab or comma separated staff list.
func ParseStaffList(r io.Reader) ([]Registration, error) {
	decoded, err := decodeStaffList(r)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode staff list: %w", err)
	}

	firstLine, _, _ := bytes.Cut(data, []byte("\n"))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = ','
	if bytes.ContainsRune(firstLine, '\t') {
		reader.Comma = '\t'
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	idxName, idxEmail, idxDept := -1, -1, -1
	for _, def := range staffListDefinitions {
		idxName, idxEmail, idxDept = -1, -1, -1
		for i, h := range headers {
			switch strings.ToLower(strings.TrimSpace(h)) {
			case def.NameField:
				idxName = i
			case def.EmailField:
				idxEmail = i
			case def.DepartmentField:
				idxDept = i
			}
		}
		if idxName != -1 && idxEmail != -1 && idxDept != -1 {
			break
		}
	}
	if idxName == -1 || idxEmail == -1 || idxDept == -1 {
		return nil, ErrMissingColumns
	}

	var regs []Registration
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		if len(record) <= max(idxName, idxEmail, idxDept) {
			continue
		}
		regs = append(regs, Registration{
			FullName:   record[idxName],
			Email:      record[idxEmail],
			Department: record[idxDept],
		})
	}
	return regs, nil
}

type ImportReport struct {
	Total    int      `json:"total"`
	Created  int      `json:"created"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Problems []string `json:"problems,omitempty"`
}

// Import registers every row of a staff list. Rows already in the roster are
// skipped; invalid rows are reported and do not stop the import.
func (r *Roster) Import(ctx context.Context, list io.Reader) (*ImportReport, error) {
	regs, err := ParseStaffList(list)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{Total: len(regs)}
	for i, reg := range regs {
		_, err := r.Register(ctx, reg)
		switch {
		case err == nil:
			report.Created++
		case errors.Is(err, attendance.ErrDuplicateStaff):
			report.Skipped++
		case attendance.KindOf(err) == attendance.KindValidation:
			report.Failed++
			report.Problems = append(report.Problems, fmt.Sprintf("row %d: %v", i+2, err))
		default:
			return report, err
		}
	}

	r.logger.Info("Imported staff list", "total", report.Total, "created", report.Created, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}
