package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/neomorfeo/wafd/internal/app"
	"github.com/neomorfeo/wafd/internal/domain"
)

// Registrar registers a single pilgrim. *app.PilgrimService satisfies it.
type Registrar interface {
	Register(ctx context.Context, caller domain.Caller, in app.PilgrimInput) (domain.Pilgrim, error)
}

// Column identifies a roster field.
type Column string

const (
	ColumnNationalID     Column = "national_id"
	ColumnPassportNumber Column = "passport_number"
	ColumnFirstName      Column = "first_name"
	ColumnLastName       Column = "last_name"
	ColumnAge            Column = "age"
	ColumnGender         Column = "gender"
	ColumnNationality    Column = "nationality"
	ColumnPhone          Column = "phone"
	ColumnStatus         Column = "status"
	ColumnSpecialNeeds   Column = "special_needs"
	ColumnNotes          Column = "notes"
)

// requiredColumns must be present in the header and non-empty on every row.
var requiredColumns = []Column{
	ColumnNationalID,
	ColumnFirstName,
	ColumnLastName,
	ColumnAge,
	ColumnGender,
	ColumnNationality,
	ColumnPhone,
}

// headerAliases maps normalized header text to a column. Rosters arrive
// with either English snake_case or the Arabic headers used by the camp
// office template.
var headerAliases = map[string]Column{
	"national_id":     ColumnNationalID,
	"رقم الهوية":      ColumnNationalID,
	"passport_number": ColumnPassportNumber,
	"رقم الجواز":      ColumnPassportNumber,
	"first_name":      ColumnFirstName,
	"الاسم الأول":     ColumnFirstName,
	"last_name":       ColumnLastName,
	"الاسم الأخير":    ColumnLastName,
	"age":             ColumnAge,
	"العمر":           ColumnAge,
	"gender":          ColumnGender,
	"الجنس":           ColumnGender,
	"nationality":     ColumnNationality,
	"الجنسية":         ColumnNationality,
	"phone":           ColumnPhone,
	"phone_number":    ColumnPhone,
	"رقم الهاتف":      ColumnPhone,
	"status":          ColumnStatus,
	"special_needs":   ColumnSpecialNeeds,
	"نوع الإعاقة":     ColumnSpecialNeeds,
	"notes":           ColumnNotes,
	"ملاحظات":         ColumnNotes,
}

// RowError reports why one roster row was not imported. Row is the
// 1-based spreadsheet row number.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Result summarizes an import.
type Result struct {
	Imported []domain.Pilgrim
	Errors   []RowError
}

// Importer reads pilgrim rosters from the first sheet of an xlsx workbook.
type Importer struct {
	registrar Registrar
}

// NewImporter creates an importer that registers rows through registrar.
func NewImporter(registrar Registrar) *Importer {
	return &Importer{registrar: registrar}
}

// Import registers every valid row as the given caller. A row that fails
// validation or registration is reported in Result.Errors and does not
// stop the import. A workbook without a usable header row fails as a whole.
func (i *Importer) Import(ctx context.Context, caller domain.Caller, r io.Reader) (Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, &domain.ValidationError{Field: "file", Msg: "not a readable xlsx workbook"}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Result{}, &domain.ValidationError{Field: "file", Msg: "workbook has no sheets"}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Result{}, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return Result{}, &domain.ValidationError{Field: "file", Msg: "file is empty"}
	}

	header, err := parseHeader(rows[0])
	if err != nil {
		return Result{}, err
	}

	var result Result
	for idx, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rowNumber := idx + 2

		in, err := header.input(row)
		if err == nil {
			var p domain.Pilgrim
			p, err = i.registrar.Register(ctx, caller, in)
			if err == nil {
				result.Imported = append(result.Imported, p)
				continue
			}
		}

		// Permission and infrastructure failures apply to every row.
		if errors.Is(err, domain.ErrNotPermitted) {
			return result, err
		}
		result.Errors = append(result.Errors, RowError{Row: rowNumber, Err: err})
	}

	return result, nil
}

// header maps each known column to its cell index.
type header map[Column]int

func parseHeader(cells []string) (header, error) {
	h := make(header)
	for idx, cell := range cells {
		key := strings.ToLower(strings.TrimSpace(cell))
		key = strings.ReplaceAll(key, " ", "_")
		col, ok := headerAliases[key]
		if !ok {
			col, ok = headerAliases[strings.TrimSpace(cell)]
		}
		if ok {
			h[col] = idx
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := h[col]; !ok {
			missing = append(missing, string(col))
		}
	}
	if len(missing) > 0 {
		return nil, &domain.ValidationError{Field: "header", Msg: "missing columns: " + strings.Join(missing, ", ")}
	}
	return h, nil
}

func (h header) cell(row []string, col Column) string {
	idx, ok := h[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (h header) input(row []string) (app.PilgrimInput, error) {
	for _, col := range requiredColumns {
		if h.cell(row, col) == "" {
			return app.PilgrimInput{}, &domain.ValidationError{Field: string(col), Msg: "is required"}
		}
	}

	age, err := strconv.Atoi(h.cell(row, ColumnAge))
	if err != nil || age < 0 {
		return app.PilgrimInput{}, &domain.ValidationError{Field: string(ColumnAge), Msg: "must be a non-negative number"}
	}

	in := app.PilgrimInput{
		NationalID:     h.cell(row, ColumnNationalID),
		PassportNumber: h.cell(row, ColumnPassportNumber),
		FirstName:      h.cell(row, ColumnFirstName),
		LastName:       h.cell(row, ColumnLastName),
		Gender:         normalizeGender(h.cell(row, ColumnGender)),
		Age:            age,
		Nationality:    h.cell(row, ColumnNationality),
		Phone:          h.cell(row, ColumnPhone),
		Status:         h.cell(row, ColumnStatus),
		Notes:          h.cell(row, ColumnNotes),
	}

	if needs := h.cell(row, ColumnSpecialNeeds); needs != "" && !noSpecialNeeds(needs) {
		in.HasSpecialNeeds = true
		in.SpecialNeedsType = needs
	}
	return in, nil
}

// normalizeGender additionally accepts the Arabic values found in rosters.
func normalizeGender(g string) string {
	switch g {
	case "أنثى", "انثى":
		return domain.GenderFemale
	case "ذكر":
		return domain.GenderMale
	}
	return g
}

func noSpecialNeeds(v string) bool {
	switch strings.ToLower(v) {
	case "none", "no", "false", "0", "-", "لا يوجد", "لا":
		return true
	}
	return false
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
