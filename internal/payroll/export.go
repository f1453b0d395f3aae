package payroll

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/transform"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

func (f Format) Valid() bool {
	switch f {
	case FormatCSV, FormatXLSX, FormatPDF:
		return true
	}
	return false
}

// Export is a rendered paysheet ready to be written as a download.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

var entryHeader = []string{
	"Employee ID", "Employee", "Date", "Check In (UTC)", "Check Out (UTC)",
	"Regular Hours", "OT Morning", "OT Evening",
	"Regular Pay", "Overtime Pay", "Total Pay", "Manually Adjusted", "Status",
}

// Render formats p. Values come from the stored entries and totals only.
func Render(p *Paysheet, format Format) (*Export, error) {
	var (
		data        []byte
		contentType string
		err         error
	)
	switch format {
	case FormatCSV:
		data, err = RenderCSV(p)
		contentType = "text/csv; charset=utf-8"
	case FormatXLSX:
		data, err = RenderXLSX(p)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		data, err = RenderPDF(p)
		contentType = "application/pdf"
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return &Export{
		Filename:    fmt.Sprintf("paysheet_%s_%s.%s", p.PeriodStart, p.PeriodEnd, format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func hours(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func entryRow(e Entry) []string {
	return []string{
		e.EmployeeID, e.EmployeeName, e.Date, stamp(e.CheckInAt), stamp(e.CheckOutAt),
		hours(e.RegularHours), hours(e.OvertimeHoursMorning), hours(e.OvertimeHoursEvening),
		e.RegularPay.StringFixed(2), e.OvertimePay.StringFixed(2), e.TotalPay.StringFixed(2),
		yesNo(e.IsManuallyAdjusted), string(e.RecordStatus),
	}
}

// RenderCSV writes every entry plus a totals line. The UTF-8 BOM keeps
// spreadsheet apps from guessing a legacy code page.
func RenderCSV(p *Paysheet) ([]byte, error) {
	var buf bytes.Buffer
	tw := transform.NewWriter(&buf, unicode.UTF8BOM.NewEncoder())
	w := csv.NewWriter(tw)

	records := [][]string{entryHeader}
	for _, e := range p.Entries {
		records = append(records, entryRow(e))
	}
	records = append(records,
		[]string{},
		[]string{"Total Regular Pay", p.Totals.TotalRegularPay.StringFixed(2)},
		[]string{"Total Overtime Pay", p.Totals.TotalOvertimePay.StringFixed(2)},
		[]string{"Total Payable", p.Totals.TotalPayable.StringFixed(2)},
		[]string{"Skipped Days", strconv.Itoa(p.Totals.SkippedDays)},
	)

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// RenderXLSX writes one sheet: a title row, the entry table and the totals.
func RenderXLSX(p *Paysheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Paysheet"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, fmt.Errorf("money style: %w", err)
	}

	f.SetColWidth(sheet, "A", "A", 28)
	f.SetColWidth(sheet, "B", "B", 22)
	f.SetColWidth(sheet, "C", "C", 12)
	f.SetColWidth(sheet, "D", "E", 22)
	f.SetColWidth(sheet, "F", "K", 14)
	f.SetColWidth(sheet, "L", "M", 18)

	f.SetCellValue(sheet, "A1", fmt.Sprintf("Paysheet %s to %s (%s)", p.PeriodStart, p.PeriodEnd, p.Status))

	row := 3
	for i, h := range entryHeader {
		f.SetCellValue(sheet, cellName(i+1, row), h)
	}
	f.SetCellStyle(sheet, cellName(1, row), cellName(len(entryHeader), row), headerStyle)

	for _, e := range p.Entries {
		row++
		values := []any{
			e.EmployeeID, e.EmployeeName, e.Date, stamp(e.CheckInAt), stamp(e.CheckOutAt),
			e.RegularHours, e.OvertimeHoursMorning, e.OvertimeHoursEvening,
			e.RegularPay.InexactFloat64(), e.OvertimePay.InexactFloat64(), e.TotalPay.InexactFloat64(),
			yesNo(e.IsManuallyAdjusted), string(e.RecordStatus),
		}
		for i, v := range values {
			f.SetCellValue(sheet, cellName(i+1, row), v)
		}
		f.SetCellStyle(sheet, cellName(9, row), cellName(11, row), moneyStyle)
	}

	row += 2
	totals := []struct {
		label string
		value any
	}{
		{"Total Regular Pay", p.Totals.TotalRegularPay.InexactFloat64()},
		{"Total Overtime Pay", p.Totals.TotalOvertimePay.InexactFloat64()},
		{"Total Payable", p.Totals.TotalPayable.InexactFloat64()},
		{"Skipped Days", p.Totals.SkippedDays},
	}
	for _, t := range totals {
		f.SetCellValue(sheet, cellName(1, row), t.label)
		f.SetCellValue(sheet, cellName(2, row), t.value)
		row++
	}
	f.SetCellStyle(sheet, cellName(2, row-len(totals)), cellName(2, row-2), moneyStyle)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	pdfHeaderColor = props.Color{Red: 50, Green: 50, Blue: 50}
	pdfMutedColor  = props.Color{Red: 120, Green: 120, Blue: 120}
	pdfLineColor   = props.Color{Red: 200, Green: 200, Blue: 200}
)

var moneyPrinter = message.NewPrinter(language.English)

func formatMoney(d decimal.Decimal) string {
	return "Rs " + moneyPrinter.Sprintf("%.2f", d.InexactFloat64())
}

// RenderPDF prints included entries only; skipped days appear as a count.
func RenderPDF(p *Paysheet) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Paysheet", props.Text{Style: fontstyle.Bold, Size: 16, Color: &pdfHeaderColor}),
	)
	m.AddRow(7,
		text.NewCol(8, fmt.Sprintf("%s to %s", p.PeriodStart, p.PeriodEnd), props.Text{Size: 11, Color: &pdfMutedColor}),
		text.NewCol(4, fmt.Sprintf("Status: %s", p.Status), props.Text{Size: 11, Align: align.Right, Color: &pdfMutedColor}),
	)
	m.AddRow(4, line.NewCol(12, props.Line{Color: &pdfLineColor}))

	head := props.Text{Style: fontstyle.Bold, Size: 8, Color: &pdfHeaderColor}
	headRight := head
	headRight.Align = align.Right
	m.AddRow(7,
		text.NewCol(3, "Employee", head),
		text.NewCol(2, "Date", head),
		text.NewCol(1, "Reg h", headRight),
		text.NewCol(1, "OT h", headRight),
		text.NewCol(2, "Regular", headRight),
		text.NewCol(1, "Overtime", headRight),
		text.NewCol(2, "Total", headRight),
	)

	cell := props.Text{Size: 8}
	cellRight := props.Text{Size: 8, Align: align.Right}
	for _, e := range p.Entries {
		if e.RecordStatus != RecordIncluded {
			continue
		}
		name := e.EmployeeName
		if e.IsManuallyAdjusted {
			name += " *"
		}
		m.AddRow(6,
			text.NewCol(3, name, cell),
			text.NewCol(2, e.Date, cell),
			text.NewCol(1, hours(e.RegularHours), cellRight),
			text.NewCol(1, hours(e.OvertimeHours()), cellRight),
			text.NewCol(2, formatMoney(e.RegularPay), cellRight),
			text.NewCol(1, formatMoney(e.OvertimePay), cellRight),
			text.NewCol(2, formatMoney(e.TotalPay), cellRight),
		)
	}

	m.AddRow(4, line.NewCol(12, props.Line{Color: &pdfLineColor}))
	total := props.Text{Style: fontstyle.Bold, Size: 10, Color: &pdfHeaderColor}
	totalRight := total
	totalRight.Align = align.Right
	for _, t := range []struct{ label, value string }{
		{"Total regular pay", formatMoney(p.Totals.TotalRegularPay)},
		{"Total overtime pay", formatMoney(p.Totals.TotalOvertimePay)},
		{"Total payable", formatMoney(p.Totals.TotalPayable)},
		{"Skipped days (incomplete)", strconv.Itoa(p.Totals.SkippedDays)},
	} {
		m.AddRow(7, text.NewCol(8, t.label, total), text.NewCol(4, t.value, totalRight))
	}
	m.AddRow(6, text.NewCol(12, "* manually adjusted", props.Text{Size: 7, Color: &pdfMutedColor}))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}
