package http

import (
	"fmt"
	"net/http"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/sheets"

	"github.com/xuri/excelize/v2"
)

// handleLedger returns the merged list of records and projected charges for one type.
func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	year, err := ParseYearParam(r.URL.Query(), s.currentYear())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	rt := core.RecordType(r.URL.Query().Get("type"))
	if rt == "" {
		rt = core.Expense
	}
	if !rt.Valid() {
		BadRequestError("type must be income or expense").Write(w)
		return
	}

	view, err := s.ledger.LoadYear(r.Context(), year)
	if err != nil {
		writeServiceError(w, r, err, log.OpRead)
		return
	}
	entries := view.ExpenseList
	if rt == core.Income {
		entries = view.IncomeList
	}
	NewHTMXResponse().JSON(map[string]any{
		"year":    year,
		"type":    rt,
		"entries": toEntryDTOs(entries),
	}).Write(w)
}

// parseGridMode accepts an aggregate mode or "overview" (empty).
func parseGridMode(s string) (core.AggregateMode, bool, error) {
	if s == "" || s == modeOverview {
		return "", true, nil
	}
	m, err := core.ParseAggregateMode(s)
	return m, false, err
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	year, err := ParseYearParam(r.URL.Query(), s.currentYear())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	mode, overview, err := parseGridMode(r.URL.Query().Get("mode"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	view, err := s.ledger.LoadYear(r.Context(), year)
	if err != nil {
		writeServiceError(w, r, err, log.OpRead)
		return
	}
	if overview {
		NewHTMXResponse().JSON(toOverviewDTO(view.Grid)).Write(w)
		return
	}
	NewHTMXResponse().JSON(toGridDTO(view, mode)).Write(w)
}

// handleGridPartial renders the grid as an HTML fragment for HTMX swaps.
func (s *Server) handleGridPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	year, err := ParseYearParam(r.URL.Query(), s.currentYear())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	tab := core.TabOverview
	if q := r.URL.Query().Get("mode"); q != "" && q != modeOverview {
		if tab, err = core.ParseTab(q); err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
	}

	view, err := s.ledger.LoadYear(r.Context(), year)
	if err != nil {
		writeServiceError(w, r, err, log.OpRead)
		return
	}
	s.render(w, r, "grid.html", s.gridPage(view, tab))
}

// handleExport streams the year grid as an XLSX workbook with the same layout
// as the spreadsheet mirror.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	year, err := ParseYearParam(r.URL.Query(), s.currentYear())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	view, err := s.ledger.LoadYear(r.Context(), year)
	if err != nil {
		writeServiceError(w, r, err, log.OpExport)
		return
	}

	f, err := buildWorkbook(view.Grid)
	if err != nil {
		writeServiceError(w, r, err, log.OpExport)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ledger-%d.xlsx"`, year))
	if err := f.Write(w); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to write workbook",
			"error", err,
			log.FieldYear, year,
			log.FieldOperation, log.OpExport)
	}
}

func buildWorkbook(g core.YearGrid) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := fmt.Sprint(g.Year)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for i, row := range sheets.GridTable(g) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return f, nil
}

type gridSection struct {
	Title   string
	Rows    []core.GridRow
	Columns [12]core.Money
	Total   core.Money
}

type gridPage struct {
	Year     int
	Mode     string
	Sections []gridSection

	ShowNet  bool
	Net      [12]core.Money
	NetTotal core.Money

	ShowAverage    bool
	AverageMonthly core.Money
}

func (s *Server) gridPage(v core.YearView, tab core.Tab) gridPage {
	p := gridPage{Year: v.Grid.Year, Mode: string(tab)}
	mode, ok := tab.Mode()
	if !ok {
		p.Mode = modeOverview
		p.Sections = []gridSection{
			{Title: "Income", Rows: v.Grid.IncomeRows, Columns: v.Grid.IncomeColumns, Total: v.Grid.TotalIncome},
			{Title: "Expense", Rows: v.Grid.ExpenseRows, Columns: v.Grid.ExpenseColumns, Total: v.Grid.TotalExpense},
		}
		p.ShowNet = true
		p.Net = v.Grid.NetColumns
		p.NetTotal = v.Grid.NetBalance
		return p
	}
	rows, cols := modeRows(v, mode)
	titles := map[core.AggregateMode]string{
		core.ModeIncome:           "Income",
		core.ModeExpense:          "Expense",
		core.ModePureSubscription: "Subscriptions",
	}
	p.Sections = []gridSection{{Title: titles[mode], Rows: rows, Columns: cols, Total: core.YearTotal(rows)}}
	if mode == core.ModePureSubscription {
		p.ShowAverage = true
		p.AverageMonthly = v.AverageMonthlySubscription
	}
	return p
}
