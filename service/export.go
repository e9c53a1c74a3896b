package service

import (
	"encoding/csv"
	"fmt"
	"io"

	"finplan/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// 导出工作簿的工作表名
const (
	SheetTransactions = "Transações"
	SheetBudgets      = "Orçamentos"
	SheetRules        = "Regras"
)

// TransactionRow 带分类名的交易
type TransactionRow struct {
	models.Transaction
	CategoryName string `json:"categoryName"`
}

// MonthTransactions 当月交易，按日期倒序
func MonthTransactions(db *gorm.DB, userID uint, month, year int) ([]TransactionRow, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	if !models.ValidPeriod(month, year) {
		return nil, FieldError("month", "Mês ou ano inválido")
	}
	start, end := models.MonthRange(month, year)
	var rows []TransactionRow
	err := db.Model(&models.Transaction{}).
		Select("transactions.*, categories.name AS category_name").
		Joins("LEFT JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.user_id = ? AND transactions.date >= ? AND transactions.date <= ?", userID, start, end).
		Order("transactions.date DESC, transactions.id DESC").
		Scan(&rows).Error
	return rows, err
}

func typeLabel(t string) string {
	if t == models.TransactionTypeIncome {
		return "Receita"
	}
	return "Despesa"
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
}

type sheetStyles struct {
	header  int
	data    int
	summary int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error
	s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"059669"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
	if err != nil {
		return s, err
	}
	s.data, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
	if err != nil {
		return s, err
	}
	s.summary, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
	return s, err
}

// writeTable 写入表头与数据行，返回下一个空行号
func writeTable(f *excelize.File, sheet string, st sheetStyles, widths []float64, headers []string, rows [][]interface{}) (int, error) {
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return 0, err
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return 0, err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, st.header); err != nil {
		return 0, err
	}
	for i, r := range rows {
		row := i + 2
		start, _ := excelize.CoordinatesToCellName(1, row)
		end, _ := excelize.CoordinatesToCellName(len(headers), row)
		values := r
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			return 0, err
		}
		if err := f.SetCellStyle(sheet, start, end, st.data); err != nil {
			return 0, err
		}
	}
	return len(rows) + 2, nil
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// BuildMonthlyWorkbook 生成当月工作簿：交易、分类预算、收入分配规则
func BuildMonthlyWorkbook(month, year int, txs []TransactionRow, budgets *CategoryBudgetSummary, rules *IncomeRuleSummary) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetTransactions); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetBudgets, SheetRules} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}
	st, err := newSheetStyles(f)
	if err != nil {
		return nil, err
	}

	// 交易
	txRows := make([][]interface{}, 0, len(txs))
	income, expense := decimal.Zero, decimal.Zero
	for _, t := range txs {
		category := t.CategoryName
		if category == "" {
			category = uncategorized
		}
		txRows = append(txRows, []interface{}{
			t.Date.Format("02/01/2006"), t.Description, category, typeLabel(t.Type), money(t.Amount),
		})
		if t.Type == models.TransactionTypeIncome {
			income = income.Add(t.Amount)
		} else {
			expense = expense.Add(t.Amount)
		}
	}
	next, err := writeTable(f, SheetTransactions, st,
		[]float64{14, 36, 20, 12, 16},
		[]string{"Data", "Descrição", "Categoria", "Tipo", "Valor"},
		txRows)
	if err != nil {
		return nil, err
	}
	summaryStart := next
	_ = f.SetCellValue(SheetTransactions, fmt.Sprintf("A%d", next), "Receitas")
	_ = f.SetCellValue(SheetTransactions, fmt.Sprintf("E%d", next), money(income))
	_ = f.SetCellValue(SheetTransactions, fmt.Sprintf("A%d", next+1), "Despesas")
	_ = f.SetCellValue(SheetTransactions, fmt.Sprintf("E%d", next+1), money(expense))
	_ = f.SetCellValue(SheetTransactions, fmt.Sprintf("A%d", next+2), "Saldo")
	_ = f.SetCellValue(SheetTransactions, fmt.Sprintf("E%d", next+2), money(income.Sub(expense)))
	for r := summaryStart; r <= next+2; r++ {
		_ = f.MergeCell(SheetTransactions, fmt.Sprintf("A%d", r), fmt.Sprintf("D%d", r))
	}
	_ = f.SetCellStyle(SheetTransactions, fmt.Sprintf("A%d", summaryStart), fmt.Sprintf("E%d", next+2), st.summary)

	// 分类预算
	var budgetRows [][]interface{}
	if budgets != nil {
		for _, b := range budgets.Budgets {
			budgetRows = append(budgetRows, []interface{}{
				b.CategoryName, money(b.Budget), money(b.Spent), money(b.Remaining), FormatPercent(b.Percentage),
			})
		}
	}
	next, err = writeTable(f, SheetBudgets, st,
		[]float64{24, 16, 16, 16, 14},
		[]string{"Categoria", "Orçamento", "Gasto", "Restante", "Uso"},
		budgetRows)
	if err != nil {
		return nil, err
	}
	if budgets != nil {
		t := budgets.Totals
		_ = f.SetSheetRow(SheetBudgets, fmt.Sprintf("A%d", next), &[]interface{}{
			"Total", money(t.TotalBudget), money(t.TotalSpent), money(t.Savings), FormatPercent(t.Percentage),
		})
		_ = f.SetCellStyle(SheetBudgets, fmt.Sprintf("A%d", next), fmt.Sprintf("E%d", next), st.summary)
	}

	// 收入分配规则与子项
	var ruleRows [][]interface{}
	if rules != nil {
		for _, r := range rules.Rules {
			ruleRows = append(ruleRows, []interface{}{
				r.Name, "", FormatPercent(r.Percentage), money(r.BudgetAmount), money(r.Spent), money(r.Remaining),
			})
			for _, it := range r.Items {
				ruleRows = append(ruleRows, []interface{}{
					r.Name, it.Name, "", money(it.Amount), money(it.Spent), money(it.Remaining),
				})
			}
		}
	}
	next, err = writeTable(f, SheetRules, st,
		[]float64{24, 24, 12, 16, 16, 16},
		[]string{"Regra", "Item", "Porcentagem", "Previsto", "Gasto", "Restante"},
		ruleRows)
	if err != nil {
		return nil, err
	}
	if rules != nil && len(rules.Rules) > 0 {
		_ = f.SetSheetRow(SheetRules, fmt.Sprintf("A%d", next), &[]interface{}{
			fmt.Sprintf("Renda base %02d/%d", rules.Month, rules.Year), "", FormatPercent(rules.TotalPercentage),
			money(rules.TotalBudget), money(rules.TotalSpent), money(rules.TotalBudget.Sub(rules.TotalSpent)),
		})
		_ = f.SetCellStyle(SheetRules, fmt.Sprintf("A%d", next), fmt.Sprintf("F%d", next), st.summary)
	}

	f.SetActiveSheet(0)
	return f, nil
}

// WriteTransactionsCSV 以 UTF-8 BOM 开头写出交易 CSV，便于 Excel 识别编码
func WriteTransactionsCSV(w io.Writer, txs []TransactionRow) error {
	if _, err := io.WriteString(w, "\xEF\xBB\xBF"); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"ID", "Data", "Descrição", "Categoria", "Tipo", "Valor"}); err != nil {
		return err
	}
	for _, t := range txs {
		category := t.CategoryName
		if category == "" {
			category = uncategorized
		}
		record := []string{
			fmt.Sprintf("%d", t.ID),
			t.Date.Format("2006-01-02"),
			t.Description,
			category,
			typeLabel(t.Type),
			t.Amount.StringFixed(2),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
