package controllers

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/teshager21/gotravel/config"
	"github.com/teshager21/gotravel/models"
	"github.com/teshager21/gotravel/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
)

type paymentsReportSummary struct {
	TotalPayments  int             `json:"total_payments"`
	Completed      int             `json:"completed"`
	Failed         int             `json:"failed"`
	Pending        int             `json:"pending"`
	CollectedTotal decimal.Decimal `json:"collected_total"`
}

func reportPeriodRange(period string) (time.Time, time.Time, bool) {
	now := time.Now()
	switch period {
	case "day":
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return start, now, true
	case "week":
		end := now
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -6)
		return start, end, true
	case "month":
		return now.AddDate(0, 0, -30), now, true
	}
	return time.Time{}, time.Time{}, false
}

func fetchPaymentsReport(startDate, endDate time.Time) ([]models.Payment, paymentsReportSummary, error) {
	var payments []models.Payment
	err := config.DB.Where("created_at >= ? AND created_at <= ?", startDate, endDate).
		Preload("Booking.User").
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, paymentsReportSummary{}, err
	}

	summary := paymentsReportSummary{CollectedTotal: decimal.Zero}
	for _, p := range payments {
		summary.TotalPayments++
		switch p.Status {
		case models.PaymentStatusCompleted:
			summary.Completed++
			summary.CollectedTotal = summary.CollectedTotal.Add(p.Amount)
		case models.PaymentStatusFailed, models.PaymentStatusCancelled:
			summary.Failed++
		default:
			summary.Pending++
		}
	}
	return payments, summary, nil
}

// Admin: GET /admin/payments/report
func GetPaymentsReport(c *gin.Context) {
	utils.LogInfo("GetPaymentsReport called")

	period := c.DefaultQuery("period", "day")
	startDate, endDate, ok := reportPeriodRange(period)
	if !ok {
		utils.BadRequest(c, "Invalid period", "Period must be day, week, or month")
		return
	}

	payments, summary, err := fetchPaymentsReport(startDate, endDate)
	if err != nil {
		utils.LogError("Failed to fetch payments: %v", err)
		utils.InternalServerError(c, "Failed to fetch payments", err.Error())
		return
	}

	utils.Success(c, "Payments report generated successfully", gin.H{
		"period":   period,
		"from":     startDate.Format("2006-01-02"),
		"to":       endDate.Format("2006-01-02"),
		"summary":  summary,
		"payments": payments,
	})
}

// Admin: GET /admin/payments/report/excel
func DownloadPaymentsReportExcel(c *gin.Context) {
	utils.LogInfo("DownloadPaymentsReportExcel called")

	period := c.DefaultQuery("period", "day")
	startDate, endDate, ok := reportPeriodRange(period)
	if !ok {
		utils.BadRequest(c, "Invalid period", "Period must be day, week, or month")
		return
	}

	payments, summary, err := fetchPaymentsReport(startDate, endDate)
	if err != nil {
		utils.LogError("Failed to fetch payments: %v", err)
		utils.InternalServerError(c, "Failed to fetch payments", err.Error())
		return
	}
	utils.LogDebug("Retrieved %d payments for Excel report", len(payments))

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Payments Report")
	if err != nil {
		utils.LogError("Failed to create Excel sheet: %v", err)
		utils.InternalServerError(c, "Failed to create Excel sheet", err.Error())
		return
	}

	titleRow := sheet.AddRow()
	titleRow.AddCell().SetString("GOTRAVEL - Payments Report")
	periodRow := sheet.AddRow()
	periodRow.AddCell().SetString("Period: " + strings.ToUpper(period) + " | " + startDate.Format("2006-01-02") + " to " + endDate.Format("2006-01-02"))
	sheet.AddRow() // spacing

	headers := []string{"Payment ID", "Booking Ref", "Transaction Ref", "User Email", "Date", "Amount", "Currency", "Status"}
	headerRow := sheet.AddRow()
	for _, h := range headers {
		cell := headerRow.AddCell()
		cell.SetString(h)
		style := xlsx.NewStyle()
		font := xlsx.DefaultFont()
		font.Bold = true
		style.Font = *font
		cell.SetStyle(style)
	}

	for _, p := range payments {
		row := sheet.AddRow()
		row.AddCell().SetInt(int(p.ID))
		row.AddCell().SetString(p.Booking.BookingReference)
		row.AddCell().SetString(p.TransactionRef)
		row.AddCell().SetString(p.Booking.User.Email)
		row.AddCell().SetString(p.CreatedAt.Format("2006-01-02 15:04"))
		row.AddCell().SetString(p.Amount.StringFixed(2))
		row.AddCell().SetString(p.Currency)
		row.AddCell().SetString(string(p.Status))
	}

	sheet.AddRow() // spacing

	summaryRow := sheet.AddRow()
	summaryRow.AddCell().SetString("Summary")
	style := xlsx.NewStyle()
	font := xlsx.DefaultFont()
	font.Bold = true
	style.Font = *font
	summaryRow.Cells[0].SetStyle(style)

	summaryData := [][]string{
		{"Total Payments", strconv.Itoa(summary.TotalPayments)},
		{"Completed", strconv.Itoa(summary.Completed)},
		{"Failed / Cancelled", strconv.Itoa(summary.Failed)},
		{"Pending", strconv.Itoa(summary.Pending)},
		{"Collected Total", summary.CollectedTotal.StringFixed(2)},
	}
	for _, data := range summaryData {
		row := sheet.AddRow()
		row.AddCell().SetString(data[0])
		row.AddCell().SetString(data[1])
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		utils.LogError("Failed to write Excel file: %v", err)
		utils.InternalServerError(c, "Failed to generate Excel report", err.Error())
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=payments_report.xlsx")
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
