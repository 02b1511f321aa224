package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/LimitAL/cafemaker-web/internal/config"
	"github.com/LimitAL/cafemaker-web/internal/database"
	"github.com/LimitAL/cafemaker-web/internal/models"
	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"
)

var (
	out   = flag.String("out", "market-report.xlsx", "output file path")
	since = flag.Duration("since", 24*time.Hour, "export window")
)

// Exports update telemetry and recorded exceptions to a spreadsheet for
// offline review of updater throughput and failure patterns.
func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	cutoff := time.Now().Add(-*since)

	var updates []models.MarketItemUpdate
	if err := db.Where("created_at > ?", cutoff).Order("created_at ASC").Find(&updates).Error; err != nil {
		log.Fatalf("failed to load updates: %v", err)
	}

	var exceptions []models.MarketItemException
	if err := db.Where("created_at > ?", cutoff).Order("created_at ASC").Find(&exceptions).Error; err != nil {
		log.Fatalf("failed to load exceptions: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const updatesSheet = "Updates"
	f.SetSheetName("Sheet1", updatesSheet)
	headers := []string{"Time", "Item", "Server", "Priority", "Duration (s)"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(updatesSheet, cell, h)
	}
	for row, u := range updates {
		f.SetCellValue(updatesSheet, fmt.Sprintf("A%d", row+2), u.CreatedAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(updatesSheet, fmt.Sprintf("B%d", row+2), u.Item)
		f.SetCellValue(updatesSheet, fmt.Sprintf("C%d", row+2), u.Server)
		f.SetCellValue(updatesSheet, fmt.Sprintf("D%d", row+2), u.Priority)
		f.SetCellValue(updatesSheet, fmt.Sprintf("E%d", row+2), u.Duration)
	}

	const exceptionsSheet = "Exceptions"
	if _, err := f.NewSheet(exceptionsSheet); err != nil {
		log.Fatalf("failed to create sheet: %v", err)
	}
	headers = []string{"Time", "Kind", "Item", "Server", "Message"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exceptionsSheet, cell, h)
	}
	for row, e := range exceptions {
		f.SetCellValue(exceptionsSheet, fmt.Sprintf("A%d", row+2), e.CreatedAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(exceptionsSheet, fmt.Sprintf("B%d", row+2), e.Kind)
		f.SetCellValue(exceptionsSheet, fmt.Sprintf("C%d", row+2), e.Item)
		f.SetCellValue(exceptionsSheet, fmt.Sprintf("D%d", row+2), e.Server)
		f.SetCellValue(exceptionsSheet, fmt.Sprintf("E%d", row+2), e.Message)
	}

	if err := f.SaveAs(*out); err != nil {
		log.Fatalf("failed to save %s: %v", *out, err)
	}

	log.Printf("exported %d updates and %d exceptions to %s", len(updates), len(exceptions), *out)
}
