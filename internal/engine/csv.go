package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/MihutMatei/quant-backtester/types"
)

const transactionTimeFormat = "2006-01-02 15:04:05"

// WriteTransactionsCSVFile writes the transaction log to a CSV file at the
// given path.
func WriteTransactionsCSVFile(path string, transactions []types.Transaction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create transactions file: %w", err)
	}
	defer f.Close()

	return WriteTransactionsCSV(f, transactions)
}

// WriteTransactionsCSV writes transactions to any io.Writer as CSV, one row
// per transaction in chronological order. Monetary and percentage fields use
// 2 decimals, share quantities 6.
func WriteTransactionsCSV(w io.Writer, transactions []types.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"Date",
		"Action",
		"Price",
		"Shares",
		"PnL",
		"Return%",
		"Portfolio_Value",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, tx := range transactions {
		record := []string{
			tx.Time.Format(transactionTimeFormat),
			string(tx.Action),
			tx.Price.StringFixed(2),
			tx.Shares.StringFixed(6),
			tx.PnL.StringFixed(2),
			tx.ReturnPct.StringFixed(2),
			tx.PortfolioValue.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
