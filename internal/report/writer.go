package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"bourse/internal/clearing"
	"bourse/internal/common"

	"github.com/rs/zerolog/log"
)

var (
	missionHeader = []string{
		"BUY CUSTOMER", "SELL CUSTOMER", "TICKER",
		"MATCH QUANTITY", "MATCH PRICE", "DATE OF AGREEMENT",
	}
	settlementHeader = []string{
		"BUY ID", "TICKER", "MATCH QUANTITY", "BUY PB", "BUY EB",
		"SELL ID", "SELL RECEIVED", "SELL PB", "SELL EB", "SETTLEMENT DATE",
	}
)

// DirWriter writes the daily mission and settlement files to a directory.
type DirWriter struct {
	dir string
}

func NewDirWriter(dir string) (*DirWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &DirWriter{dir: dir}, nil
}

func MissionsFile(day int) string    { return fmt.Sprintf("missions%d.csv", day) }
func SettlementsFile(day int) string { return fmt.Sprintf("settlements%d.csv", day) }

func (w *DirWriter) WriteMissions(day int, agreements []common.Agreement) error {
	rows := make([][]string, len(agreements))
	for i, agreement := range agreements {
		rows[i] = agreement.Fields()
	}
	return w.write(MissionsFile(day), missionHeader, rows)
}

func (w *DirWriter) WriteSettlements(day int, settlements []clearing.Settlement) error {
	rows := make([][]string, len(settlements))
	for i, settlement := range settlements {
		rows[i] = settlement.Fields()
	}
	return w.write(SettlementsFile(day), settlementHeader, rows)
}

func (w *DirWriter) write(name string, header []string, rows [][]string) error {
	path := filepath.Join(w.dir, name)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := writeRows(file, header, rows); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	log.Debug().Str("file", path).Int("rows", len(rows)).Msg("report written")
	return nil
}

func writeRows(w io.Writer, header []string, rows [][]string) error {
	out := csv.NewWriter(w)
	if err := out.Write(header); err != nil {
		return err
	}
	return out.WriteAll(rows)
}
