package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/vitos/ltp_scanner/internal/domain"
)

// JournalEntry is one "setup" line written by the scanner's file logger.
type JournalEntry struct {
	Msg       string `json:"msg"`
	Symbol    string `json:"symbol"`
	Direction string `json:"direction"`
	Stage     string `json:"stage"`
	Score     int    `json:"score"`
	Grade     string `json:"grade"`
}

type SymbolReport struct {
	Symbol    string
	Scans     int
	AvgScore  float64
	BestScore int
	BestGrade string
	Ready     int
	Triggered int
	Bullish   int
	Bearish   int
}

func main() {
	path := flag.String("journal", "logs/scan_journal.log", "scan journal path")
	top := flag.Int("top", 30, "rows to print")
	flag.Parse()

	file, err := os.Open(*path)
	if err != nil {
		fmt.Printf("Error opening journal: %v\n", err)
		return
	}
	defer file.Close()

	reports := make(map[string]*SymbolReport)
	totals := make(map[string]int)

	decoder := json.NewDecoder(file)
	for decoder.More() {
		var e JournalEntry
		if err := decoder.Decode(&e); err != nil {
			fmt.Printf("Decode error: %v\n", err)
			break
		}
		if e.Msg != "setup" || e.Symbol == "" {
			continue
		}

		r, ok := reports[e.Symbol]
		if !ok {
			r = &SymbolReport{Symbol: e.Symbol, BestGrade: string(domain.GradeF)}
			reports[e.Symbol] = r
		}
		r.Scans++
		totals[e.Symbol] += e.Score
		if e.Score > r.BestScore {
			r.BestScore = e.Score
			r.BestGrade = e.Grade
		}
		switch domain.Stage(e.Stage) {
		case domain.StageReady:
			r.Ready++
		case domain.StageTriggered:
			r.Triggered++
		}
		switch domain.Direction(e.Direction) {
		case domain.DirectionBullish:
			r.Bullish++
		case domain.DirectionBearish:
			r.Bearish++
		}
	}

	results := make([]*SymbolReport, 0, len(reports))
	for symbol, r := range reports {
		r.AvgScore = float64(totals[symbol]) / float64(r.Scans)
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].AvgScore > results[j].AvgScore
	})

	fmt.Printf("\nScan journal summary (%d symbols):\n", len(results))
	fmt.Printf("%-14s | %-6s | %-9s | %-5s | %-5s | %-7s | %s\n", "Symbol", "Scans", "Avg Score", "Best", "Grade", "Ready/T", "Bull/Bear")
	fmt.Println("--------------------------------------------------------------------------------")

	for i, r := range results {
		if i >= *top {
			break
		}
		fmt.Printf("%-14s | %-6d | %-9.1f | %-5d | %-5s | %3d/%-3d | %d/%d\n",
			r.Symbol, r.Scans, r.AvgScore, r.BestScore, r.BestGrade, r.Ready, r.Triggered, r.Bullish, r.Bearish)
	}
}
