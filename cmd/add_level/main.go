package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vitos/ltp_scanner/internal/domain"
	"github.com/vitos/ltp_scanner/internal/infrastructure/storage"
	"github.com/vitos/ltp_scanner/internal/usecase"
)

func main() {
	dbPath := flag.String("db", "ltp.db", "sqlite database path")
	symbol := flag.String("symbol", "BTCUSDT", "symbol")
	price := flag.Float64("price", 0, "level price")
	levelType := flag.String("type", string(domain.LevelSupport), "level type (support, resistance, vwap, prior_day_high, prior_day_low, ema)")
	tf := flag.String("tf", string(domain.TFDaily), "timeframe the level was read from")
	strength := flag.Float64("strength", 70, "strength 0..100")
	ttl := flag.Duration("ttl", 24*time.Hour, "how long the level stays valid")
	flag.Parse()

	if *price <= 0 {
		log.Fatal("price must be positive")
	}
	if *strength < 0 || *strength > 100 {
		log.Fatal("strength must be within 0..100")
	}
	if !domain.LevelType(*levelType).Valid() {
		log.Fatalf("unknown level type %q", *levelType)
	}
	if !domain.Timeframe(*tf).Valid() {
		log.Fatalf("unknown timeframe %q", *tf)
	}

	store, err := storage.NewSQLiteStore(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	now := time.Now().UTC()
	level := &domain.KeyLevel{
		ID:        uuid.NewString(),
		Symbol:    strings.ToUpper(*symbol),
		Type:      domain.LevelType(*levelType),
		Price:     *price,
		Timeframe: domain.Timeframe(*tf),
		Strength:  *strength,
		CreatedAt: now,
		ExpiresAt: now.Add(*ttl),
	}

	if err := store.SaveKeyLevel(context.Background(), level); err != nil {
		log.Fatalf("Failed to save level: %v", err)
	}

	fmt.Printf("Level added\n")
	fmt.Printf("ID:        %s\n", level.ID)
	fmt.Printf("Symbol:    %s\n", level.Symbol)
	fmt.Printf("Type:      %s\n", level.Type)
	fmt.Printf("Price:     %.2f\n", level.Price)
	fmt.Printf("Strength:  %.0f\n", level.Strength)
	fmt.Printf("Expires:   %s\n", level.ExpiresAt.Format(time.RFC3339))

	lo, hi := usecase.NewLevelEvaluator().ProximityBand(level, usecase.DefaultProximityPct)
	fmt.Printf("Scores when price is within %.2f - %.2f\n", lo, hi)
}
