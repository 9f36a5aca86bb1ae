// Command simulate plays bot-versus-bot games offline and prints win rates.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"pokerduel/internal/app"
	"pokerduel/internal/bot"
	"pokerduel/internal/config"
	"pokerduel/internal/sim"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"
)

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

// sideTable holds one row per side plus a header row.
func sideTable(report sim.Report) pterm.TableData {
	row := func(name string, s sim.SideStats) []string {
		return []string{
			name,
			s.Level.String(),
			strconv.Itoa(s.Wins),
			fmt.Sprintf("%.1f", s.AverageScore(report.Games)),
		}
	}
	return pterm.TableData{
		{"Side", "Level", "Wins", "Avg score"},
		row("a", report.A),
		row("b", report.B),
	}
}

func summary(report sim.Report, elapsed time.Duration) string {
	return fmt.Sprintf("games played:   %s (%s)\ndeck exhausted: %d\nrejected moves: %d",
		pterm.LightCyan(report.Games), elapsed.Round(time.Millisecond), report.DeckExhausted, report.Rejected)
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Could not read .env")
	}

	games := flag.Int("games", int(envInt64("SIM_GAMES", 100)), "number of games to play")
	seed := flag.Int64("seed", envInt64("SIM_SEED", time.Now().UnixNano()), "base shuffle seed")
	target := flag.Int("target", int(envInt64("SIM_TARGET_SCORE", 0)), "target score, 0 uses the config")
	levelA := flag.String("a", envString("SIM_BOT_A", "easy"), "difficulty of side a")
	levelB := flag.String("b", envString("SIM_BOT_B", "medium"), "difficulty of side b")
	configPath := flag.String("config", envString("SIM_CONFIG", "data/game_config.json"), "game config path")
	logLevel := flag.String("log-level", envString("SIM_LOG_LEVEL", "info"), "logrus level")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		log.WithError(err).Fatal("Invalid log level")
	}
	log.SetLevel(level)

	if err := config.LoadGameConfig(*configPath); err != nil {
		log.WithError(err).Warn("Using default game config")
	}
	cfg := config.GetGameConfig()

	a, err := bot.ParseBotLevel(*levelA)
	if err != nil {
		log.WithError(err).Fatal("Invalid level for side a")
	}
	b, err := bot.ParseBotLevel(*levelB)
	if err != nil {
		log.WithError(err).Fatal("Invalid level for side b")
	}

	settings := app.Settings{TargetScore: cfg.TargetScore, HandSize: cfg.HandSize, MaxPlaySize: cfg.MaxPlaySize}
	if *target > 0 {
		settings.TargetScore = *target
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	started := time.Now()
	log.WithFields(logrus.Fields{
		"games":  *games,
		"seed":   *seed,
		"target": settings.TargetScore,
		"a":      a,
		"b":      b,
	}).Info("Starting simulation")

	report, err := sim.Run(ctx, sim.Options{Games: *games, Seed: *seed, Settings: settings, LevelA: a, LevelB: b}, log)
	if err != nil {
		log.WithError(err).Error("Simulation stopped early")
	}

	table, tableErr := pterm.DefaultTable.WithHasHeader().WithData(sideTable(report)).Srender()
	if tableErr != nil {
		log.WithError(tableErr).Fatal("Could not render report")
	}
	pterm.Println(pterm.DefaultBox.
		WithTitle(pterm.LightGreen("|SIMULATION|")).
		WithTitleTopCenter().
		WithLeftPadding(2).
		WithRightPadding(2).
		Sprint(table + "\n\n" + summary(report, time.Since(started))))

	if err != nil {
		os.Exit(1)
	}
}
