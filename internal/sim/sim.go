// Package sim plays bot-versus-bot games through the engine actor to tune
// strategies and check that games always terminate.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"pokerduel/internal/app"
	"pokerduel/internal/bot"
	"pokerduel/internal/domain"

	"github.com/sirupsen/logrus"
)

// maxStepsPerGame bounds a single game. A 52-card deck is exhausted long
// before this many intents.
const maxStepsPerGame = 500

// ErrStalled reports a game that never reached game over.
var ErrStalled = errors.New("game did not finish")

// Options configures a simulation run.
type Options struct {
	Games    int
	Seed     int64
	Settings app.Settings
	LevelA   bot.BotLevel
	LevelB   bot.BotLevel
}

// SideStats aggregates results for one configured side.
type SideStats struct {
	Level      bot.BotLevel
	Wins       int
	TotalScore int
}

// AverageScore is the mean final score across all games.
func (s SideStats) AverageScore(games int) float64 {
	if games == 0 {
		return 0
	}
	return float64(s.TotalScore) / float64(games)
}

// Report summarizes a run.
type Report struct {
	Games         int
	A             SideStats
	B             SideStats
	DeckExhausted int // games won below the target score
	Steps         int
	Rejected      int
}

// Run plays opts.Games games, alternating which side opens.
func Run(ctx context.Context, opts Options, log *logrus.Logger) (Report, error) {
	report := Report{A: SideStats{Level: opts.LevelA}, B: SideStats{Level: opts.LevelB}}
	for i := 0; i < opts.Games; i++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		seed := opts.Seed + int64(i)
		entry := log.WithFields(logrus.Fields{"game": i + 1, "seed": seed})

		result, err := playGame(ctx, opts, seed, i%2 == 1)
		report.Steps += result.steps
		report.Rejected += result.rejected
		if err != nil {
			entry.WithError(err).Error("Game failed")
			return report, fmt.Errorf("game %d (seed %d): %w", i+1, seed, err)
		}

		report.Games++
		report.A.TotalScore += result.scoreA
		report.B.TotalScore += result.scoreB
		switch result.winner {
		case sideA:
			report.A.Wins++
		case sideB:
			report.B.Wins++
		}
		if result.winningScore < result.target {
			report.DeckExhausted++
		}
		entry.WithFields(logrus.Fields{
			"winner":  result.winner,
			"score_a": result.scoreA,
			"score_b": result.scoreB,
			"steps":   result.steps,
		}).Debug("Game finished")
	}
	return report, nil
}

type side string

const (
	sideA side = "a"
	sideB side = "b"
)

type gameResult struct {
	winner       side
	winningScore int
	target       int
	scoreA       int
	scoreB       int
	steps        int
	rejected     int
}

func playGame(ctx context.Context, opts Options, seed int64, bFirst bool) (gameResult, error) {
	var result gameResult

	a, err := bot.NewAgent(opts.LevelA)
	if err != nil {
		return result, err
	}
	defer bot.ReleaseBot(a.ID)
	b, err := bot.NewAgent(opts.LevelB)
	if err != nil {
		return result, err
	}
	defer bot.ReleaseBot(b.ID)

	src := rand.New(rand.NewSource(seed))
	engine := app.NewEngine(opts.Settings, func() *rand.Rand { return rand.New(rand.NewSource(src.Int63())) })

	result.target = engine.Settings().TargetScore

	results := make(chan app.Result, 1)
	actor := app.NewActor(engine, 1, func(r app.Result) { results <- r })

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = actor.Run(runCtx) }()

	submit := func(in app.Intent) (app.Result, error) {
		if err := actor.Submit(runCtx, in); err != nil {
			return app.Result{}, err
		}
		select {
		case r := <-results:
			return r, nil
		case <-runCtx.Done():
			return app.Result{}, runCtx.Err()
		}
	}

	seats := []*bot.Agent{a, b}
	if bFirst {
		seats = []*bot.Agent{b, a}
	}
	for _, agent := range seats {
		r, err := submit(app.Intent{Kind: app.IntentRegister, UserID: agent.ID})
		if err != nil {
			return result, err
		}
		if r.Err != nil {
			return result, r.Err
		}
	}

	var over *app.GameOverPayload
	for result.steps = 0; result.steps < maxStepsPerGame && over == nil; result.steps++ {
		current := engine.Snapshot().CurrentUserID
		agent := a
		if current == b.ID {
			agent = b
		}

		intent, ok, err := agent.NextIntent(engine)
		if err != nil {
			return result, err
		}
		if !ok {
			return result, fmt.Errorf("%w: no agent to act in phase %s", ErrStalled, engine.Phase())
		}

		r, err := submit(intent)
		if err != nil {
			return result, err
		}
		if r.Err != nil {
			result.rejected++
			continue
		}
		for _, ev := range r.Events {
			if p, ok := ev.Payload.(app.GameOverPayload); ok {
				over = &p
			}
		}
	}
	if over == nil {
		return result, ErrStalled
	}

	result.scoreA = over.Scores[a.ID]
	result.scoreB = over.Scores[b.ID]
	result.winningScore = over.Scores[over.WinnerID]
	switch over.WinnerID {
	case a.ID:
		result.winner = sideA
	case b.ID:
		result.winner = sideB
	}
	if engine.Phase() != domain.PhaseGameOver {
		return result, fmt.Errorf("%w: game over event in phase %s", ErrStalled, engine.Phase())
	}
	return result, nil
}
