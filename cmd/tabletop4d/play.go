package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/hololab/tabletop4d/internal/api"
	"github.com/hololab/tabletop4d/internal/board"
	"github.com/hololab/tabletop4d/internal/config"
	"github.com/hololab/tabletop4d/internal/dispatcher"
	"github.com/hololab/tabletop4d/internal/geo"
	"github.com/hololab/tabletop4d/internal/influx"
	"github.com/hololab/tabletop4d/internal/layout"
	"github.com/hololab/tabletop4d/internal/logging"
	"github.com/hololab/tabletop4d/internal/match"
	"github.com/hololab/tabletop4d/internal/monitor"
	"github.com/hololab/tabletop4d/internal/pairing"
	"github.com/hololab/tabletop4d/internal/recorder"
	"github.com/hololab/tabletop4d/internal/scheduler"
	"github.com/hololab/tabletop4d/internal/session"
	"github.com/hololab/tabletop4d/internal/storage"
	"github.com/hololab/tabletop4d/pkg/core"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/metric"
)

// moveTimeout bounds how long the console waits for a move to resolve.
const moveTimeout = 5 * time.Second

const uploadTimeout = 2 * time.Minute

type gameDeps struct {
	Clock      scheduler.Clock
	Storage    storage.Backend
	Points     recorder.PointWriter
	Meter      metric.Meter
	Logger     *slog.Logger
	StatusPath string
}

// game is one wired match: boards, session, recording and console input.
type game struct {
	logger   *slog.Logger
	sched    *scheduler.Scheduler
	session  *session.Session
	recorder *recorder.Recorder
	matchCtx *match.Context
	monitor  *monitor.Service
	dispatch *dispatcher.Dispatcher
	match    *core.Match

	quit     chan struct{}
	quitOnce sync.Once
}

func loadScene() (layout.Scene, error) {
	path := viper.GetString("layoutFile")
	if path == "" {
		return layout.Default(), nil
	}
	return layout.Load(path)
}

func sessionConfig(cfg config.GameConfig) (session.Config, error) {
	first, err := board.ParseTeam(cfg.FirstSide)
	if err != nil {
		return session.Config{}, fmt.Errorf("game.firstSide: %w", err)
	}
	if cfg.ClearDelay > cfg.Cooldown {
		return session.Config{}, fmt.Errorf("game.clearDelay %s exceeds game.cooldown %s", cfg.ClearDelay, cfg.Cooldown)
	}
	return session.Config{
		Cooldown:          cfg.Cooldown,
		ClearDelay:        cfg.ClearDelay,
		AnimationDuration: cfg.AnimationDuration,
		MaxSelectAttempts: cfg.MaxSelectAttempts,
		FirstSide:         first,
		AutoPlay:          cfg.AutoPlay,
		MaxTurns:          cfg.MaxTurns,
	}, nil
}

func newGame(deps gameDeps) (*game, error) {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	scene, err := loadScene()
	if err != nil {
		return nil, err
	}
	mini, err := layout.Setup(board.KindMini, scene.Mini, layout.ClipFactory, log)
	if err != nil {
		return nil, fmt.Errorf("mini board: %w", err)
	}
	giant, err := layout.Setup(board.KindGiant, scene.Giant, layout.ClipFactory, log)
	if err != nil {
		return nil, fmt.Errorf("giant board: %w", err)
	}
	pairs := pairing.Build(mini, giant, log)

	sched, err := scheduler.New(deps.Clock, log)
	if err != nil {
		return nil, err
	}

	gameCfg := config.GetGameConfig()
	cfg, err := sessionConfig(gameCfg)
	if err != nil {
		return nil, err
	}
	seed := gameCfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	rec := recorder.New(recorder.Dependencies{
		Storage:   deps.Storage,
		Points:    deps.Points,
		Scheduler: sched,
		Logger:    log,
	})

	metrics, err := session.NewMetrics(deps.Meter)
	if err != nil {
		return nil, err
	}
	sess, err := session.New(session.Dependencies{
		Mini:      mini,
		Giant:     giant,
		Pairing:   pairs,
		Scheduler: sched,
		Rand:      rand.New(rand.NewPCG(uint64(seed), 0)),
		Logger:    log,
		Recorder:  rec,
		Metrics:   metrics,
	}, cfg)
	if err != nil {
		return nil, err
	}

	name := viper.GetString("matchName")
	if name == "" {
		name = "match_" + sched.Now().Format("20060102_150405")
	}

	g := &game{
		logger:   log,
		sched:    sched,
		session:  sess,
		recorder: rec,
		matchCtx: match.NewContext(),
		quit:     make(chan struct{}),
		match: &core.Match{
			Name:      name,
			Seed:      seed,
			FirstSide: cfg.FirstSide.String(),
			Version:   CurrentVersion,
			Pieces:    sess.Lineup(),
		},
	}

	if deps.StatusPath != "" {
		g.monitor = monitor.NewService(monitor.Dependencies{
			Session:      sess,
			Scheduler:    sched,
			Recorder:     rec,
			MatchContext: g.matchCtx,
			Logger:       log,
			StatusPath:   deps.StatusPath,
			Interval:     viper.GetDuration("statusInterval"),
		})
	}

	g.dispatch, err = dispatcher.New(logging.NewDispatcherLogger(log))
	if err != nil {
		return nil, err
	}
	g.registerHandlers()

	log.Info("Game ready",
		"match", name,
		"seed", seed,
		"pieces", len(mini.Pieces()),
		"pairs", pairs.Len(),
		"autoPlay", cfg.AutoPlay,
	)
	return g, nil
}

// logAttrs is installed as the logging context provider.
func (g *game) logAttrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("match", g.match.Name)}
	return append(attrs, g.session.LogAttrs()...)
}

// begin records the match and posts the first selection.
func (g *game) begin() error {
	g.match.StartTime = g.sched.Now()
	if err := g.recorder.StartMatch(g.match); err != nil {
		return err
	}
	g.matchCtx.SetMatch(g.match)
	g.session.Start()
	if g.monitor != nil {
		if err := g.monitor.Start(); err != nil {
			g.logger.Warn("Failed to start status monitor", "error", err)
		}
	}
	return nil
}

// finish stops the monitor and closes the match in storage.
func (g *game) finish() error {
	g.session.Stop("shutdown")
	if g.monitor != nil {
		g.monitor.Stop()
		if err := g.monitor.WriteStatus(g.sched.Now()); err != nil {
			g.logger.Warn("Failed to write final status", "error", err)
		}
	}
	g.matchCtx.End(g.sched.Now())
	return g.recorder.EndMatch()
}

func (g *game) requestQuit() {
	g.quitOnce.Do(func() { close(g.quit) })
}

func (g *game) registerHandlers() {
	g.dispatch.Register(dispatcher.CommandAdvance, g.handleAdvance, dispatcher.Logged())
	g.dispatch.Register(dispatcher.CommandMove, g.handleMove, dispatcher.Logged())
	g.dispatch.Register(dispatcher.CommandStatus, g.handleStatus)
	g.dispatch.Register(dispatcher.CommandQuit, func(dispatcher.Event) (any, error) {
		g.requestQuit()
		return "bye", nil
	})
}

func (g *game) handleAdvance(dispatcher.Event) (any, error) {
	g.sched.Post("input:advance", func() {
		if err := g.session.Advance(); err != nil {
			g.logger.Info("Advance rejected", "error", err)
		}
	})
	return "ok", nil
}

// handleMove resolves the selected piece at the given placement, or lets
// the session pick a destination when no placement is given.
func (g *game) handleMove(e dispatcher.Event) (any, error) {
	var at *geo.Placement
	if len(e.Args) > 0 {
		p, err := geo.PlacementFromString(strings.Join(e.Args, ","))
		if err != nil {
			return nil, fmt.Errorf("move %q: %w", strings.Join(e.Args, " "), err)
		}
		at = &p
	}

	type outcome struct {
		res session.TurnResult
		err error
	}
	done := make(chan outcome, 1)
	g.sched.Post("input:move", func() {
		var o outcome
		if at == nil {
			o.res, o.err = g.session.AutoMove()
		} else {
			o.res, o.err = g.session.Resolve(*at)
		}
		done <- o
	})

	select {
	case o := <-done:
		if o.err != nil {
			return nil, o.err
		}
		return describeTurn(o.res), nil
	case <-time.After(moveTimeout):
		return nil, errors.New("move timed out")
	}
}

func (g *game) handleStatus(dispatcher.Event) (any, error) {
	return g.session.Snapshot(), nil
}

func describeTurn(r session.TurnResult) string {
	if r.Passed || r.Piece == nil {
		return fmt.Sprintf("turn %d: passed", r.Turn)
	}
	s := fmt.Sprintf("turn %d: %s %s -> %s", r.Turn, r.Piece.Name, r.From, r.To)
	if r.Captured != nil {
		s += " captures " + r.Captured.Name
	}
	return s
}

func printSnapshot(w io.Writer, snap session.Snapshot) {
	fmt.Fprintf(w, "turn %d, %s to play, state %s", snap.Turn, snap.Side, snap.State)
	if snap.Selected != "" {
		fmt.Fprintf(w, ", selected %s", snap.Selected)
	}
	if snap.Finished {
		fmt.Fprint(w, ", finished")
		if snap.Winner != "" {
			fmt.Fprintf(w, " (%s wins)", snap.Winner)
		}
	}
	fmt.Fprintf(w, "\nmini:\n%s\ngiant:\n%s\n", snap.Mini, snap.Giant)
}

// readInput feeds console lines to the dispatcher until r is exhausted.
func (g *game) readInput(r io.Reader, w io.Writer) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		e, err := dispatcher.ParseLine(scanner.Text())
		if errors.Is(err, dispatcher.ErrEmptyLine) {
			continue
		}
		if err != nil {
			fmt.Fprintf(w, "%v (commands: %s)\n", err, strings.Join(g.dispatch.Commands(), " "))
			continue
		}
		result, err := g.dispatch.Dispatch(e)
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			continue
		}
		switch v := result.(type) {
		case session.Snapshot:
			printSnapshot(w, v)
		case string:
			fmt.Fprintln(w, v)
		}
	}
	if err := scanner.Err(); err != nil {
		g.logger.Warn("Console input failed", "error", err)
	}
}

func connectInflux() (*influx.Manager, recorder.PointWriter) {
	backup := filepath.Join(
		viper.GetString("logsDir"),
		fmt.Sprintf("%s_%s.influx.gz", BinaryName, SessionStartTime.Format("20060102_150405")),
	)
	m := influx.NewManager(SlogManager.Zerolog("influx"), backup)
	err := m.Connect()
	switch {
	case errors.Is(err, influx.ErrDisabled):
		return nil, nil
	case err != nil:
		Logger.Error("Failed to set up InfluxDB", "error", err)
		return nil, nil
	}
	return m, m
}

func checkServerStatus(ctx context.Context, client *api.Client) {
	if err := client.Healthcheck(ctx); err != nil {
		Logger.Info("Spectator server is offline", "error", err)
		return
	}
	Logger.Info("Spectator server is online")
}

func uploadMatch(client *api.Client, store storage.Backend, g *game) {
	exp, ok := store.(storage.Exportable)
	if !ok || exp.ExportedFilePath() == "" {
		return
	}
	meta := core.UploadMetadata{
		MatchName: g.match.Name,
		Duration:  g.matchCtx.Duration(g.sched.Now()).Seconds(),
		Turns:     g.session.Turn(),
		Seed:      g.match.Seed,
		FirstSide: g.match.FirstSide,
	}
	if w, ok := g.session.Winner(); ok {
		meta.Winner = w.String()
	}
	// the run context may already be cancelled by a shutdown signal
	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()
	if err := client.Upload(ctx, exp.ExportedFilePath(), meta); err != nil {
		Logger.Error("Failed to upload match", "error", err, "path", exp.ExportedFilePath())
		return
	}
	Logger.Info("Match uploaded", "path", exp.ExportedFilePath())
}

func runPlay(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := api.New(viper.GetString("api.serverUrl"), viper.GetString("api.apiKey"))
	go checkServerStatus(ctx, client)

	store, err := initStorage()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			Logger.Error("Failed to close storage", "error", err)
		}
	}()

	influxManager, points := connectInflux()
	if influxManager != nil {
		defer func() {
			if err := influxManager.Close(); err != nil {
				Logger.Error("Failed to close InfluxDB", "error", err)
			}
		}()
	}

	g, err := newGame(gameDeps{
		Clock:      scheduler.RealClock{},
		Storage:    store,
		Points:     points,
		Meter:      OTelProvider.Meter("github.com/hololab/tabletop4d/internal/session"),
		Logger:     Logger,
		StatusPath: statusPath(),
	})
	if err != nil {
		Logger.Error("Failed to set up game", "error", err)
		return err
	}
	SlogManager.SetContextProvider(g.logAttrs)
	defer SlogManager.SetContextProvider(nil)

	if err := g.begin(); err != nil {
		return err
	}

	schedCtx, cancelSched := context.WithCancel(context.Background())
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		_ = g.sched.Run(schedCtx)
	}()

	autoPlay := g.session.Config().AutoPlay
	go func() {
		g.readInput(os.Stdin, os.Stdout)
		// without autoplay nothing can drive the match once input is gone
		if !autoPlay {
			g.requestQuit()
		}
	}()

	select {
	case <-ctx.Done():
		Logger.Info("Received shutdown signal")
	case <-g.session.Done():
		Logger.Info("Match ended", "turns", g.session.Turn())
	case <-g.quit:
		Logger.Info("Quit requested")
	}

	cancelSched()
	<-schedDone

	err = g.finish()
	if err != nil {
		Logger.Error("Failed to close match", "error", err)
	}
	flushCtx, cancelFlush := context.WithTimeout(context.Background(), 5*time.Second)
	if ferr := OTelProvider.Flush(flushCtx); ferr != nil {
		Logger.Warn("Failed to flush OTel logs", "error", ferr)
	}
	cancelFlush()
	printSnapshot(os.Stdout, g.session.Snapshot())

	if viper.GetString("api.apiKey") != "" {
		uploadMatch(client, store, g)
	}
	return err
}
