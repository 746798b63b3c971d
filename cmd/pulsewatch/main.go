// Command pulsewatch is the PulseWatch agent: it watches screen activity,
// detects hesitation, asks a remote predictor what to do about it, and
// synthesizes the approved action back at the OS level.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pulsewatch/agent/internal/capture"
	"github.com/pulsewatch/agent/internal/config"
	"github.com/pulsewatch/agent/internal/executor"
	"github.com/pulsewatch/agent/internal/framering"
	"github.com/pulsewatch/agent/internal/idlesensor"
	"github.com/pulsewatch/agent/internal/inputsynth"
	"github.com/pulsewatch/agent/internal/logging"
	"github.com/pulsewatch/agent/internal/predictor"
	"github.com/pulsewatch/agent/internal/pulse"
	"github.com/pulsewatch/agent/internal/suggestionlog"
	"github.com/pulsewatch/agent/internal/uiipc"
)

var (
	version = "0.1.0"
	cfgFile string
)

var log = logging.L("main")

var rootCmd = &cobra.Command{
	Use:   "pulsewatch",
	Short: "PulseWatch Agent",
	Long:  `PulseWatch - a desktop agent that notices hesitation and offers to finish the action for you.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the agent",
	Run: func(cmd *cobra.Command, args []string) {
		if isWindowsService() {
			if err := runAsService(startAgent); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
		runAgent()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("PulseWatch Agent v%s\n", version)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check agent status",
	Run: func(cmd *cobra.Command, args []string) {
		checkStatus()
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Approve the agent's current suggestion from a terminal, bypassing the overlay",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendUICommand(uiipc.CommandApprove)
	},
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss",
	Short: "Dismiss the agent's current suggestion from a terminal, bypassing the overlay",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendUICommand(uiipc.CommandDismiss)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is the platform config directory)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(dismissCmd)
}

// sendUICommand loads just enough config to find the UI pipe name and
// forwards a single command to a running agent.
func sendUICommand(command string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := uiipc.SendCommand(cfg.UIPipeName, command); err != nil {
		return fmt.Errorf("send %s: %w", command, err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initLogging sets up structured logging from config. Call after config.Load().
func initLogging(cfg *config.Config) {
	var output io.Writer = os.Stdout
	logFileFallback := false

	if cfg.LogFile != "" {
		rw, err := logging.NewRotatingWriter(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v (logging to stdout)\n", cfg.LogFile, err)
			logFileFallback = true
		} else {
			output = logging.TeeWriter(os.Stdout, rw)
		}
	}

	logging.Init(cfg.LogFormat, cfg.LogLevel, output)
	log = logging.L("main")

	if logFileFallback {
		log.Warn("log file fallback active, logging to stdout only", "requestedFile", cfg.LogFile)
	}
}

// agentComponents holds the running components created by runAgent so that
// service wrappers (Windows SCM, etc.) can shut them down gracefully.
type agentComponents struct {
	engine  *pulse.Engine
	machine *pulse.Machine
	ui      *uiipc.Server
	sugLog  *suggestionlog.Logger
	cancel  context.CancelFunc
}

// loggedEngine wraps the engine so every suggestion lifecycle transition
// gets exactly one suggestionlog entry, regardless of whether the
// approval came from the UI pipe or some other future caller. It also
// re-publishes engine events on its own channel, since pulse.Engine.Events
// has exactly one reader and both the UI pipe and the suggestion logger
// need every event.
type loggedEngine struct {
	*pulse.Engine
	machine *pulse.Machine
	sugLog  *suggestionlog.Logger
	out     chan pulse.Event
}

func newLoggedEngine(engine *pulse.Engine, machine *pulse.Machine, sugLog *suggestionlog.Logger) *loggedEngine {
	l := &loggedEngine{Engine: engine, machine: machine, sugLog: sugLog, out: make(chan pulse.Event, 16)}
	go l.forward()
	return l
}

func (l *loggedEngine) forward() {
	for ev := range l.Engine.Events() {
		if ev.Kind == pulse.SuggestionReady {
			l.sugLog.Log(ev.Suggestion)
		}
		l.out <- ev
	}
	close(l.out)
}

// Events shadows the embedded pulse.Engine.Events, handing subscribers the
// re-published channel instead of the engine's own.
func (l *loggedEngine) Events() <-chan pulse.Event {
	return l.out
}

func (l *loggedEngine) Approve(ctx context.Context) {
	before, had := l.machine.Suggestion()
	l.Engine.Approve(ctx)
	if s, ok := l.machine.Suggestion(); ok && had && before.State == pulse.Pending && s.State != pulse.Pending {
		l.sugLog.Log(s)
	}
}

func (l *loggedEngine) Dismiss() {
	s, ok := l.machine.Suggestion()
	l.Engine.Dismiss()
	_, still := l.machine.Suggestion()
	if ok && !still && s.State == pulse.Pending {
		s.State = pulse.Dismissed
		l.sugLog.Log(s)
	}
}

// shutdownAgent gracefully stops all agent components.
func shutdownAgent(comps *agentComponents) {
	if comps == nil {
		return
	}
	if comps.cancel != nil {
		comps.cancel()
	}
	comps.engine.Stop()
	comps.ui.Close()
	comps.sugLog.Close()
}

// startAgent wires up every component and starts the engine and the UI
// control-plane. It returns once both are running; the caller is
// responsible for waiting on a shutdown signal and calling shutdownAgent.
func startAgent() (*agentComponents, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	initLogging(cfg)
	log.Info("starting agent", "version", version)

	sensor := idlesensor.New()

	frames := capture.New(capture.Config{
		DisplayIndex: cfg.DisplayIndex,
		JPEGQuality:  cfg.JPEGQuality,
	}, sensor)

	ring := framering.New(cfg.FramesPerSecond * cfg.BufferSeconds)

	predClient := predictor.New(predictor.Config{
		Endpoint:  cfg.PredictionEndpoint,
		APIKey:    cfg.APIKey,
		TimeoutMs: cfg.PredictorTimeoutMs,
	})

	synth, err := inputsynth.New()
	if err != nil {
		return nil, fmt.Errorf("create input synthesizer: %w", err)
	}

	exec := executor.New(executor.Config{
		MinDelayMs: cfg.MinDelayMs,
		MaxDelayMs: cfg.MaxDelayMs,
	}, synth)

	sugLog, err := suggestionlog.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("open suggestion log: %w", err)
	}

	machine := pulse.NewMachine()
	engine := pulse.NewEngine(pulse.EngineConfig{
		FramesPerSecond:  cfg.FramesPerSecond,
		BufferSeconds:    cfg.BufferSeconds,
		PauseThresholdMs: cfg.PauseThresholdMs,
		MinConfidence:    cfg.MinConfidence,
		CoolingPeriodMs:  cfg.CoolingPeriodMs,
	}, machine, sensor, frames, ring, predClient, exec)

	logged := newLoggedEngine(engine, machine, sugLog)
	ui := uiipc.New(cfg.UIPipeName, logged)

	ctx, cancel := context.WithCancel(context.Background())

	if err := engine.Start(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("start engine: %w", err)
	}

	go func() {
		if err := ui.Serve(ctx); err != nil && err != uiipc.ErrNotSupported {
			log.Error("ui control-plane stopped", "error", err)
		}
	}()

	log.Info("agent is running")
	return &agentComponents{engine: engine, machine: machine, ui: ui, sugLog: sugLog, cancel: cancel}, nil
}

// runAgent starts the agent run loop and blocks until a shutdown signal.
func runAgent() {
	comps, err := startAgent()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down agent")
	shutdownAgent(comps)
	log.Info("agent stopped")
}

func checkStatus() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Println("Status: Not configured")
		return
	}

	fmt.Println("Status: Configured")
	fmt.Printf("Prediction endpoint: %s\n", cfg.PredictionEndpoint)
	fmt.Printf("UI pipe: %s\n", cfg.UIPipeName)
	fmt.Printf("Frames per second: %d\n", cfg.FramesPerSecond)
	fmt.Printf("Min confidence: %.2f\n", cfg.MinConfidence)
}
