// meshline - a terminal client for mesh chat.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jeranaias/meshline-tui/internal/channels"
	"github.com/jeranaias/meshline-tui/internal/cli"
	"github.com/jeranaias/meshline-tui/internal/client"
	"github.com/jeranaias/meshline-tui/internal/commands"
	"github.com/jeranaias/meshline-tui/internal/config"
	"github.com/jeranaias/meshline-tui/internal/host"
	"github.com/jeranaias/meshline-tui/internal/logging"
	"github.com/jeranaias/meshline-tui/internal/mesh"
	"github.com/jeranaias/meshline-tui/internal/privatechat"
	"github.com/jeranaias/meshline-tui/internal/server"
	"github.com/jeranaias/meshline-tui/internal/session"
	"github.com/jeranaias/meshline-tui/internal/storage"
	"github.com/jeranaias/meshline-tui/internal/ui/chat"
	"github.com/jeranaias/meshline-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// flags holds command line overrides. Empty values leave the config alone.
type flags struct {
	configPath string
	nickname   string
	relayURL   string
	plain      bool
	logLevel   string

	// relay subcommand
	listen       string
	connectLimit int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:           "meshline",
		Short:         "Terminal client for mesh chat",
		Long:          "meshline joins a mesh chat through a websocket relay (or offline, loopback only)\nand interprets IRC-style slash commands such as /join, /msg, /w and /sos.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := run(ctx, f); err != nil {
				fmt.Fprintln(os.Stderr, "meshline:", err)
				return err
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&f.configPath, "config", "", "config file (default ~/.meshline/config.toml)")
	root.Flags().StringVar(&f.nickname, "nick", "", "nickname on the mesh")
	root.Flags().StringVar(&f.relayURL, "relay", "", "websocket relay URL (ws:// or wss://)")
	root.Flags().BoolVar(&f.plain, "plain", false, "use the line-mode interface instead of the TUI")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "meshline %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		},
	})

	relayCmd := &cobra.Command{
		Use:   "relay",
		Short: "Run a websocket relay that meshline clients can join",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := runRelay(ctx, f); err != nil {
				fmt.Fprintln(os.Stderr, "meshline relay:", err)
				return err
			}
			return nil
		},
	}
	relayCmd.Flags().StringVar(&f.listen, "listen", "", "listen address (default "+config.DefaultRelayListen+")")
	relayCmd.Flags().IntVar(&f.connectLimit, "connect-limit", 0, "websocket connections per IP per minute")
	root.AddCommand(relayCmd)

	return root
}

// loadConfig applies config file, environment and flags, in that order.
func loadConfig(f flags) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path = f.configPath
		err  error
	)
	if path != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		cfg, err = config.Load()
		if p, pathErr := config.ConfigPathTOML(); pathErr == nil {
			path = p
		}
	}
	if err != nil {
		return nil, "", err
	}

	if f.nickname != "" {
		cfg.Identity.Nickname = f.nickname
	}
	if f.relayURL != "" {
		cfg.Relay.URL = f.relayURL
	}
	if f.plain {
		cfg.UI.Mode = "plain"
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.listen != "" {
		cfg.Relay.Listen = f.listen
	}
	if f.connectLimit > 0 {
		cfg.Relay.ConnectLimit = f.connectLimit
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// newPeerID returns a random 16 hex digit peer identifier.
func newPeerID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func run(ctx context.Context, f flags) error {
	cfg, cfgPath, err := loadConfig(f)
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.New(logging.Options{Level: cfg.Log.Level, Path: cfg.LogPath()})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	// Local state
	if err := os.MkdirAll(cfg.Storage.DataDir, 0700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := storage.OpenDB(filepath.Join(cfg.Storage.DataDir, storage.DatabaseFile))
	if err != nil {
		return err
	}
	defer db.Close()

	// Channel creator checks compare against this id, so it is kept across launches
	peerID, err := db.LocalPeerID(newPeerID)
	if err != nil {
		return err
	}
	nickname := cfg.Identity.Nickname
	if nickname == "" {
		nickname = "anon" + peerID[:4]
	}
	logger.Info("starting", "version", Version, "peer", peerID, "nickname", nickname, "ui", cfg.UI.Mode)

	store, err := storage.NewMessageStore(storage.StoreConfig{
		MaxMessagesPerScope: cfg.Storage.MaxMessagesPerScope,
		MaxPrivateScopes:    cfg.Storage.MaxPrivateScopes,
	})
	if err != nil {
		return fmt.Errorf("create message store: %w", err)
	}

	state := session.NewState(nickname, peerID)
	directory := mesh.NewDirectory()

	chans, err := channels.NewManager(channels.Config{Timeline: store, State: state, Persister: db, Logger: logger})
	if err != nil {
		return err
	}
	private, err := privatechat.NewManager(privatechat.Config{
		Directory: directory,
		Timeline:  store,
		State:     state,
		BlockList: db,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	// The client is created after the transport; frames that arrive
	// earlier only update the directory.
	var current atomic.Pointer[client.Client]
	onFrame := func(frame mesh.Frame) {
		if c := current.Load(); c != nil {
			c.HandleFrame(frame)
		}
	}

	transport, err := dialTransport(ctx, cfg, state, directory, onFrame, logger)
	if err != nil {
		return err
	}
	defer transport.Close()

	// Termination after /wipe unwinds through the host so the terminal is restored
	ctx, terminate := context.WithCancel(ctx)
	defer terminate()
	lifecycle := &host.Lifecycle{
		DataDir:    cfg.Storage.DataDir,
		ExtraPaths: wipeExtraPaths(cfg),
		Store:      store,
		DB:         db,
		Logger:     logger,
		Exit: func(code int) {
			logger.Warn("terminating", "code", code)
			terminate()
		},
	}

	processor := commands.NewProcessor(commands.Config{
		State:             state,
		Store:             store,
		Channels:          chans,
		PrivateChat:       private,
		Directory:         directory,
		Transport:         transport,
		Lifecycle:         lifecycle,
		EmergencyLocation: cfg.Emergency.Location,
		Logger:            logger,
	})

	c := client.New(client.Config{
		State:       state,
		Store:       store,
		Directory:   directory,
		Transport:   transport,
		Channels:    chans,
		PrivateChat: private,
		Processor:   processor,
		Suggester:   commands.NewSuggester(processor.Vocabulary(), directory),
		Logger:      logger,
	})
	current.Store(c)

	// Only the nickname is applied live
	go func() {
		err := config.Watch(ctx, cfgPath, logger, func(updated *config.Config) {
			if nick := updated.Identity.Nickname; nick != "" && nick != state.Nickname() {
				logger.Info("nickname changed", "nickname", nick)
				state.SetNickname(nick)
				transport.Announce("")
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Debug("config watch stopped", "error", err)
		}
	}()

	if cli.UsePlain(cfg.UI.Mode == "plain") {
		return runPlain(ctx, c, cfg.Storage.DataDir, lifecycle, logger)
	}
	return runTUI(ctx, c, logger)
}

// runRelay serves the websocket relay until ctx is cancelled. It logs to
// stderr unless log.file names a file.
func runRelay(ctx context.Context, f flags) error {
	cfg, _, err := loadConfig(f)
	if err != nil {
		return err
	}

	logPath := cfg.Log.File
	if logPath == "-" {
		logPath = ""
	}
	logger, logCloser, err := logging.New(logging.Options{Level: cfg.Log.Level, Path: logPath})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	srv := server.New(server.Config{
		Addr:         cfg.Relay.Listen,
		ConnectLimit: cfg.Relay.ConnectLimit,
		Version:      Version,
	}, logger)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}

// dialTransport connects to the relay, or stays offline on a loopback transport.
func dialTransport(ctx context.Context, cfg *config.Config, state *session.State, directory *mesh.Directory,
	onFrame func(mesh.Frame), logger *slog.Logger) (mesh.Transport, error) {
	self := mesh.Identity{PeerID: state.MyPeerID(), Nickname: state.Nickname}

	if cfg.Relay.URL == "" {
		logger.Info("no relay configured, running offline")
		return mesh.NewLoopbackTransport(self, logger), nil
	}

	relay, err := mesh.DialRelay(ctx, mesh.RelayConfig{
		URL:       cfg.Relay.URL,
		Self:      self,
		SendRate:  cfg.Relay.SendRate,
		SendBurst: cfg.Relay.SendBurst,
		Logger:    logger,
	}, directory, onFrame)
	if err != nil {
		return nil, err
	}
	return relay, nil
}

func runTUI(ctx context.Context, c *client.Client, logger *slog.Logger) error {
	m := chat.New(c, styles.NewTheme(), logger)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// runPlain keeps the input history in the data dir so /wipe removes it.
func runPlain(ctx context.Context, c *client.Client, dataDir string, lifecycle *host.Lifecycle, logger *slog.Logger) error {
	var input cli.LineReader
	var editor *cli.LineEditor
	if cli.IsTTY() {
		editor = cli.NewLineEditor(dataDir, c.Suggester().Candidates)
		defer editor.Close()
		input = editor
	} else {
		input = newPipeReader(os.Stdin)
	}

	width := 0
	if cli.IsStdoutTTY() {
		width = cli.GetTerminalWidth()
	}
	printer := cli.NewPrinter(os.Stdout, cli.GetColorProfile(), width)
	err := cli.NewREPL(c, input, printer, logger).Run(ctx, os.Stdout)
	if editor != nil && lifecycle.Erased() {
		editor.Discard()
	}
	return err
}

// wipeExtraPaths lists files /wipe removes besides the data dir.
func wipeExtraPaths(cfg *config.Config) []string {
	logPath := cfg.LogPath()
	if logPath == "" {
		return nil
	}
	rel, err := filepath.Rel(cfg.Storage.DataDir, logPath)
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	return []string{logPath}
}
