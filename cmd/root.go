package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-pianoroll/config"
	"go-pianoroll/debug"
	"go-pianoroll/playback"
	"go-pianoroll/roll"
	"go-pianoroll/synth"
	"go-pianoroll/theme"
	"go-pianoroll/tui"
)

const saveDelay = 500 * time.Millisecond

var (
	configPath  string
	debugLog    bool
	portName    string
	silent      bool
	palettePath string
	seed        uint64
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/go-pianoroll/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "write a debug log to ~/.config/go-pianoroll/debug.log")

	rootCmd.Flags().StringVar(&portName, "port", "", "MIDI output port (overrides config)")
	rootCmd.Flags().BoolVar(&silent, "silent", false, "edit without a synth")
	rootCmd.Flags().StringVar(&palettePath, "palette", "", "GIMP .gpl palette to draw with")
	rootCmd.Flags().Uint64Var(&seed, "seed", 0, "note color seed (0 picks one from the clock)")
}

var rootCmd = &cobra.Command{
	Use:   "pianoroll",
	Short: "Piano roll editor",
	Long: `A terminal piano roll. Click to place notes on the grid, drag to
lengthen them, click a note to delete it and press space to hear it all
through a MIDI synth.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEditor(cmd.Context())
	},
}

func Execute() {
	cobra.CheckErr(rootCmd.ExecuteContext(context.Background()))
}

// resolveConfigPath picks --config or the default location
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.ConfigPath()
}

func loadConfig() (*config.Config, string, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// startLogging enables the debug log when asked for on the command line or
// in the config. The returned func stops it.
func startLogging(cfg *config.Config) (func(), error) {
	if !debugLog && !cfg.Logging.Debug {
		return func() {}, nil
	}
	level := cfg.Logging.Level
	if debugLog {
		level = "debug"
	}
	if err := debug.Enable(level); err != nil {
		return nil, err
	}
	return debug.Disable, nil
}

func runEditor(ctx context.Context) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	if portName != "" {
		cfg.Synth.Port = portName
	}

	stop, err := startLogging(cfg)
	if err != nil {
		return err
	}
	defer stop()
	log := debug.Logger()

	th := theme.Default()
	if palettePath != "" {
		p, err := theme.LoadGPL(palettePath)
		if err != nil {
			return err
		}
		th = theme.New(p)
	}

	colorSeed := seed
	if colorSeed == 0 {
		colorSeed = uint64(time.Now().UnixNano())
	}

	layout := cfg.Layout()
	ctrl := roll.NewController(layout, roll.NewStore(), roll.NewColorSource(colorSeed), cfg.Subdivision(),
		roll.WithLogger(log.Named("roll")))

	var player *playback.Scheduler
	if !silent {
		out := synth.New(cfg.Synth.Port, uint8(cfg.Synth.Channel), uint8(cfg.Synth.Velocity),
			synth.WithLogger(log.Named("synth")))
		player = playback.New(layout, cfg.PlaybackTempo(), out,
			playback.WithLogger(log.Named("playback")),
			playback.WithActivateTimeout(time.Duration(cfg.Synth.ActivateTimeout)))
		defer player.Close()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// saver works on its own copy of the config
	saved := *cfg
	save := func(s roll.Subdivision) {
		saved.Grid.Subdivisions = int(s)
		if err := saved.SaveTo(path); err != nil {
			log.Warn("save grid choice", zap.Error(err))
			return
		}
		debug.Log("config", "grid %s saved to %s", s.Label(), path)
	}

	log.Info("editor starting",
		zap.String("config", path),
		zap.Int("keys", layout.TotalKeys()),
		zap.Bool("silent", silent))

	m := tui.NewModel(ctx, ctrl, player, th,
		tui.WithLogger(log.Named("tui")),
		tui.WithSubdivisionSaver(saveDelay, save))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	return nil
}
