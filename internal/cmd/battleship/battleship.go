// Package battleship parses battleship command flags and plays one game.
package battleship

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/broadside/internal/platform/cmd"
	"github.com/louisbranch/broadside/internal/platform/i18n/catalog"
	"github.com/louisbranch/broadside/internal/platform/id"
	"github.com/louisbranch/broadside/internal/random"
	server "github.com/louisbranch/broadside/internal/services/battleship/app"
	"github.com/louisbranch/broadside/internal/services/battleship/autopilot"
	"github.com/louisbranch/broadside/internal/services/battleship/console"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/board"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/fleet"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/turn"
	"github.com/louisbranch/broadside/internal/services/battleship/storage/sqlite"
	"github.com/louisbranch/broadside/internal/services/battleship/transport"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/message"
)

// Modes accepted by -mode. History prints the journal instead of playing.
const (
	ModeServer  = "server"
	ModeClient  = "client"
	ModeHistory = "history"
)

// Autopilot settings other than a script path.
const (
	AutopilotOff    = "off"
	AutopilotRandom = "random"
)

// Config holds battleship command configuration.
type Config struct {
	Mode        string        `env:"BROADSIDE_MODE"`
	Port        int           `env:"BROADSIDE_PORT"`
	Host        string        `env:"BROADSIDE_HOST"`
	Map         string        `env:"BROADSIDE_MAP"`
	Journal     string        `env:"BROADSIDE_JOURNAL"`
	Game        string        `env:"BROADSIDE_GAME"`
	Autopilot   string        `env:"BROADSIDE_AUTOPILOT" envDefault:"off"`
	Lang        string        `env:"BROADSIDE_LANG" envDefault:"pl"`
	ReadTimeout time.Duration `env:"BROADSIDE_READ_TIMEOUT" envDefault:"60s"`
	QuietPeriod time.Duration `env:"BROADSIDE_QUIET_PERIOD" envDefault:"30s"`
	DialTimeout time.Duration `env:"BROADSIDE_DIAL_TIMEOUT" envDefault:"10s"`
	// Seed fixes fleet placement and automatic shots; 0 draws one.
	Seed int64 `env:"BROADSIDE_SEED"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "Role in the game: server waits for a peer, client connects and fires first")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The game port")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "The peer host (client mode) or bind address (server mode)")
	fs.StringVar(&cfg.Map, "map", cfg.Map, "Layout file with 100 fleet symbols; a random fleet when empty")
	fs.StringVar(&cfg.Journal, "journal", cfg.Journal, "SQLite file recording every move")
	fs.StringVar(&cfg.Game, "game", cfg.Game, "Game id to print in history mode; all games when empty")
	fs.StringVar(&cfg.Autopilot, "autopilot", cfg.Autopilot, "Shot source: off, random or a Lua script path")
	fs.StringVar(&cfg.Lang, "lang", cfg.Lang, "Console language (pl or en)")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "How long one read waits for the peer")
	fs.DurationVar(&cfg.QuietPeriod, "quiet-period", cfg.QuietPeriod, "Silence tolerated before the watchdog retransmits")
	fs.DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "How long connecting to the peer may take")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed; 0 draws one")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeServer, ModeClient:
	case ModeHistory:
		if strings.TrimSpace(c.Journal) == "" {
			return errors.New("journal is required in history mode")
		}
		if !catalog.Default().HasLocale(c.Lang) {
			return fmt.Errorf("unsupported language %q", c.Lang)
		}
		return nil
	case "":
		return errors.New("mode is required (server, client or history)")
	default:
		return fmt.Errorf("unknown mode %q (want server, client or history)", c.Mode)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d outside 1..65535", c.Port)
	}
	if c.Mode == ModeClient && strings.TrimSpace(c.Host) == "" {
		return errors.New("host is required in client mode")
	}
	if strings.TrimSpace(c.Autopilot) == "" {
		return errors.New("autopilot must be off, random or a script path")
	}
	if !catalog.Default().HasLocale(c.Lang) {
		return fmt.Errorf("unsupported language %q (have %s)", c.Lang, strings.Join(catalog.Default().Locales(), ", "))
	}
	if c.ReadTimeout <= 0 || c.QuietPeriod <= 0 || c.DialTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	return nil
}

// Role maps the mode to the game role.
func (c Config) Role() turn.Role {
	if c.Mode == ModeClient {
		return turn.RoleConnector
	}
	return turn.RoleListener
}

// Addr is the address to listen on or dial.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Run plays one game on the terminal and returns its result. An aborted game
// returns ResultInProgress with the cause.
func Run(ctx context.Context, cfg Config) (turn.Result, error) {
	var result turn.Result
	err := entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceBattleship, entrypoint.RunOptions{
		Attributes: []attribute.KeyValue{attribute.String("broadside.mode", cfg.Mode)},
	}, func(ctx context.Context) error {
		if cfg.Mode == ModeHistory {
			return History(ctx, cfg, os.Stdout)
		}
		var err error
		result, err = Play(ctx, cfg, os.Stdin, os.Stdout)
		return err
	})
	return result, err
}

// Play runs one game reading moves from in and printing to out.
func Play(ctx context.Context, cfg Config, in io.Reader, out io.Writer) (turn.Result, error) {
	printer := catalog.Default().Printer(cfg.Lang)
	rng, err := random.NewRand(cfg.Seed)
	if err != nil {
		return turn.ResultInProgress, err
	}
	layout, err := LoadLayout(cfg.Map, rng)
	if err != nil {
		return turn.ResultInProgress, err
	}
	gameID, err := id.NewID()
	if err != nil {
		return turn.ResultInProgress, err
	}
	shots, err := ShotSource(cfg.Autopilot, rng, in, out, printer)
	if err != nil {
		return turn.ResultInProgress, err
	}

	opts := server.Options{
		GameID: gameID,
		Layout: layout,
		Shots:  shots,
		Link: transport.Config{
			ReadTimeout: cfg.ReadTimeout,
			QuietPeriod: cfg.QuietPeriod,
		},
		DialTimeout: cfg.DialTimeout,
		Logger:      log.Default(),
	}
	if cfg.Role() == turn.RoleConnector {
		opts.Opening = autopilot.NewRandom(rng)
	}
	if cfg.Journal != "" {
		store, err := sqlite.Open(ctx, cfg.Journal)
		if err != nil {
			return turn.ResultInProgress, err
		}
		defer store.Close()
		opts.Journal = store
	}
	display := console.NewDisplay(out, printer)
	opts.Observer = display

	log.Printf("game %s as %s", gameID, cfg.Mode)
	var report server.Report
	if cfg.Role() == turn.RoleConnector {
		report, err = server.Dial(ctx, cfg.Addr(), opts)
	} else {
		report, err = server.Listen(ctx, cfg.Addr(), opts)
	}
	display.Finish(console.Summary{
		GameID: report.GameID,
		Result: report.Result,
		Moves:  report.Moves,
		Own:    report.Own,
		View:   report.View,
	}, err)
	if err != nil {
		return turn.ResultInProgress, err
	}
	return report.Result, nil
}

// History prints the moves journalled in cfg.Journal: the game named by
// cfg.Game, or every game, most recent first.
func History(ctx context.Context, cfg Config, out io.Writer) error {
	if _, err := os.Stat(cfg.Journal); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	store, err := sqlite.Open(ctx, cfg.Journal)
	if err != nil {
		return err
	}
	defer store.Close()

	ids := []string{cfg.Game}
	if cfg.Game == "" {
		if ids, err = store.Games(ctx); err != nil {
			return err
		}
	}
	printer := catalog.Default().Printer(cfg.Lang)
	for _, gameID := range ids {
		moves, err := store.Moves(ctx, gameID)
		if err != nil {
			return err
		}
		console.WriteHistory(out, printer, gameID, moves)
	}
	return nil
}

// LoadLayout reads the layout file at path, or generates a fleet when path
// is empty.
func LoadLayout(path string, rng *rand.Rand) (string, error) {
	if path == "" {
		return fleet.NewGenerator(rng).Generate(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open map: %w", err)
	}
	defer f.Close()
	layout, err := board.ReadLayout(f)
	if err != nil {
		return "", fmt.Errorf("read map %s: %w", path, err)
	}
	if _, err := board.Load(layout); err != nil {
		return "", fmt.Errorf("map %s: %w", path, err)
	}
	return layout, nil
}

// ShotSource picks the local shot source for an autopilot setting: the
// terminal prompt, the random picker or a Lua script.
func ShotSource(setting string, rng *rand.Rand, in io.Reader, out io.Writer, printer *message.Printer) (server.ShotSource, error) {
	switch setting {
	case AutopilotOff:
		return console.NewPrompt(in, out, printer), nil
	case AutopilotRandom:
		return autopilot.NewRandom(rng), nil
	}
	script, err := autopilot.LoadScript(setting, autopilot.NewRandom(rng), log.Default())
	if err != nil {
		return nil, fmt.Errorf("autopilot: %w", err)
	}
	return script, nil
}
