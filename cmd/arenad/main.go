// Command arenad runs the combat manager as a referee console: it loads
// content from the database, wires the combat and loot engines, and reads
// command lines from stdin. Lines run as the referee; prefix a line with
// "as <player>" to run it as that player.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/duskforge/arena/internal/arena"
	"github.com/duskforge/arena/internal/command"
	"github.com/duskforge/arena/internal/config"
	"github.com/duskforge/arena/internal/game/combat"
	"github.com/duskforge/arena/internal/game/dice"
	"github.com/duskforge/arena/internal/game/loot"
	"github.com/duskforge/arena/internal/game/monster"
	"github.com/duskforge/arena/internal/importer"
	"github.com/duskforge/arena/internal/notify"
	"github.com/duskforge/arena/internal/observability"
	"github.com/duskforge/arena/internal/scripting"
	"github.com/duskforge/arena/internal/server"
	"github.com/duskforge/arena/internal/storage/postgres"
)

const defaultArenaID = "arena"

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	contentDir := flag.String("content", "", "optional content directory to import before starting")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, *contentDir, logger); err != nil {
		logger.Fatal("arenad failed", zap.Error(err))
	}
}

func run(cfg config.Config, contentDir string, logger *zap.Logger) error {
	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()
	if err := pool.Health(ctx, 5*time.Second); err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	store := postgres.NewRecordRepository(pool.DB())

	if contentDir != "" {
		if err := importer.New(store, logger).Run(ctx, contentDir); err != nil {
			return err
		}
	}

	table, items, err := arena.LoadContent(ctx, store, logger)
	if err != nil {
		return err
	}

	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger.Named("dice"))

	overrides := loot.DefaultOverrides()
	var scriptMgr *scripting.Manager
	if cfg.Scripting.Enabled {
		scriptMgr = scripting.NewManager(logger.Named("scripting"))
		scriptMgr.Roll = func(formula string) int {
			return roller.RollExprOrDefault(formula, "1d4").Total()
		}
		if err := scriptMgr.LoadDir(cfg.Scripting.ScriptDir, scripting.DefaultInstructionLimit); err != nil {
			return err
		}
		defer scriptMgr.Close()
		overrides.SetResolver(func(species, rankName string, level int) ([]monster.DropEntry, bool) {
			specs, ok := scriptMgr.DropsFor(species, rankName, level)
			if !ok {
				return nil, false
			}
			entries := make([]monster.DropEntry, len(specs))
			for i, spec := range specs {
				entries[i] = monster.DropEntry{Item: spec.Item, Quantity: spec.Quantity, Chance: spec.Chance}
			}
			return entries, true
		})
	}

	engine := combat.NewEngine(arena.RulesFromConfig(cfg.Arena))
	lootEngine := loot.NewEngine(store, table, overrides, logger.Named("loot"))
	notifier := &consoleNotifier{out: os.Stdout}
	svc := arena.New(engine, lootEngine, store, notifier, roller, table, items, cfg.Arena, logger.Named("arena"))
	dispatcher := command.NewDispatcher(svc, logger.Named("command"))

	console := newConsole(dispatcher, os.Stdin, os.Stdout)
	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("console", console)
	return lifecycle.Run(ctx)
}

// console reads command lines from the input stream until it is stopped or
// the stream ends.
type console struct {
	dispatcher *command.Dispatcher
	in         *bufio.Scanner
	out        *os.File
	done       chan struct{}
}

func newConsole(dispatcher *command.Dispatcher, in, out *os.File) *console {
	return &console{
		dispatcher: dispatcher,
		in:         bufio.NewScanner(in),
		out:        out,
		done:       make(chan struct{}),
	}
}

// Start implements server.Service.
func (c *console) Start() error {
	for c.in.Scan() {
		select {
		case <-c.done:
			return nil
		default:
		}
		line := strings.TrimSpace(c.in.Text())
		if line == "" {
			continue
		}
		req := command.Request{ArenaID: defaultArenaID, ActorID: "mestre", Referee: true, Line: line}
		if rest, ok := strings.CutPrefix(line, "as "); ok {
			fields := strings.Fields(rest)
			if len(fields) < 2 {
				fmt.Fprintln(c.out, "usage: as <player> <command...>")
				continue
			}
			req.ActorID = fields[0]
			req.Referee = false
			req.Line = strings.Join(fields[1:], " ")
		}
		reply, err := c.dispatcher.Execute(context.Background(), req)
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(c.out, reply)
	}
	return c.in.Err()
}

// Stop implements server.Service.
func (c *console) Stop() {
	close(c.done)
}

// consoleNotifier prints announcements and prompts to the terminal. Prompts
// answer with the first choice so unattended runs never block; an
// interactive adjudication front end would replace this.
type consoleNotifier struct {
	out *os.File
}

func (n *consoleNotifier) Announce(_ context.Context, arenaID, message string) error {
	_, err := fmt.Fprintf(n.out, "[%s] %s\n", arenaID, message)
	return err
}

func (n *consoleNotifier) UpdateStatus(_ context.Context, status notify.Status) error {
	fmt.Fprintf(n.out, "[%s] round %d, %s to act\n", status.ArenaID, status.Round, status.CurrentActor)
	for _, line := range status.Lines {
		fmt.Fprintf(n.out, "  %s\n", line)
	}
	return nil
}

func (n *consoleNotifier) PromptChoice(_ context.Context, arenaID, actorID, prompt string, choices []notify.Choice) (string, error) {
	if len(choices) == 0 {
		return "", notify.ErrPromptTimeout
	}
	fmt.Fprintf(n.out, "[%s] %s: %s -> %s\n", arenaID, actorID, prompt, choices[0].Label)
	return choices[0].Key, nil
}
