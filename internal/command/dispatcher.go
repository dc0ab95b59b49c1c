package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/duskforge/arena/internal/arena"
	"github.com/duskforge/arena/internal/game/combat"
)

// Sentinel errors for dispatch failures the transport may want to
// distinguish from engine errors.
var (
	ErrUnknownCommand = errors.New("command: unknown command")
	ErrRefereeOnly    = errors.New("command: referee only")
)

// Request is one command line in its arena context.
type Request struct {
	ArenaID string
	ActorID string
	// Referee marks the actor as the arena referee; it gates the
	// adjudication and administrative commands.
	Referee bool
	Line    string
}

// Dispatcher executes parsed command lines against the arena service.
type Dispatcher struct {
	registry *Registry
	svc      *arena.Service
	logger   *zap.Logger
}

// NewDispatcher creates a Dispatcher over the builtin command set.
//
// Precondition: svc and logger must be non-nil.
func NewDispatcher(svc *arena.Service, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		registry: DefaultRegistry(),
		svc:      svc,
		logger:   logger,
	}
}

// Execute parses and runs one command line, returning the reply text.
// Engine errors pass through unwrapped so the transport can present them.
func (d *Dispatcher) Execute(ctx context.Context, req Request) (string, error) {
	parsed := Parse(req.Line)
	if parsed.Command == "" {
		return "", fmt.Errorf("%w: empty line", ErrUnknownCommand)
	}
	cmd, ok := d.registry.Resolve(parsed.Command)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, parsed.Command)
	}
	if cmd.Referee && !req.Referee {
		return "", fmt.Errorf("%w: %q", ErrRefereeOnly, cmd.Name)
	}

	reply, err := d.run(ctx, cmd, parsed.Args, req)
	if err != nil {
		d.logger.Debug("command failed",
			zap.String("arena", req.ArenaID),
			zap.String("actor", req.ActorID),
			zap.String("command", cmd.Name),
			zap.Error(err),
		)
		return "", err
	}
	return reply, nil
}

func (d *Dispatcher) run(ctx context.Context, cmd *Command, args []string, req Request) (string, error) {
	switch cmd.Name {
	case "entrar":
		if err := d.svc.Join(ctx, req.ArenaID, req.ActorID); err != nil {
			return "", err
		}
		return "You are in.", nil

	case "atacar":
		monsterID, err := argInt(cmd, args, 0)
		if err != nil {
			return "", err
		}
		result, err := d.svc.PlayerAttack(ctx, req.ArenaID, req.ActorID, req.ActorID, monsterID)
		if err != nil {
			return "", err
		}
		if !result.Hit {
			return fmt.Sprintf("Attack total %d: miss.", result.AttackTotal), nil
		}
		return fmt.Sprintf("Attack total %d: hit for %d.", result.AttackTotal, result.Report.Damage), nil

	case "turno":
		if err := d.svc.NextTurn(ctx, req.ArenaID); err != nil {
			return "", err
		}
		return "Turn advanced.", nil

	case "status":
		status, err := d.svc.Status(req.ArenaID)
		if err != nil {
			return "", err
		}
		header := fmt.Sprintf("Round %d. %s to act.", status.Round, status.CurrentActor)
		return header + "\n" + strings.Join(status.Lines, "\n"), nil

	case "loja":
		listings := d.svc.ShopListings()
		if len(listings) == 0 {
			return "The shop is empty.", nil
		}
		var b strings.Builder
		for _, l := range listings {
			fmt.Fprintf(&b, "%-16s buy %d, sell %d\n", l.Key, l.Buy, l.Sell)
		}
		return strings.TrimRight(b.String(), "\n"), nil

	case "comprar":
		itemKey, qty, err := argItemQty(cmd, args)
		if err != nil {
			return "", err
		}
		balance, err := d.svc.Buy(ctx, req.ActorID, itemKey, qty)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Bought %d %s. %d coins left.", qty, itemKey, balance), nil

	case "vender":
		itemKey, qty, err := argItemQty(cmd, args)
		if err != nil {
			return "", err
		}
		balance, err := d.svc.Sell(ctx, req.ActorID, itemKey, qty)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Sold %d %s. %d coins now.", qty, itemKey, balance), nil

	case "equipar":
		if len(args) < 1 {
			return "", usageError(cmd)
		}
		if err := d.svc.Equip(ctx, req.ActorID, args[0]); err != nil {
			return "", err
		}
		return fmt.Sprintf("Equipped %s.", args[0]), nil

	case "desequipar":
		if len(args) < 1 {
			return "", usageError(cmd)
		}
		if err := d.svc.Unequip(ctx, req.ActorID, args[0]); err != nil {
			return "", err
		}
		return fmt.Sprintf("Cleared slot %s.", args[0]), nil

	case "iniciar":
		if len(args) < 3 {
			return "", usageError(cmd)
		}
		level, err := argInt(cmd, args, 2)
		if err != nil {
			return "", err
		}
		qty := 1
		if len(args) > 3 {
			if qty, err = argInt(cmd, args, 3); err != nil {
				return "", err
			}
		}
		spec := arena.MonsterSpec{Species: args[0], Rank: args[1], Level: level, Quantity: qty}
		if _, err := d.svc.CreateEncounter(ctx, req.ArenaID, combat.EnrollmentButtonGated, []arena.MonsterSpec{spec}); err != nil {
			return "", err
		}
		return "Encounter opened.", nil

	case "comecar":
		if err := d.svc.Begin(ctx, req.ArenaID); err != nil {
			return "", err
		}
		return "Combat started.", nil

	case "investida":
		monsterID, err := argInt(cmd, args, 0)
		if err != nil {
			return "", err
		}
		result, err := d.svc.MonsterAttack(ctx, req.ArenaID, req.ActorID, monsterID)
		if err != nil {
			return "", err
		}
		if !result.Hit {
			return fmt.Sprintf("Attack total %d: miss.", result.AttackTotal), nil
		}
		return fmt.Sprintf("Attack total %d: resolved.", result.AttackTotal), nil

	case "pausar":
		return "Paused.", d.svc.Pause(ctx, req.ArenaID)

	case "retomar":
		return "Resumed.", d.svc.Resume(ctx, req.ArenaID)

	case "espolios":
		report, err := d.svc.RunLoot(ctx, req.ArenaID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Loot distributed: %d XP each.", report.XPPerPlayer), nil

	case "encerrar":
		if err := d.svc.EndEncounter(ctx, req.ArenaID); err != nil {
			return "", err
		}
		return "Encounter closed.", nil

	case "criar":
		if len(args) < 3 {
			return "", usageError(cmd)
		}
		level, err := argInt(cmd, args, 2)
		if err != nil {
			return "", err
		}
		p, err := d.svc.CreatePlayer(ctx, args[0], args[1], level)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Created %s at %s %d with %d HP.", p.ID, p.Rank, p.Level, p.HPMax), nil

	case "dar":
		if len(args) < 2 {
			return "", usageError(cmd)
		}
		qty := 1
		if len(args) > 2 {
			var err error
			if qty, err = argInt(cmd, args, 2); err != nil {
				return "", err
			}
		}
		total, err := d.svc.GiveItem(ctx, args[0], args[1], qty)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s now holds %d %s.", args[0], total, args[1]), nil

	case "xp":
		amount, err := argPlayerAmount(cmd, args)
		if err != nil {
			return "", err
		}
		if err := d.svc.GrantXP(ctx, args[0], amount); err != nil {
			return "", err
		}
		return fmt.Sprintf("Granted %d XP to %s.", amount, args[0]), nil

	case "dano":
		amount, err := argPlayerAmount(cmd, args)
		if err != nil {
			return "", err
		}
		hp, err := d.svc.Damage(ctx, req.ArenaID, args[0], amount)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s is at %d HP.", args[0], hp), nil

	case "curar":
		amount, err := argPlayerAmount(cmd, args)
		if err != nil {
			return "", err
		}
		hp, err := d.svc.Heal(ctx, req.ArenaID, args[0], amount)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s is at %d HP.", args[0], hp), nil

	case "ajuda":
		return d.registry.Help(req.Referee), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
}

func usageError(cmd *Command) error {
	return fmt.Errorf("command: usage: %s", cmd.Usage)
}

func argInt(cmd *Command, args []string, idx int) (int, error) {
	if idx >= len(args) {
		return 0, usageError(cmd)
	}
	n, err := strconv.Atoi(args[idx])
	if err != nil {
		return 0, fmt.Errorf("command: %q is not a number (usage: %s)", args[idx], cmd.Usage)
	}
	return n, nil
}

// argItemQty parses "<item> [qtd]" with a default quantity of 1.
func argItemQty(cmd *Command, args []string) (string, int, error) {
	if len(args) < 1 {
		return "", 0, usageError(cmd)
	}
	qty := 1
	if len(args) > 1 {
		var err error
		if qty, err = argInt(cmd, args, 1); err != nil {
			return "", 0, err
		}
	}
	return args[0], qty, nil
}

// argPlayerAmount parses "<jogador> <qtd>".
func argPlayerAmount(cmd *Command, args []string) (int, error) {
	if len(args) < 2 {
		return 0, usageError(cmd)
	}
	return argInt(cmd, args, 1)
}
