package arena

import (
	"context"
	"errors"
	"fmt"

	"github.com/duskforge/arena/internal/game/combat"
	"github.com/duskforge/arena/internal/notify"
)

// AttackResult reports one adjudicated attack back to the dispatcher.
type AttackResult struct {
	AttackTotal int
	Hit         bool
	// Report is nil on a miss.
	Report *combat.HitReport
}

var hitMissChoices = []notify.Choice{
	{Key: "hit", Label: "Hit"},
	{Key: "miss", Label: "Miss"},
}

var reactionChoices = []notify.Choice{
	{Key: "reflex", Label: "Reflex save"},
	{Key: "defend", Label: "Defend"},
	{Key: "spell", Label: "Cast a spell"},
	{Key: "take", Label: "Take the damage"},
}

// MonsterAttack runs the monster attack pipeline: roll the attack against a
// random living player, ask the referee whether it hits, and on a hit ask
// the defender for a reaction. The arena lock is held across the prompts;
// each arena is a single cooperative thread and nothing else may mutate the
// session while a choice is pending.
//
// A prompt timeout aborts the pipeline with the attack unresolved and no
// state mutated.
func (s *Service) MonsterAttack(ctx context.Context, arenaID, refereeID string, monsterID int) (*AttackResult, error) {
	var result *AttackResult
	err := s.engine.With(arenaID, func(session *combat.Session) error {
		pa, err := session.BeginMonsterAttack(monsterID, s.roller)
		if err != nil {
			return err
		}
		m, ok := session.Monster(pa.MonsterID)
		if !ok {
			return fmt.Errorf("arena: monster %d vanished from the roster", pa.MonsterID)
		}
		s.announce(ctx, arenaID, fmt.Sprintf("#%d %s attacks %s: %s (total %d).",
			m.ID, m.Name, pa.PlayerID, pa.AttackRoll, pa.AttackTotal))

		hit, err := s.promptHitMiss(ctx, arenaID, refereeID, fmt.Sprintf("Does %d hit %s?", pa.AttackTotal, pa.PlayerID))
		if err != nil {
			return err
		}
		if !hit {
			if err := session.ResolveMiss(pa); err != nil {
				return err
			}
			s.announce(ctx, arenaID, fmt.Sprintf("#%d %s misses %s.", m.ID, m.Name, pa.PlayerID))
			result = &AttackResult{AttackTotal: pa.AttackTotal}
			return nil
		}

		reaction, err := s.promptReaction(ctx, arenaID, pa.PlayerID)
		if err != nil {
			return err
		}
		report, err := session.ResolveMonsterHit(pa, reaction, s.roller)
		if err != nil {
			return err
		}

		p, ok := session.Player(pa.PlayerID)
		if !ok {
			return fmt.Errorf("arena: player %s vanished from the roster", pa.PlayerID)
		}
		if err := s.persistPlayer(ctx, p); err != nil {
			return err
		}
		if err := session.RefreshPlayer(p); err != nil {
			return err
		}

		s.announce(ctx, arenaID, reactionSummary(pa.PlayerID, report))
		s.updateStatus(ctx, s.buildStatus(session))
		result = &AttackResult{AttackTotal: pa.AttackTotal, Hit: true, Report: report}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PlayerAttack runs the player attack pipeline against one monster. The
// referee adjudicates the hit; a hit applies weapon damage directly, with
// no reaction step.
func (s *Service) PlayerAttack(ctx context.Context, arenaID, refereeID, playerID string, monsterID int) (*AttackResult, error) {
	var result *AttackResult
	err := s.engine.With(arenaID, func(session *combat.Session) error {
		pa, err := session.BeginPlayerAttack(playerID, monsterID, s.roller, s.items)
		if err != nil {
			return err
		}
		m, ok := session.Monster(pa.MonsterID)
		if !ok {
			return fmt.Errorf("arena: monster %d vanished from the roster", pa.MonsterID)
		}
		s.announce(ctx, arenaID, fmt.Sprintf("%s attacks #%d %s: %s (total %d).",
			playerID, m.ID, m.Name, pa.AttackRoll, pa.AttackTotal))

		hit, err := s.promptHitMiss(ctx, arenaID, refereeID, fmt.Sprintf("Does %d hit #%d %s?", pa.AttackTotal, m.ID, m.Name))
		if err != nil {
			return err
		}
		if !hit {
			if err := session.ResolveMiss(pa); err != nil {
				return err
			}
			s.announce(ctx, arenaID, fmt.Sprintf("%s misses #%d %s.", playerID, m.ID, m.Name))
			result = &AttackResult{AttackTotal: pa.AttackTotal}
			return nil
		}

		report, err := session.ResolvePlayerHit(pa)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("%s hits #%d %s for %d (%d/%d HP left).",
			playerID, m.ID, m.Name, report.Damage, report.TargetHP, report.TargetHPMax)
		if report.Downed {
			line = fmt.Sprintf("%s hits #%d %s for %d and it goes down!", playerID, m.ID, m.Name, report.Damage)
		}
		s.announce(ctx, arenaID, line)
		s.updateStatus(ctx, s.buildStatus(session))
		result = &AttackResult{AttackTotal: pa.AttackTotal, Hit: true, Report: report}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// promptHitMiss asks the referee to adjudicate an attack total.
func (s *Service) promptHitMiss(ctx context.Context, arenaID, refereeID, prompt string) (bool, error) {
	key, err := s.prompt(ctx, arenaID, refereeID, prompt, hitMissChoices)
	if err != nil {
		return false, err
	}
	return key == "hit", nil
}

// promptReaction asks the defender how they meet an incoming hit. Choosing
// a spell is announced as unavailable and the defender is asked again with
// the spell option withdrawn.
func (s *Service) promptReaction(ctx context.Context, arenaID, playerID string) (combat.Reaction, error) {
	choices := reactionChoices
	for {
		key, err := s.prompt(ctx, arenaID, playerID, "You are hit! How do you react?", choices)
		if err != nil {
			return 0, err
		}
		switch key {
		case "reflex":
			return combat.ReactionReflex, nil
		case "defend":
			return combat.ReactionDefend, nil
		case "take":
			return combat.ReactionTakeDamage, nil
		case "spell":
			s.announce(ctx, arenaID, "Spell reactions are not available yet; choose again.")
			choices = withoutChoice(choices, "spell")
		default:
			return 0, fmt.Errorf("arena: unknown reaction choice %q", key)
		}
	}
}

// prompt issues one bounded prompt, mapping deadline expiry to
// notify.ErrPromptTimeout.
func (s *Service) prompt(ctx context.Context, arenaID, actorID, text string, choices []notify.Choice) (string, error) {
	promptCtx, cancel := context.WithTimeout(ctx, s.cfg.PromptTimeout)
	defer cancel()
	key, err := s.notifier.PromptChoice(promptCtx, arenaID, actorID, text, choices)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = notify.ErrPromptTimeout
		}
		return "", fmt.Errorf("arena: prompting %s: %w", actorID, err)
	}
	return key, nil
}

func withoutChoice(choices []notify.Choice, key string) []notify.Choice {
	out := make([]notify.Choice, 0, len(choices)-1)
	for _, c := range choices {
		if c.Key != key {
			out = append(out, c)
		}
	}
	return out
}

// reactionSummary formats the outcome of a resolved monster hit.
func reactionSummary(playerID string, r *combat.HitReport) string {
	switch r.Reaction {
	case combat.ReactionReflex:
		verdict := "fails"
		if r.ReflexSuccess {
			verdict = "passes"
		}
		return fmt.Sprintf("%s %s the reflex save (%d vs DC %d) and takes %d damage (%d/%d HP).",
			playerID, verdict, r.ReflexTotal, r.ReflexDC, r.Damage, r.TargetHP, r.TargetHPMax)
	case combat.ReactionDefend:
		return fmt.Sprintf("%s raises their guard and shrugs the blow off (%d/%d HP).",
			playerID, r.TargetHP, r.TargetHPMax)
	default:
		if r.Downed {
			return fmt.Sprintf("%s takes %d damage and goes down!", playerID, r.Damage)
		}
		return fmt.Sprintf("%s takes %d damage (%d/%d HP).", playerID, r.Damage, r.TargetHP, r.TargetHPMax)
	}
}
