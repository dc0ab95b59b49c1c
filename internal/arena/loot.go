package arena

import (
	"context"
	"fmt"
	"strings"

	"github.com/duskforge/arena/internal/game/combat"
	"github.com/duskforge/arena/internal/game/loot"
)

// RunLoot distributes XP and drops for the arena's dead monsters and
// announces the haul. The session stays open; EndEncounter closes it.
func (s *Service) RunLoot(ctx context.Context, arenaID string) (*loot.Report, error) {
	var report *loot.Report
	err := s.engine.With(arenaID, func(session *combat.Session) error {
		r, err := s.loot.Run(ctx, session, s.roller)
		if err != nil {
			return err
		}
		report = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.announce(ctx, arenaID, lootSummary(report))
	return report, nil
}

// lootSummary renders a report as one announcement.
func lootSummary(r *loot.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The dust settles: %d XP total, %d to each participant.", r.TotalXP, r.XPPerPlayer)
	for _, res := range r.Monsters {
		for _, sp := range res.Special {
			if sp.Won {
				fmt.Fprintf(&b, "\nRare find! %s rolled %d (needed %d) and yields %s.", res.MonsterName, sp.Roll, sp.Needed, sp.Item)
			}
		}
	}
	if len(r.DropOrder) == 0 {
		b.WriteString("\nNo items dropped.")
		return b.String()
	}
	b.WriteString("\nSpoils:")
	for _, key := range r.DropOrder {
		fmt.Fprintf(&b, " %s x%d", key, r.Drops[key])
	}
	return b.String()
}
