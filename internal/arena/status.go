package arena

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/duskforge/arena/internal/game/combat"
	"github.com/duskforge/arena/internal/notify"
	"github.com/duskforge/arena/internal/render"
)

const hpBarWidth = 10

// Status snapshots the arena's current session.
func (s *Service) Status(arenaID string) (notify.Status, error) {
	var status notify.Status
	err := s.engine.With(arenaID, func(session *combat.Session) error {
		status = s.buildStatus(session)
		return nil
	})
	return status, err
}

// buildStatus snapshots a session into a notify.Status: a text roster with
// HP bars plus a rendered card grid for the living monsters.
//
// Precondition: the caller holds the arena lock for session.
func (s *Service) buildStatus(session *combat.Session) notify.Status {
	status := notify.Status{
		ArenaID:      session.ArenaID,
		Round:        session.Round,
		CurrentActor: s.actorName(session),
	}

	ids := make([]string, 0, len(session.Players))
	for id := range session.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p := session.Players[id]
		line := fmt.Sprintf("%s  %s %d/%d", p.ID, hpBar(p.HP, p.HPMax), p.HP, p.HPMax)
		if !p.Alive() {
			line += "  (down)"
		}
		status.Lines = append(status.Lines, line)
	}
	for _, m := range session.LivingMonsters() {
		status.Lines = append(status.Lines, fmt.Sprintf("#%d %s  %s %d/%d", m.ID, m.Name, hpBar(m.HP, m.HPMax), m.HP, m.HPMax))
	}
	for _, m := range session.DeadMonsters() {
		status.Lines = append(status.Lines, fmt.Sprintf("#%d %s  defeated", m.ID, m.Name))
	}

	status.Card = s.renderCards(session)
	return status
}

// actorName formats the current actor for announcements.
func (s *Service) actorName(session *combat.Session) string {
	actor, ok := session.CurrentActor()
	if !ok {
		return ""
	}
	if actor.Kind == combat.ActorPlayer {
		return actor.PlayerID
	}
	if m, ok := session.Monster(actor.MonsterID); ok {
		return fmt.Sprintf("#%d %s", m.ID, m.Name)
	}
	return fmt.Sprintf("#%d", actor.MonsterID)
}

// renderCards draws the living monsters as a card grid and encodes it as
// PNG. Rendering failures degrade to a text-only status.
func (s *Service) renderCards(session *combat.Session) []byte {
	living := session.LivingMonsters()
	if len(living) == 0 {
		return nil
	}
	cards := make([]image.Image, 0, len(living))
	for _, m := range living {
		cards = append(cards, render.Card(render.CardView{
			ID:    m.ID,
			Name:  m.Name,
			Rank:  m.Rank,
			Level: m.Level,
			HP:    m.HP,
			HPMax: m.HPMax,
		}))
	}
	columns := len(cards)
	if columns > 3 {
		columns = 3
	}
	png, err := render.EncodePNG(render.Grid(cards, columns))
	if err != nil {
		s.logger.Warn("card render failed", zap.String("arena", session.ArenaID), zap.Error(err))
		return nil
	}
	return png
}

// hpBar draws a fixed-width bar of filled and empty cells.
func hpBar(hp, hpMax int) string {
	if hpMax <= 0 {
		return strings.Repeat("░", hpBarWidth)
	}
	if hp < 0 {
		hp = 0
	}
	filled := hp * hpBarWidth / hpMax
	if hp > 0 && filled == 0 {
		filled = 1
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", hpBarWidth-filled)
}
