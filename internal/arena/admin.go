package arena

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/duskforge/arena/internal/game/combat"
	"github.com/duskforge/arena/internal/game/player"
	"github.com/duskforge/arena/internal/storage"
)

// Sentinel errors for shop and administrative operations.
var (
	ErrNotForSale        = errors.New("arena: item is not for sale")
	ErrNotSellable       = errors.New("arena: item cannot be sold back")
	ErrInsufficientCoins = errors.New("arena: not enough coins")
)

// CreatePlayer registers a fresh sheet for playerID at the given progression
// cell, overwriting any existing record.
func (s *Service) CreatePlayer(ctx context.Context, playerID, rankName string, level int) (*player.Player, error) {
	p, err := player.New(playerID, rankName, level, s.table)
	if err != nil {
		return nil, err
	}
	if err := s.persistPlayer(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GiveItem adds qty of itemKey to a player's inventory and reports the new
// quantity. The item must exist in the registry.
func (s *Service) GiveItem(ctx context.Context, playerID, itemKey string, qty int) (int, error) {
	if qty < 1 {
		return 0, fmt.Errorf("arena: quantity must be >= 1, got %d", qty)
	}
	if !s.knownItem(itemKey) {
		return 0, fmt.Errorf("arena: unknown item %q", itemKey)
	}
	var total int
	err := s.mutatePlayer(ctx, playerID, func(p *player.Player) error {
		p.AddItem(itemKey, qty)
		total = p.Inventory[itemKey]
		return nil
	})
	return total, err
}

// SetCoins overwrites a player's coin balance.
func (s *Service) SetCoins(ctx context.Context, playerID string, coins int) error {
	if coins < 0 {
		return fmt.Errorf("arena: coins must be >= 0, got %d", coins)
	}
	return s.mutatePlayer(ctx, playerID, func(p *player.Player) error {
		p.Coins = coins
		return nil
	})
}

// GrantXP awards experience directly, recalculating rank placement.
func (s *Service) GrantXP(ctx context.Context, playerID string, amount int) error {
	if amount < 1 {
		return fmt.Errorf("arena: xp amount must be >= 1, got %d", amount)
	}
	return s.mutatePlayer(ctx, playerID, func(p *player.Player) error {
		p.AddXP(amount, s.table)
		return nil
	})
}

// Equip moves an owned piece of equipment into its wear slot and reapplies
// equipment bonuses.
func (s *Service) Equip(ctx context.Context, playerID, itemKey string) error {
	return s.mutatePlayer(ctx, playerID, func(p *player.Player) error {
		if err := p.Equip(itemKey, s.items); err != nil {
			return err
		}
		p.RefreshEquipment(s.table, s.items)
		return nil
	})
}

// Unequip clears a wear slot, returning the piece to the inventory.
func (s *Service) Unequip(ctx context.Context, playerID, slot string) error {
	return s.mutatePlayer(ctx, playerID, func(p *player.Player) error {
		if err := p.Unequip(slot); err != nil {
			return err
		}
		p.RefreshEquipment(s.table, s.items)
		return nil
	})
}

// Damage applies direct damage to a player inside a session, bypassing the
// attack pipeline. Valid while the session is running or paused.
func (s *Service) Damage(ctx context.Context, arenaID, playerID string, amount int) (int, error) {
	return s.adjustHP(ctx, arenaID, playerID, amount, func(p *player.Player, n int) int {
		return p.ApplyDamage(n)
	})
}

// Heal restores a player's hit points inside a session. Valid while the
// session is running or paused.
func (s *Service) Heal(ctx context.Context, arenaID, playerID string, amount int) (int, error) {
	return s.adjustHP(ctx, arenaID, playerID, amount, func(p *player.Player, n int) int {
		return p.Heal(n)
	})
}

func (s *Service) adjustHP(ctx context.Context, arenaID, playerID string, amount int, apply func(*player.Player, int) int) (int, error) {
	if amount < 1 {
		return 0, fmt.Errorf("arena: amount must be >= 1, got %d", amount)
	}
	var hp int
	err := s.engine.With(arenaID, func(session *combat.Session) error {
		if session.Status != combat.StatusRunning && session.Status != combat.StatusPaused {
			return fmt.Errorf("arena: %q is %s; direct adjustment needs a running or paused session", arenaID, session.Status)
		}
		p, ok := session.Player(playerID)
		if !ok {
			return fmt.Errorf("arena: %q is not enrolled in %q", playerID, arenaID)
		}
		apply(p, amount)
		hp = p.HP
		if err := s.persistPlayer(ctx, p); err != nil {
			return err
		}
		return session.RefreshPlayer(p)
	})
	if err != nil {
		return 0, err
	}
	return hp, nil
}

// ShopListing is one purchasable line in the shop.
type ShopListing struct {
	Key  string
	Name string
	Buy  int
	Sell int
}

// ShopListings returns every item with a buy price, sorted by key.
func (s *Service) ShopListings() []ShopListing {
	var out []ShopListing
	for _, d := range s.items.AllItems() {
		if d.Buy <= 0 {
			continue
		}
		out = append(out, ShopListing{Key: d.Key, Name: d.Name, Buy: d.Buy, Sell: d.Sell})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Buy purchases qty of itemKey, deducting coins and crediting the
// inventory. Returns the remaining coin balance.
func (s *Service) Buy(ctx context.Context, playerID, itemKey string, qty int) (int, error) {
	if qty < 1 {
		return 0, fmt.Errorf("arena: quantity must be >= 1, got %d", qty)
	}
	def, ok := s.items.Item(itemKey)
	if !ok || def.Buy <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrNotForSale, itemKey)
	}
	cost := def.Buy * qty
	var balance int
	err := s.mutatePlayer(ctx, playerID, func(p *player.Player) error {
		if p.Coins < cost {
			return fmt.Errorf("%w: need %d, have %d", ErrInsufficientCoins, cost, p.Coins)
		}
		p.Coins -= cost
		p.AddItem(itemKey, qty)
		balance = p.Coins
		return nil
	})
	return balance, err
}

// Sell trades qty of an owned item back for its sell price. Returns the new
// coin balance.
func (s *Service) Sell(ctx context.Context, playerID, itemKey string, qty int) (int, error) {
	if qty < 1 {
		return 0, fmt.Errorf("arena: quantity must be >= 1, got %d", qty)
	}
	def, ok := s.items.Item(itemKey)
	if !ok || def.Sell <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrNotSellable, itemKey)
	}
	var balance int
	err := s.mutatePlayer(ctx, playerID, func(p *player.Player) error {
		if !p.RemoveItem(itemKey, qty) {
			return fmt.Errorf("arena: %s holds fewer than %d of %q", playerID, qty, itemKey)
		}
		p.Coins += def.Sell * qty
		balance = p.Coins
		return nil
	})
	return balance, err
}

// mutatePlayer loads a stored player, applies fn, and persists the result.
// fn returning an error abandons the mutation.
func (s *Service) mutatePlayer(ctx context.Context, playerID string, fn func(*player.Player) error) error {
	data, err := s.store.Get(ctx, storage.KindPlayer, playerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("arena: unknown player %q", playerID)
		}
		return fmt.Errorf("arena: loading player %q: %w", playerID, err)
	}
	p, err := player.Parse(playerID, data)
	if err != nil {
		return err
	}
	if err := fn(p); err != nil {
		return err
	}
	return s.persistPlayer(ctx, p)
}

// knownItem reports whether itemKey names a registered item or equipment.
func (s *Service) knownItem(itemKey string) bool {
	if _, ok := s.items.Item(itemKey); ok {
		return true
	}
	_, ok := s.items.Equipment(itemKey)
	return ok
}
