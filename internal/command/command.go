// Package command provides the text command surface: a parser, a registry
// of player and referee commands, and a dispatcher that executes lines
// against the arena service. The chat transport in front of it only needs
// to forward trimmed lines and deliver the returned reply.
package command

// Categories for grouping commands in help output.
const (
	CategoryCombat  = "combate"
	CategoryShop    = "loja"
	CategoryGear    = "equipamento"
	CategoryReferee = "mestre"
	CategorySystem  = "sistema"
)

// Command defines one invocable command.
type Command struct {
	// Name is the canonical command word, lowercase.
	Name string
	// Aliases are alternate words for this command.
	Aliases []string
	// Usage shows the expected arguments, for help and error replies.
	Usage string
	// Help is the short description displayed to players.
	Help string
	// Category groups the command in help output.
	Category string
	// Referee restricts the command to the arena referee.
	Referee bool
}

// BuiltinCommands returns the full command set.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "entrar", Aliases: []string{"join"}, Usage: "entrar", Help: "enter the open encounter", Category: CategoryCombat},
		{Name: "atacar", Aliases: []string{"atk"}, Usage: "atacar <monstro>", Help: "attack a monster by number", Category: CategoryCombat},
		{Name: "turno", Aliases: []string{"proximo"}, Usage: "turno", Help: "advance the turn order", Category: CategoryCombat},
		{Name: "status", Usage: "status", Help: "show the encounter roster", Category: CategoryCombat},

		{Name: "loja", Usage: "loja", Help: "list items for sale", Category: CategoryShop},
		{Name: "comprar", Usage: "comprar <item> [qtd]", Help: "buy from the shop", Category: CategoryShop},
		{Name: "vender", Usage: "vender <item> [qtd]", Help: "sell back to the shop", Category: CategoryShop},

		{Name: "equipar", Usage: "equipar <item>", Help: "wear a piece of equipment", Category: CategoryGear},
		{Name: "desequipar", Usage: "desequipar <slot>", Help: "clear a wear slot", Category: CategoryGear},

		{Name: "iniciar", Usage: "iniciar <especie> <rank> <nivel> [qtd]", Help: "open an encounter", Category: CategoryReferee, Referee: true},
		{Name: "comecar", Usage: "comecar", Help: "roll initiative and start", Category: CategoryReferee, Referee: true},
		{Name: "investida", Usage: "investida <monstro>", Help: "have a monster attack", Category: CategoryReferee, Referee: true},
		{Name: "pausar", Usage: "pausar", Help: "pause the encounter", Category: CategoryReferee, Referee: true},
		{Name: "retomar", Usage: "retomar", Help: "resume a paused encounter", Category: CategoryReferee, Referee: true},
		{Name: "espolios", Aliases: []string{"loot"}, Usage: "espolios", Help: "distribute XP and drops", Category: CategoryReferee, Referee: true},
		{Name: "encerrar", Usage: "encerrar", Help: "close the encounter", Category: CategoryReferee, Referee: true},
		{Name: "criar", Usage: "criar <jogador> <rank> <nivel>", Help: "create a player sheet", Category: CategoryReferee, Referee: true},
		{Name: "dar", Usage: "dar <jogador> <item> [qtd]", Help: "grant an item", Category: CategoryReferee, Referee: true},
		{Name: "xp", Usage: "xp <jogador> <qtd>", Help: "grant experience", Category: CategoryReferee, Referee: true},
		{Name: "dano", Usage: "dano <jogador> <qtd>", Help: "apply direct damage", Category: CategoryReferee, Referee: true},
		{Name: "curar", Usage: "curar <jogador> <qtd>", Help: "restore hit points", Category: CategoryReferee, Referee: true},

		{Name: "ajuda", Aliases: []string{"help"}, Usage: "ajuda", Help: "list available commands", Category: CategorySystem},
	}
}
