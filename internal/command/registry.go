package command

import (
	"fmt"
	"sort"
	"strings"
)

// Registry maps command names and aliases to Command definitions.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]string
}

// NewRegistry creates a Registry populated with the given commands.
//
// Precondition: no two commands may share a canonical name or alias.
func NewRegistry(cmds []Command) (*Registry, error) {
	r := &Registry{
		commands: make(map[string]*Command, len(cmds)),
		aliases:  make(map[string]string),
	}
	for i := range cmds {
		cmd := &cmds[i]
		if _, exists := r.commands[cmd.Name]; exists {
			return nil, fmt.Errorf("command: duplicate name %q", cmd.Name)
		}
		r.commands[cmd.Name] = cmd
		for _, alias := range cmd.Aliases {
			if _, exists := r.commands[alias]; exists {
				return nil, fmt.Errorf("command: alias %q shadows a command name", alias)
			}
			if prior, exists := r.aliases[alias]; exists {
				return nil, fmt.Errorf("command: alias %q used by both %q and %q", alias, prior, cmd.Name)
			}
			r.aliases[alias] = cmd.Name
		}
	}
	return r, nil
}

// DefaultRegistry creates a Registry holding the builtin command set.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinCommands())
	if err != nil {
		panic(fmt.Sprintf("building default registry: %v", err))
	}
	return r
}

// Resolve looks a command up by name or alias.
func (r *Registry) Resolve(word string) (*Command, bool) {
	if cmd, ok := r.commands[word]; ok {
		return cmd, true
	}
	if canonical, ok := r.aliases[word]; ok {
		return r.commands[canonical], true
	}
	return nil, false
}

// Help renders the command list grouped by category. Referee commands are
// included only when referee is true.
func (r *Registry) Help(referee bool) string {
	byCategory := make(map[string][]*Command)
	for _, cmd := range r.commands {
		if cmd.Referee && !referee {
			continue
		}
		byCategory[cmd.Category] = append(byCategory[cmd.Category], cmd)
	}
	categories := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var b strings.Builder
	for _, cat := range categories {
		cmds := byCategory[cat]
		sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
		fmt.Fprintf(&b, "[%s]\n", cat)
		for _, cmd := range cmds {
			fmt.Fprintf(&b, "  %-32s %s\n", cmd.Usage, cmd.Help)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
