package command

import "strings"

// ParseResult holds the command word and arguments from one input line.
type ParseResult struct {
	// Command is the first word of the input, lowercased.
	Command string
	// Args are the remaining whitespace-separated words.
	Args []string
}

// Parse splits a text line into a command word and arguments.
//
// Postcondition: Command is empty when the line holds no words; Args is nil
// when the line holds only the command word.
func Parse(line string) ParseResult {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ParseResult{}
	}
	result := ParseResult{Command: strings.ToLower(fields[0])}
	if len(fields) > 1 {
		result.Args = fields[1:]
	}
	return result
}
