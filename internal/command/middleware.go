package command

import "github.com/bwmarrin/discordgo"

// Middleware wraps a command (permission gate, logging, guild check).
type Middleware func(Command) Command

// Apply applies middlewares in order; the first in the list is the outermost.
func Apply(cmd Command, mws ...Middleware) Command {
	for _, mw := range mws {
		cmd = mw(cmd)
	}
	return cmd
}

type wrappedCommand struct {
	Command
	wrap func(ctx interface{}) error
}

func (w *wrappedCommand) Run(ctx interface{}) error {
	return w.wrap(ctx)
}

func (w *wrappedCommand) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := w.Command.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return nil
}

// Wrap returns cmd with Run replaced by wrap. Provider interfaces pass
// through to the inner command.
func Wrap(cmd Command, wrap func(ctx interface{}) error) Command {
	return &wrappedCommand{Command: cmd, wrap: wrap}
}

// Root unwraps middleware layers down to the underlying command.
func Root(cmd Command) Command {
	for {
		w, ok := cmd.(*wrappedCommand)
		if !ok {
			return cmd
		}
		cmd = w.Command
	}
}
