// Package cases implements the audit-trail commands: viewing a single case,
// editing its reason, listing a user's history and rendering action
// statistics.
package cases

import (
	"fmt"

	"server-warden/internal/command"
	"server-warden/internal/middleware"
)

func register(cmd command.Command) {
	command.Register(command.Apply(cmd,
		middleware.WithPermissionGate(),
		middleware.WithGuildOnly(),
		middleware.WithCommandLog(),
	))
}

func slashContext(ctx interface{}) (*command.SlashContext, error) {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil, fmt.Errorf("wrong context type %T", ctx)
	}
	return slash, nil
}
