// Package admin implements the permission configuration commands. Every
// write to the permission record invalidates the engine's compiled snapshot
// so the change applies on the next evaluation instead of waiting out the
// cache TTL.
package admin

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
