// Package commands implements the built-in bot commands on top of the
// dispatcher and the moderation ledger.
package commands

import (
	"github.com/wardbot/backend/config"
	"github.com/wardbot/backend/internal/dispatcher"
	"github.com/wardbot/backend/internal/guard"
	"github.com/wardbot/backend/internal/platform"
	"github.com/wardbot/backend/internal/repository"
)

// Deps bundles what command handlers need. Registry is set by the caller
// before registration so the help command can enumerate it.
type Deps struct {
	Cfg        *config.Config
	Client     platform.Client
	Actors     *repository.ActorRepository
	Moderation *repository.ModerationRepository
	Guard      *guard.CooldownManager
	Registry   *dispatcher.Registry
}

// All returns every built-in command in the order they should register.
func All(d *Deps) []*dispatcher.Command {
	return []*dispatcher.Command{
		pingCommand(d),
		helpCommand(d),
		warnCommand(d),
		warningsCommand(d),
		unwarnCommand(d),
		muteCommand(d),
		unmuteCommand(d),
		muteInfoCommand(d),
		clearMutesCommand(d),
		clearCommand(d),
		blockCommand(d),
		unblockCommand(d),
	}
}
