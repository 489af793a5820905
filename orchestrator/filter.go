package orchestrator

import (
	"slices"

	"github.com/inspirepan/golem/platform"
)

var answeredChannels = []platform.ChannelType{
	platform.ChannelText,
	platform.ChannelPublicThread,
	platform.ChannelPrivateThread,
	platform.ChannelDirect,
}

// Accept reports whether msg should start a turn. Outside direct messages the
// bot must be mentioned; role allow lists can never be met in a direct
// message.
func (o *Orchestrator) Accept(msg *platform.Message) bool {
	switch {
	case msg.AuthorIsBot:
		return false
	case !slices.Contains(answeredChannels, msg.ChannelType):
		return false
	case msg.ChannelType != platform.ChannelDirect && !msg.Mentions(o.platform.Self().ID):
		return false
	}

	if ids := o.cfg.AllowedChannelIDs; len(ids) > 0 &&
		!slices.Contains(ids, msg.ChannelID) &&
		(msg.ParentChannelID == "" || !slices.Contains(ids, msg.ParentChannelID)) {
		return false
	}

	if roles := o.cfg.AllowedRoleIDs; len(roles) > 0 {
		if msg.ChannelType == platform.ChannelDirect {
			return false
		}
		if !slices.ContainsFunc(msg.AuthorRoleIDs, func(r string) bool { return slices.Contains(roles, r) }) {
			return false
		}
	}
	return true
}
