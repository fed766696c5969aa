package rank

import (
	"context"
	"errors"
	"net/http"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
)

// DiscordBadgeProvider adapts the Discord role REST API to the BadgeProvider
// interface.
type DiscordBadgeProvider struct {
	rest rest.Rest
}

func NewDiscordBadgeProvider(r rest.Rest) *DiscordBadgeProvider {
	return &DiscordBadgeProvider{rest: r}
}

func (p *DiscordBadgeProvider) ListBadges(ctx context.Context, guildID snowflake.ID) ([]Badge, error) {
	roles, err := p.rest.GetRoles(guildID, rest.WithCtx(ctx))
	if err != nil {
		return nil, err
	}
	badges := make([]Badge, len(roles))
	for i, role := range roles {
		badges[i] = Badge{ID: role.ID, Name: role.Name}
	}
	return badges, nil
}

func (p *DiscordBadgeProvider) CreateBadge(ctx context.Context, guildID snowflake.ID, name string, color int) (Badge, error) {
	role, err := p.rest.CreateRole(guildID, discord.RoleCreate{
		Name:  name,
		Color: color,
	}, rest.WithCtx(ctx))
	if err != nil {
		return Badge{}, err
	}
	return Badge{ID: role.ID, Name: role.Name}, nil
}

func (p *DiscordBadgeProvider) AddBadge(ctx context.Context, guildID, userID, badgeID snowflake.ID) error {
	err := p.rest.AddMemberRole(guildID, userID, badgeID, rest.WithCtx(ctx))
	if isNotFound(err) {
		return nil
	}
	return err
}

func (p *DiscordBadgeProvider) RemoveBadge(ctx context.Context, guildID, userID, badgeID snowflake.ID) error {
	err := p.rest.RemoveMemberRole(guildID, userID, badgeID, rest.WithCtx(ctx))
	if isNotFound(err) {
		// already absent, treat as done
		return nil
	}
	return err
}

func (p *DiscordBadgeProvider) Member(ctx context.Context, guildID, userID snowflake.ID) ([]snowflake.ID, bool, error) {
	member, err := p.rest.GetMember(guildID, userID, rest.WithCtx(ctx))
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return member.RoleIDs, true, nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var restErr rest.Error
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
