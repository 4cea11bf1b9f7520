package claim

import (
	"context"

	"github.com/samber/lo"

	chatdomain "github.com/fastygo/livechat/domain/chat"
	claimdomain "github.com/fastygo/livechat/domain/claim"
	"github.com/fastygo/livechat/usecase"
)

type chatIDParams struct {
	ChatID string `json:"chat_id"`
}

type comercialParams struct {
	ComercialID string `json:"comercial_id"`
}

// Snapshot is the serializable view of a Result.
type Snapshot struct {
	Claim claimdomain.Primitives `json:"claim"`
	Chat  *chatdomain.Primitives `json:"chat,omitempty"`
}

func (r Result) Snapshot() Snapshot {
	s := Snapshot{Claim: r.Claim.ToPrimitives()}
	if r.Chat.ID() != "" {
		chat := r.Chat.ToPrimitives()
		s.Chat = &chat
	}
	return s
}

func (uc *UseCase) Register(d *usecase.Dispatcher) {
	d.RegisterCommand(usecase.CmdClaimChat, func(ctx context.Context, payload interface{}) (interface{}, error) {
		cmd, err := usecase.Decode[ClaimChatCommand](payload)
		if err != nil {
			return nil, err
		}
		res, err := uc.ClaimChat(ctx, cmd)
		if err != nil {
			return nil, err
		}
		return res.Snapshot(), nil
	})
	d.RegisterCommand(usecase.CmdReleaseClaim, func(ctx context.Context, payload interface{}) (interface{}, error) {
		cmd, err := usecase.Decode[ReleaseClaimCommand](payload)
		if err != nil {
			return nil, err
		}
		res, err := uc.ReleaseClaim(ctx, cmd)
		if err != nil {
			return nil, err
		}
		return res.Snapshot(), nil
	})
	d.RegisterCommand(usecase.CmdAutoAssign, func(ctx context.Context, payload interface{}) (interface{}, error) {
		p, err := usecase.Decode[chatIDParams](payload)
		if err != nil {
			return nil, err
		}
		res, err := uc.AutoAssign(ctx, p.ChatID)
		if err != nil || res == nil {
			return nil, err
		}
		return res.Snapshot(), nil
	})

	d.RegisterQuery(usecase.QryActiveClaimForChat, func(ctx context.Context, params interface{}) (interface{}, error) {
		p, err := usecase.Decode[chatIDParams](params)
		if err != nil {
			return nil, err
		}
		c, err := uc.ActiveClaimForChat(ctx, p.ChatID)
		if err != nil || c == nil {
			return nil, err
		}
		return c.ToPrimitives(), nil
	})
	d.RegisterQuery(usecase.QryActiveClaimsByComercial, func(ctx context.Context, params interface{}) (interface{}, error) {
		p, err := usecase.Decode[comercialParams](params)
		if err != nil {
			return nil, err
		}
		claims, err := uc.ActiveClaimsByComercial(ctx, p.ComercialID)
		if err != nil {
			return nil, err
		}
		return lo.Map(claims, func(c claimdomain.ComercialClaim, _ int) claimdomain.Primitives { return c.ToPrimitives() }), nil
	})
	d.RegisterQuery(usecase.QryActiveChatIDs, func(ctx context.Context, _ interface{}) (interface{}, error) {
		return uc.ActiveChatIDs(ctx)
	})
}
