package chat

import (
	"context"

	"github.com/samber/lo"

	chatdomain "github.com/fastygo/livechat/domain/chat"
	"github.com/fastygo/livechat/usecase"
)

func command[T any](fn func(context.Context, T) (chatdomain.Chat, error)) usecase.CommandHandler {
	return func(ctx context.Context, payload interface{}) (interface{}, error) {
		cmd, err := usecase.Decode[T](payload)
		if err != nil {
			return nil, err
		}
		c, err := fn(ctx, cmd)
		if err != nil {
			return nil, err
		}
		return c.ToPrimitives(), nil
	}
}

func byChatID(fn func(context.Context, string) (chatdomain.Chat, error)) usecase.CommandHandler {
	return func(ctx context.Context, payload interface{}) (interface{}, error) {
		p, err := usecase.Decode[chatIDParams](payload)
		if err != nil {
			return nil, err
		}
		c, err := fn(ctx, p.ChatID)
		if err != nil {
			return nil, err
		}
		return c.ToPrimitives(), nil
	}
}

func snapshots(chats []chatdomain.Chat) []chatdomain.Primitives {
	return lo.Map(chats, func(c chatdomain.Chat, _ int) chatdomain.Primitives { return c.ToPrimitives() })
}
