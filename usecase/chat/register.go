package chat

import (
	"context"

	"github.com/fastygo/livechat/repository"
	"github.com/fastygo/livechat/usecase"
)

type chatIDParams struct {
	ChatID string `json:"chat_id"`
}

type unassignParams struct {
	ChatID       string `json:"chat_id"`
	CommercialID string `json:"commercial_id"`
}

// Register exposes the use case on the dispatcher. Payloads may be the typed
// command or its JSON form.
func (uc *UseCase) Register(d *usecase.Dispatcher) {
	d.RegisterCommand(usecase.CmdCreateChat, command(uc.CreateChat))
	d.RegisterCommand(usecase.CmdAddMessage, command(uc.AddMessage))
	d.RegisterCommand(usecase.CmdAssignCommercial, command(uc.AssignCommercial))
	d.RegisterCommand(usecase.CmdUnassignCommercials, command(uc.UnassignCommercials))
	d.RegisterCommand(usecase.CmdMarkSeen, command(uc.MarkSeen))
	d.RegisterCommand(usecase.CmdMarkUnseen, command(uc.MarkUnseen))
	d.RegisterCommand(usecase.CmdSetOnline, command(uc.SetOnline))
	d.RegisterCommand(usecase.CmdSetViewing, command(uc.SetViewing))
	d.RegisterCommand(usecase.CmdSetTyping, command(uc.SetTyping))
	d.RegisterCommand(usecase.CmdRenameParticipant, command(uc.RenameParticipant))

	d.RegisterCommand(usecase.CmdUnassignCommercial, func(ctx context.Context, payload interface{}) (interface{}, error) {
		p, err := usecase.Decode[unassignParams](payload)
		if err != nil {
			return nil, err
		}
		c, err := uc.UnassignCommercial(ctx, p.ChatID, p.CommercialID)
		if err != nil {
			return nil, err
		}
		return c.ToPrimitives(), nil
	})
	d.RegisterCommand(usecase.CmdConfirmChat, byChatID(uc.ConfirmChat))
	d.RegisterCommand(usecase.CmdCloseChat, byChatID(uc.CloseChat))

	d.RegisterQuery(usecase.QryGetChat, usecase.QueryHandler(byChatID(uc.GetChat)))
	d.RegisterQuery(usecase.QryFindChats, func(ctx context.Context, params interface{}) (interface{}, error) {
		criteria, err := usecase.Decode[repository.ChatCriteria](params)
		if err != nil {
			return nil, err
		}
		chats, err := uc.FindChats(ctx, criteria)
		if err != nil {
			return nil, err
		}
		return snapshots(chats), nil
	})
	d.RegisterQuery(usecase.QryListChats, func(ctx context.Context, _ interface{}) (interface{}, error) {
		chats, err := uc.ListChats(ctx)
		if err != nil {
			return nil, err
		}
		return snapshots(chats), nil
	})
}
