package usecase

import (
	"encoding/json"

	"github.com/fastygo/livechat/domain"
)

// Command and query names registered on the Dispatcher.
const (
	CmdCreateChat          = "chat.create"
	CmdAddMessage          = "chat.add_message"
	CmdAssignCommercial    = "chat.assign_commercial"
	CmdUnassignCommercial  = "chat.unassign_commercial"
	CmdUnassignCommercials = "chat.unassign_commercials"
	CmdMarkSeen            = "chat.mark_seen"
	CmdMarkUnseen          = "chat.mark_unseen"
	CmdSetOnline           = "chat.set_online"
	CmdSetViewing          = "chat.set_viewing"
	CmdSetTyping           = "chat.set_typing"
	CmdRenameParticipant   = "chat.rename_participant"
	CmdConfirmChat         = "chat.confirm"
	CmdCloseChat           = "chat.close"

	CmdClaimChat    = "claim.claim_chat"
	CmdReleaseClaim = "claim.release"
	CmdAutoAssign   = "claim.auto_assign"

	CmdHeartbeat = "presence.heartbeat"
	CmdGoOffline = "presence.offline"

	QryGetChat                 = "chat.get"
	QryFindChats               = "chat.find"
	QryListChats               = "chat.list"
	QryActiveClaimForChat      = "claim.active_for_chat"
	QryActiveClaimsByComercial = "claim.active_by_comercial"
	QryActiveChatIDs           = "claim.active_chat_ids"
	QryOnlineCommercials       = "presence.online"
)

// Decode accepts either a typed payload or its raw JSON form.
func Decode[T any](payload interface{}) (T, error) {
	var out T
	switch v := payload.(type) {
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
	case json.RawMessage:
		if err := json.Unmarshal(v, &out); err != nil {
			return out, domain.ErrInvalidPayload.Detail("%v", err)
		}
		return out, nil
	case []byte:
		if err := json.Unmarshal(v, &out); err != nil {
			return out, domain.ErrInvalidPayload.Detail("%v", err)
		}
		return out, nil
	}
	return out, domain.ErrInvalidPayload.Detail("unexpected payload %T", payload)
}
