package transport

import "time"

type CreateChatRequest struct {
	ChatID      string `json:"chat_id" validate:"omitempty,max=64"`
	CompanyID   string `json:"company_id" validate:"required,max=64"`
	VisitorID   string `json:"visitor_id" validate:"required,max=64"`
	VisitorName string `json:"visitor_name" validate:"max=120"`
}

// MessageRequest carries a message sent to a chat. The sender defaults to
// the authenticated caller and may differ only for commercials. A zero
// created_at means server time.
type MessageRequest struct {
	SenderID  string    `json:"sender_id" validate:"omitempty,max=64"`
	Content   string    `json:"content" validate:"required"`
	CreatedAt time.Time `json:"created_at"`
}

type AssignCommercialRequest struct {
	CommercialID   string `json:"commercial_id" validate:"required,max=64"`
	CommercialName string `json:"commercial_name" validate:"max=120"`
}

type UnassignCommercialsRequest struct {
	CommercialIDs []string `json:"commercial_ids" validate:"required,min=1,dive,required"`
}

type FlagRequest struct {
	Value *bool `json:"value" validate:"required"`
}

type RenameRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type ClaimRequest struct {
	Name string `json:"name" validate:"max=120"`
}

type HeartbeatRequest struct {
	Name string `json:"name" validate:"max=120"`
}
