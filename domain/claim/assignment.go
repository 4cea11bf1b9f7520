package claim

import "github.com/fastygo/livechat/domain"

// DefaultAssignmentPriority is the priority every commercial gets until
// load-based routing exists.
const DefaultAssignmentPriority = 1

// AssignmentService decides whether claims may be created or released.
// It holds no state.
type AssignmentService struct{}

func NewAssignmentService() AssignmentService {
	return AssignmentService{}
}

// CanComercialClaimChat fails when the chat already has an active claim.
func (AssignmentService) CanComercialClaimChat(comercialID, chatID string, existing *ComercialClaim) error {
	if existing != nil && existing.IsActive() {
		return domain.ErrComercialCannotBeAssigned.Detail("chat %s is held by %s, requested by %s",
			chatID, existing.ComercialID(), comercialID)
	}
	return nil
}

func (AssignmentService) CanComercialReleaseClaim(comercialID string, c ComercialClaim) error {
	return c.CanBeReleasedBy(comercialID)
}

// CalculateAssignmentPriority ranks a candidate; higher wins. The load is
// accepted but does not change the result yet.
func (AssignmentService) CalculateAssignmentPriority(comercialID string, activeClaims int) int {
	return DefaultAssignmentPriority
}
