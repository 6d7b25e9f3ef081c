package market

import (
	"fmt"

	"github.com/safar/agromarket/internal/models"
)

// accountTransitions lists the admin-driven moves of the approval workflow.
// Nothing leaves approved.
var accountTransitions = map[models.AccountStatus][]models.AccountStatus{
	models.AccountPending:  {models.AccountApproved, models.AccountRejected},
	models.AccountRejected: {models.AccountApproved},
}

// InitialAccountStatus returns the status a self-registered account starts in.
func InitialAccountStatus(role models.Role) (models.AccountStatus, error) {
	switch role {
	case models.RoleBuyer:
		return models.AccountApproved, nil
	case models.RoleFarmer:
		return models.AccountPending, nil
	case models.RoleAdmin:
		return "", ErrAdminSelfRegistration
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, role)
}

func NextAccountStatus(current, target models.AccountStatus) (models.AccountStatus, error) {
	for _, allowed := range accountTransitions[current] {
		if allowed == target {
			return target, nil
		}
	}
	return current, fmt.Errorf("%w: account %s -> %s", ErrInvalidTransition, current, target)
}
