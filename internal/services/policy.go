package services

import (
	"vending-api/internal/apperrors"
	"vending-api/internal/models"
)

type Action string

const (
	ActionRegister      Action = "register"
	ActionLogin         Action = "login"
	ActionListAccounts  Action = "list_accounts"
	ActionReadAccount   Action = "read_account"
	ActionUpdateAccount Action = "update_account"
	ActionDeleteAccount Action = "delete_account"
	ActionListProducts  Action = "list_products"
	ActionReadProduct   Action = "read_product"
	ActionCreateProduct Action = "create_product"
	ActionUpdateProduct Action = "update_product"
	ActionDeleteProduct Action = "delete_product"
	ActionDeposit       Action = "deposit"
	ActionBuy           Action = "buy"
	ActionReset         Action = "reset"
)

const (
	ReasonNotAuthenticated = "Authentication credentials were not provided."
	ReasonNotBuyer         = "The user must be a buyer"
	ReasonNotSeller        = "The user is not a seller"
	ReasonNotProductOwner  = "The user must be a seller, and owns the product"
	ReasonNotAccountOwner  = "The user can only modify their own account"
	ReasonNotPermitted     = "The action is not permitted"
)

// Resource identifies what an action targets. OwnerID is the seller of a
// product, AccountID the account being read or modified.
type Resource struct {
	OwnerID   int
	AccountID int
}

type Decision struct {
	Allowed         bool
	Unauthenticated bool
	Reason          string
}

// Err converts a denial into an authentication or authorization error.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Unauthenticated:
		return apperrors.Unauthenticated(d.Reason)
	default:
		return apperrors.Forbidden(d.Reason)
	}
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// A rule returns ok=false when it has no opinion on the request.
type rule func(actor *models.Actor, action Action, res Resource) (d Decision, ok bool)

var policyRules = []rule{
	publicActions,
	requireActor,
	productCreation,
	productOwnership,
	creditActions,
	accountOwnership,
}

// Authorize evaluates the policy rules in order and returns the first decision.
func Authorize(actor *models.Actor, action Action, res Resource) Decision {
	for _, r := range policyRules {
		if d, ok := r(actor, action, res); ok {
			return d
		}
	}
	return deny(ReasonNotPermitted)
}

// RequireActor rejects anonymous callers before any resource is loaded.
func RequireActor(actor *models.Actor) error {
	if actor == nil {
		return Decision{Unauthenticated: true, Reason: ReasonNotAuthenticated}.Err()
	}
	return nil
}

func publicActions(_ *models.Actor, action Action, _ Resource) (Decision, bool) {
	switch action {
	case ActionRegister, ActionLogin, ActionListAccounts, ActionReadAccount, ActionListProducts, ActionReadProduct:
		return allow(), true
	}
	return Decision{}, false
}

func requireActor(actor *models.Actor, _ Action, _ Resource) (Decision, bool) {
	if actor == nil {
		return Decision{Unauthenticated: true, Reason: ReasonNotAuthenticated}, true
	}
	return Decision{}, false
}

func productCreation(actor *models.Actor, action Action, _ Resource) (Decision, bool) {
	if action != ActionCreateProduct {
		return Decision{}, false
	}
	if actor.Role == models.RoleSeller {
		return allow(), true
	}
	return deny(ReasonNotSeller), true
}

func productOwnership(actor *models.Actor, action Action, res Resource) (Decision, bool) {
	if action != ActionUpdateProduct && action != ActionDeleteProduct {
		return Decision{}, false
	}
	if actor.Role == models.RoleSeller && actor.ID == res.OwnerID {
		return allow(), true
	}
	return deny(ReasonNotProductOwner), true
}

func creditActions(actor *models.Actor, action Action, _ Resource) (Decision, bool) {
	if action != ActionDeposit && action != ActionBuy && action != ActionReset {
		return Decision{}, false
	}
	if actor.Role == models.RoleBuyer {
		return allow(), true
	}
	return deny(ReasonNotBuyer), true
}

func accountOwnership(actor *models.Actor, action Action, res Resource) (Decision, bool) {
	if action != ActionUpdateAccount && action != ActionDeleteAccount {
		return Decision{}, false
	}
	if actor.IsAdmin || actor.ID == res.AccountID {
		return allow(), true
	}
	return deny(ReasonNotAccountOwner), true
}
