package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vending-api/internal/apperrors"
	"vending-api/internal/models"
)

func TestAuthorize(t *testing.T) {
	buyer := &models.Actor{ID: 1, Username: "buyer", Role: models.RoleBuyer}
	seller := &models.Actor{ID: 2, Username: "seller", Role: models.RoleSeller}
	otherSeller := &models.Actor{ID: 3, Username: "other", Role: models.RoleSeller}
	admin := &models.Actor{ID: 4, Username: "admin", Role: models.RoleBuyer, IsAdmin: true}

	owned := Resource{OwnerID: seller.ID}

	tests := []struct {
		name            string
		actor           *models.Actor
		action          Action
		res             Resource
		allowed         bool
		unauthenticated bool
		reason          string
	}{
		{name: "anonymous register", actor: nil, action: ActionRegister, allowed: true},
		{name: "anonymous login", actor: nil, action: ActionLogin, allowed: true},
		{name: "anonymous list products", actor: nil, action: ActionListProducts, allowed: true},
		{name: "anonymous read product", actor: nil, action: ActionReadProduct, res: owned, allowed: true},
		{name: "anonymous list accounts", actor: nil, action: ActionListAccounts, allowed: true},
		{name: "anonymous read account", actor: nil, action: ActionReadAccount, allowed: true},
		{name: "buyer reads foreign product", actor: buyer, action: ActionReadProduct, res: owned, allowed: true},

		{name: "anonymous create product", actor: nil, action: ActionCreateProduct, unauthenticated: true, reason: ReasonNotAuthenticated},
		{name: "anonymous update product", actor: nil, action: ActionUpdateProduct, res: owned, unauthenticated: true, reason: ReasonNotAuthenticated},
		{name: "anonymous deposit", actor: nil, action: ActionDeposit, unauthenticated: true, reason: ReasonNotAuthenticated},
		{name: "anonymous buy", actor: nil, action: ActionBuy, unauthenticated: true, reason: ReasonNotAuthenticated},
		{name: "anonymous reset", actor: nil, action: ActionReset, unauthenticated: true, reason: ReasonNotAuthenticated},
		{name: "anonymous delete account", actor: nil, action: ActionDeleteAccount, res: Resource{AccountID: 1}, unauthenticated: true, reason: ReasonNotAuthenticated},

		{name: "seller creates product", actor: seller, action: ActionCreateProduct, allowed: true},
		{name: "buyer creates product", actor: buyer, action: ActionCreateProduct, reason: ReasonNotSeller},

		{name: "owner updates product", actor: seller, action: ActionUpdateProduct, res: owned, allowed: true},
		{name: "owner deletes product", actor: seller, action: ActionDeleteProduct, res: owned, allowed: true},
		{name: "other seller updates product", actor: otherSeller, action: ActionUpdateProduct, res: owned, reason: ReasonNotProductOwner},
		{name: "other seller deletes product", actor: otherSeller, action: ActionDeleteProduct, res: owned, reason: ReasonNotProductOwner},
		{name: "buyer updates product", actor: buyer, action: ActionUpdateProduct, res: owned, reason: ReasonNotProductOwner},
		{name: "owner demoted to buyer", actor: &models.Actor{ID: seller.ID, Role: models.RoleBuyer}, action: ActionDeleteProduct, res: owned, reason: ReasonNotProductOwner},
		{name: "admin updates product", actor: admin, action: ActionUpdateProduct, res: owned, reason: ReasonNotProductOwner},

		{name: "buyer deposits", actor: buyer, action: ActionDeposit, allowed: true},
		{name: "buyer buys", actor: buyer, action: ActionBuy, allowed: true},
		{name: "buyer resets", actor: buyer, action: ActionReset, allowed: true},
		{name: "seller deposits", actor: seller, action: ActionDeposit, reason: ReasonNotBuyer},
		{name: "seller buys", actor: seller, action: ActionBuy, reason: ReasonNotBuyer},
		{name: "seller resets", actor: seller, action: ActionReset, reason: ReasonNotBuyer},

		{name: "user updates own account", actor: buyer, action: ActionUpdateAccount, res: Resource{AccountID: buyer.ID}, allowed: true},
		{name: "user deletes own account", actor: seller, action: ActionDeleteAccount, res: Resource{AccountID: seller.ID}, allowed: true},
		{name: "user updates other account", actor: buyer, action: ActionUpdateAccount, res: Resource{AccountID: seller.ID}, reason: ReasonNotAccountOwner},
		{name: "admin deletes other account", actor: admin, action: ActionDeleteAccount, res: Resource{AccountID: seller.ID}, allowed: true},

		{name: "unknown action", actor: buyer, action: Action("launch"), reason: ReasonNotPermitted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Authorize(tt.actor, tt.action, tt.res)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.unauthenticated, d.Unauthenticated)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestDecisionErr(t *testing.T) {
	assert.NoError(t, allow().Err())

	err := Authorize(nil, ActionBuy, Resource{}).Err()
	assert.Equal(t, apperrors.KindAuthentication, apperrors.KindOf(err))

	err = Authorize(&models.Actor{ID: 1, Role: models.RoleSeller}, ActionBuy, Resource{}).Err()
	appErr, ok := apperrors.As(err)
	assert.True(t, ok)
	assert.Equal(t, apperrors.KindAuthorization, appErr.Kind)
	assert.Equal(t, ReasonNotBuyer, appErr.Message)
}

func TestRequireActor(t *testing.T) {
	assert.Equal(t, apperrors.KindAuthentication, apperrors.KindOf(RequireActor(nil)))
	assert.NoError(t, RequireActor(&models.Actor{ID: 1}))
}
