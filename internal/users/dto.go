package users

import (
	"github.com/incentraworks/incentra-backend/pkg/db/models"
	"github.com/incentraworks/incentra-backend/pkg/enums"
)

// CreateUserInput captures the fields required to register a user.
type CreateUserInput struct {
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Phone string     `json:"phone"`
	Role  enums.Role `json:"role"`
}

// ToModel converts the input into a persistable user record.
func (in CreateUserInput) ToModel() *models.User {
	return &models.User{
		Name:  in.Name,
		Email: in.Email,
		Phone: in.Phone,
		Role:  in.Role,
	}
}

// Reward is a redeemable catalog entry for fabricator points.
type Reward struct {
	Name string `json:"name"`
	Cost int64  `json:"cost"`
}

// RewardCatalog lists the redeemable rewards in display order.
var RewardCatalog = []Reward{
	{Name: "Gift Card", Cost: 500},
	{Name: "Product Discount", Cost: 1000},
	{Name: "Exclusive Merchandise", Cost: 2500},
}

// RedemptionResult reports the outcome of a reward redemption.
type RedemptionResult struct {
	Reward          Reward `json:"reward"`
	RemainingPoints int64  `json:"remaining_points"`
}
