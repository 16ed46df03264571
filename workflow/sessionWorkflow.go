package workflow

import (
	"context"
	"errors"

	"github.com/mmdatafocus/warehouse_client/models"
	"github.com/mmdatafocus/warehouse_client/utils"
	"gorm.io/gorm"
)

// SetUnlockPin stores a bcrypt hash of the user's offline unlock PIN in the
// local store. Set while online after login; verified without network.
func (o *Operations) SetUnlockPin(ctx context.Context, userId int, pin string) error {
	if len(pin) < 4 {
		return errors.New("pin must be at least 4 digits")
	}
	hash, err := utils.HashPin(pin)
	if err != nil {
		return err
	}
	cred := models.LocalCredential{UserId: userId, PinHash: string(hash)}
	return o.Store.DB.WithContext(ctx).Save(&cred).Error
}

// VerifyUnlockPin checks a PIN against the stored hash.
func (o *Operations) VerifyUnlockPin(ctx context.Context, userId int, pin string) error {
	var cred models.LocalCredential
	err := o.Store.DB.WithContext(ctx).Where("user_id = ?", userId).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ErrorRecordNotFound
	}
	if err != nil {
		return err
	}
	return utils.ComparePin(cred.PinHash, pin)
}
