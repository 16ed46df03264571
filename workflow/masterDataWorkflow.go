package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/warehouse_client/models"
	"github.com/mmdatafocus/warehouse_client/utils"
	"gorm.io/gorm"
)

// SyncMasterData replaces the local product and bin caches with the
// server's current master data. Master data is read-only on the device, so
// a wholesale swap inside one transaction keeps the cache consistent; a
// failed pull leaves the previous cache untouched.
func (o *Operations) SyncMasterData(ctx context.Context) error {
	if o.Oracle != nil && o.Oracle.IsOfflineNow() {
		return errors.New("cannot sync master data while offline")
	}

	productsBody, err := o.API.Get(ctx, "/products")
	if err != nil {
		return err
	}
	var products []*models.Product
	if err := utils.UnmarshalFromJSON(productsBody, &products); err != nil {
		return err
	}

	binsBody, err := o.API.Get(ctx, "/bins")
	if err != nil {
		return err
	}
	var bins []*models.Bin
	if err := utils.UnmarshalFromJSON(binsBody, &bins); err != nil {
		return err
	}

	now := time.Now().UTC()
	return o.Store.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Product{}).Error; err != nil {
			return err
		}
		for _, p := range products {
			p.SyncedAt = now
			if err := tx.Create(p).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("1 = 1").Delete(&models.Bin{}).Error; err != nil {
			return err
		}
		for _, b := range bins {
			b.SyncedAt = now
			if err := tx.Create(b).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListProducts serves from the local cache, so product lookup keeps working
// in a dead zone.
func (o *Operations) ListProducts(ctx context.Context) ([]*models.Product, error) {
	var products []*models.Product
	err := o.Store.DB.WithContext(ctx).Order("sku ASC").Find(&products).Error
	return products, err
}

// ListBins serves from the local cache.
func (o *Operations) ListBins(ctx context.Context) ([]*models.Bin, error) {
	var bins []*models.Bin
	err := o.Store.DB.WithContext(ctx).Order("code ASC").Find(&bins).Error
	return bins, err
}
