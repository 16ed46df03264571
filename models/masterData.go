package models

import "time"

// Product is a row of the device-local master-data cache. Master data is
// read-only on the device: it is replaced wholesale by SyncMasterData while
// online and served from the cache while offline, so there is no merge with
// queued state.
type Product struct {
	ID        int64     `gorm:"primary_key" json:"id"`
	Sku       string    `gorm:"size:100;not null;index" json:"sku"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Unit      string    `gorm:"size:50" json:"unit"`
	Ean       *string   `gorm:"size:50" json:"ean"`
	SyncedAt  time.Time `gorm:"not null" json:"synced_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Bin is a cached storage bin.
type Bin struct {
	ID        int64     `gorm:"primary_key" json:"id"`
	Code      string    `gorm:"size:100;not null;index" json:"code"`
	Area      string    `gorm:"size:100" json:"area"`
	SyncedAt  time.Time `gorm:"not null" json:"synced_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// LocalCredential stores the bcrypt hash of the offline unlock PIN. One row
// per user id; verified without network so staff can unlock a device mid-
// shift in a dead zone.
type LocalCredential struct {
	UserId    int       `gorm:"primary_key" json:"user_id"`
	PinHash   string    `gorm:"size:100;not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
