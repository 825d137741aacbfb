package paymentmethods

import (
	"time"

	"gorm.io/datatypes"
)

// Method is one vendor's configuration for one provider type. The pair
// (vendor_id, type) is unique; upserts replace config and is_active in place.
type Method struct {
	ID       string         `gorm:"type:char(36);primaryKey" json:"id"`
	VendorID string         `gorm:"type:char(36);not null;uniqueIndex:ux_vendor_payment_methods_vendor_type,priority:1" json:"vendorId"`
	Type     string         `gorm:"type:varchar(16);not null;uniqueIndex:ux_vendor_payment_methods_vendor_type,priority:2" json:"type"`
	Config   datatypes.JSON `gorm:"type:json;not null" json:"config"`
	IsActive bool           `gorm:"not null;default:true" json:"isActive"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null" json:"updatedAt"`
}

func (Method) TableName() string { return "vendor_payment_methods" }

// PublicMethod is the sanitized projection exposed to non-owners. Config
// holds shortcodes, passkeys and API secrets and must never cross this
// boundary.
type PublicMethod struct {
	Type     string `json:"type"`
	IsActive bool   `json:"isActive"`
}

func Sanitize(methods []Method) []PublicMethod {
	out := make([]PublicMethod, 0, len(methods))
	for _, m := range methods {
		out = append(out, PublicMethod{Type: m.Type, IsActive: m.IsActive})
	}
	return out
}
