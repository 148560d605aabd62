package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	LINK_TYPE_URL     = "LINK"
	LINK_TYPE_PRODUCT = "WHATSAPP_PRODUCT"
)

// Link is a single button on a page: either a plain outbound URL or, when a
// price is set, a product that routes the visitor to WhatsApp checkout.
// The free-tier quota counts all rows of a page, active or not.
type Link struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PageID    uint           `gorm:"index;not null" json:"page_id"`
	Title     string         `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=1,max=255"`
	URL       *string        `gorm:"type:varchar(500);default:null" json:"url,omitempty" validate:"omitempty,url,max=500"`
	Price     *float64       `gorm:"type:decimal(10,2);default:null" json:"price,omitempty" validate:"omitempty,gt=0"`
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	SortOrder int            `gorm:"not null;default:0" json:"sort_order"`
	Clicks    uint64         `gorm:"not null;default:0" json:"clicks"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (l *Link) Validate() error {
	v := validator.New()
	return v.Struct(l)
}

// Type derives the link variant from the presence of a price.
func (l *Link) Type() string {
	if l.Price != nil {
		return LINK_TYPE_PRODUCT
	}
	return LINK_TYPE_URL
}

func FindLinkByID(db *gorm.DB, id uint) (*Link, error) {
	var link Link
	err := db.First(&link, id).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func GetActiveLinksByPageID(db *gorm.DB, pageID uint) ([]Link, error) {
	var links []Link
	err := db.Where("page_id = ? AND is_active = ?", pageID, true).
		Order("sort_order ASC, id ASC").Find(&links).Error
	return links, err
}

// CountLinksByPageID counts every link row of a page regardless of is_active.
func CountLinksByPageID(db *gorm.DB, pageID uint) (int64, error) {
	var count int64
	err := db.Model(&Link{}).Where("page_id = ?", pageID).Count(&count).Error
	return count, err
}
