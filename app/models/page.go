package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Page is the public bio-link page of a user. Every user owns at most one
// page; the slug is chosen once at creation and never changes afterwards.
type Page struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	Slug        string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug" validate:"required,min=3,max=100,lowercase"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=3,max=255"`
	WhatsApp    string         `gorm:"type:varchar(20);not null" json:"whatsapp" validate:"required,min=10,max=20,numeric"`
	Description string         `gorm:"type:text" json:"description" validate:"max=1000"`
	AvatarURL   string         `gorm:"type:varchar(255);default:null" json:"avatar_url" validate:"max=255"`
	TotalViews  uint64         `gorm:"not null;default:0" json:"total_views"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Links []Link `gorm:"foreignKey:PageID" json:"links,omitempty"`
}

func (p *Page) Validate() error {
	v := validator.New()
	return v.Struct(p)
}

func FindPageBySlug(db *gorm.DB, slug string) (*Page, error) {
	var page Page
	err := db.Where("slug = ?", slug).First(&page).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func FindPageByUserID(db *gorm.DB, userID uint) (*Page, error) {
	var page Page
	err := db.Where("user_id = ?", userID).First(&page).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}
