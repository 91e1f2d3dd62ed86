package database

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Preferences holds the gallery state remembered for a user between visits.
// UserID is the id of the account on the backend.
type Preferences struct {
	gorm.Model
	UserID         string `gorm:"uniqueIndex;not null"`
	LastSearch     string
	TitleFilter    string
	PlatformFilter string
}

// GetPreferences returns the stored preferences of a user.
// A user without stored preferences gets an empty record, not an error.
func (c *Client) GetPreferences(ctx context.Context, userID string) (*Preferences, error) {
	var prefs Preferences
	err := c.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Preferences{UserID: userID}, nil
	}
	if err != nil {
		log.Error("failed to get preferences", "user_id", userID, "error", err)
		return nil, err
	}
	return &prefs, nil
}

// SavePreferences creates or updates the preferences of a user.
func (c *Client) SavePreferences(ctx context.Context, prefs *Preferences) error {
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_search", "title_filter", "platform_filter", "updated_at"}),
	}).Create(prefs).Error
	if err != nil {
		log.Error("failed to save preferences", "user_id", prefs.UserID, "error", err)
		return err
	}
	return nil
}

// DeletePreferences removes the stored preferences of a user.
func (c *Client) DeletePreferences(ctx context.Context, userID string) error {
	if err := c.db.WithContext(ctx).Unscoped().Where("user_id = ?", userID).Delete(&Preferences{}).Error; err != nil {
		log.Error("failed to delete preferences", "user_id", userID, "error", err)
		return err
	}
	return nil
}

// CountPreferences returns how many users have stored preferences.
func (c *Client) CountPreferences(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&Preferences{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ClearPreferences removes the preferences of every user and returns how many were removed.
func (c *Client) ClearPreferences(ctx context.Context) (int64, error) {
	res := c.db.WithContext(ctx).Unscoped().Where("1 = 1").Delete(&Preferences{})
	if res.Error != nil {
		log.Error("failed to clear preferences", "error", res.Error)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
