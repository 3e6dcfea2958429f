package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Istiyak4099/Airdrop/cache"
	"github.com/Istiyak4099/Airdrop/db"
	"github.com/Istiyak4099/Airdrop/models"
)

const profilesCollection = "businessProfiles"

type ProfileService struct {
	store  db.Store
	cache  *cache.Cache
	logger *slog.Logger
}

func NewProfileService(store db.Store, c *cache.Cache, logger *slog.Logger) *ProfileService {
	return &ProfileService{store: store, cache: c, logger: logger}
}

// Get returns the business profile of an account, or nil when none exists.
func (s *ProfileService) Get(ctx context.Context, accountID string) (*models.BusinessProfile, error) {
	if err := checkID("account", accountID); err != nil {
		return nil, err
	}

	return cache.GetOrLoad(ctx, s.cache, cache.ProfileKey(accountID), func(ctx context.Context) (*models.BusinessProfile, error) {
		var p models.BusinessProfile
		err := s.store.GetDoc(ctx, db.Doc(profilesCollection, accountID), &p)
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("get profile %s: %w", accountID, err)
		}
		return &p, nil
	})
}

// Save merges the fields set in patch into the stored profile. Fields left
// at their zero value keep their stored values.
func (s *ProfileService) Save(ctx context.Context, accountID string, patch models.BusinessProfile) error {
	if err := checkID("account", accountID); err != nil {
		return err
	}

	data, err := toFields(patch)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	if err := s.store.SetDoc(ctx, db.Doc(profilesCollection, accountID), data, db.Merge()); err != nil {
		return fmt.Errorf("save profile %s: %w", accountID, err)
	}
	if err := s.cache.Invalidate(ctx, cache.ProfileKey(accountID)); err != nil {
		s.logger.Warn("failed to invalidate profile cache", "account_id", accountID, "error", err)
	}

	s.logger.Info("business profile saved", "account_id", accountID, "fields", len(data))
	return nil
}

// toFields flattens v into its top-level JSON fields, honouring omitempty.
func toFields(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
