package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Istiyak4099/Airdrop/cache"
	"github.com/Istiyak4099/Airdrop/db"
	"github.com/Istiyak4099/Airdrop/models"
)

const pagesCollection = "facebook_pages"

var (
	// ErrUnknownPage means no credentials are stored for the page id.
	ErrUnknownPage = errors.New("unknown page")
	// ErrInvalidID is returned for ids that are empty or contain a path separator.
	ErrInvalidID = errors.New("invalid id")
)

// checkID rejects ids that would not map to exactly one path segment.
func checkID(kind, id string) error {
	if id == "" || strings.Contains(id, "/") {
		return fmt.Errorf("%w: %s %q", ErrInvalidID, kind, id)
	}
	return nil
}

type PageService struct {
	store  db.Store
	cache  *cache.Cache
	logger *slog.Logger
	now    func() time.Time
}

func NewPageService(store db.Store, c *cache.Cache, logger *slog.Logger) *PageService {
	return &PageService{store: store, cache: c, logger: logger, now: time.Now}
}

// Lookup returns the credentials of a connected page, or ErrUnknownPage.
func (s *PageService) Lookup(ctx context.Context, pageID string) (*models.PageCredential, error) {
	if err := checkID("page", pageID); err != nil {
		return nil, err
	}

	cred, err := cache.GetOrLoad(ctx, s.cache, cache.PageKey(pageID), func(ctx context.Context) (models.PageCredential, error) {
		var cred models.PageCredential
		err := s.store.GetDoc(ctx, db.Doc(pagesCollection, pageID), &cred)
		if errors.Is(err, db.ErrNotFound) {
			return cred, ErrUnknownPage
		}
		if err != nil {
			return cred, fmt.Errorf("get page %s: %w", pageID, err)
		}
		return cred, nil
	})
	if err != nil {
		return nil, err
	}

	if cred.PageID == "" {
		cred.PageID = pageID
	}
	cred.OwnerAccountID = cred.Owner()
	if cred.PageAccessToken == "" || cred.OwnerAccountID == "" {
		return nil, fmt.Errorf("page %s has incomplete credentials", pageID)
	}
	return &cred, nil
}

// Save merges cred into the page document and drops any cached copy.
func (s *PageService) Save(ctx context.Context, cred models.PageCredential) error {
	if err := checkID("page", cred.PageID); err != nil {
		return err
	}
	if err := checkID("account", cred.OwnerAccountID); err != nil {
		return err
	}

	data := map[string]any{
		"pageId":          cred.PageID,
		"pageAccessToken": cred.PageAccessToken,
		"ownerAccountId":  cred.OwnerAccountID,
		"updatedAt":       s.now().UTC(),
	}
	if cred.PageName != "" {
		data["pageName"] = cred.PageName
	}

	if err := s.store.SetDoc(ctx, db.Doc(pagesCollection, cred.PageID), data, db.Merge()); err != nil {
		return fmt.Errorf("save page %s: %w", cred.PageID, err)
	}
	if err := s.cache.Invalidate(ctx, cache.PageKey(cred.PageID)); err != nil {
		s.logger.Warn("failed to invalidate page cache", "page_id", cred.PageID, "error", err)
	}

	s.logger.Info("page credentials stored", "page_id", cred.PageID, "owner_account_id", cred.OwnerAccountID)
	return nil
}
