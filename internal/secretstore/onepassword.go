package secretstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/1Password/connect-sdk-go/connect"
	"github.com/1Password/connect-sdk-go/onepassword"
)

// onePasswordStore keeps one login item per device in a single vault,
// titled by device id, with the secret in a concealed field.
type onePasswordStore struct {
	client  connect.Client
	vaultID string
	logger  *slog.Logger

	mu    sync.RWMutex
	cache map[string]string
}

func newOnePasswordStore(cfg Config, logger *slog.Logger) (*onePasswordStore, error) {
	if cfg.OnePasswordHost == "" || cfg.OnePasswordToken == "" || cfg.OnePasswordVaultID == "" {
		return nil, fmt.Errorf("1password configuration incomplete: host, token, and vault id are required")
	}
	client := connect.NewClientWithUserAgent(cfg.OnePasswordHost, cfg.OnePasswordToken, "trestle-coordinator")
	return &onePasswordStore{
		client:  client,
		vaultID: cfg.OnePasswordVaultID,
		logger:  logger,
		cache:   make(map[string]string),
	}, nil
}

func (s *onePasswordStore) itemTitle(deviceID string) string {
	return "trestle-panel-" + deviceID
}

func (s *onePasswordStore) Get(ctx context.Context, deviceID string) (string, bool, error) {
	s.mu.RLock()
	if secret, ok := s.cache[deviceID]; ok {
		s.mu.RUnlock()
		return secret, true, nil
	}
	s.mu.RUnlock()

	items, err := s.client.GetItemsByTitle(s.itemTitle(deviceID), s.vaultID)
	if err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("listing secret items: %w", err)
	}
	if len(items) == 0 {
		return "", false, nil
	}

	item, err := s.client.GetItem(items[0].ID, s.vaultID)
	if err != nil {
		return "", false, fmt.Errorf("getting secret item: %w", err)
	}
	for _, field := range item.Fields {
		if field.ID == "secret" {
			s.mu.Lock()
			s.cache[deviceID] = field.Value
			s.mu.Unlock()
			return field.Value, true, nil
		}
	}
	return "", false, nil
}

func (s *onePasswordStore) Put(ctx context.Context, deviceID, secret string) error {
	existing, err := s.client.GetItemsByTitle(s.itemTitle(deviceID), s.vaultID)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("finding existing secret item: %w", err)
	}

	item := &onepassword.Item{
		Title:    s.itemTitle(deviceID),
		Category: onepassword.Login,
		Vault:    onepassword.ItemVault{ID: s.vaultID},
		Fields: []*onepassword.ItemField{
			{ID: "secret", Label: "secret", Type: "CONCEALED", Value: secret},
		},
	}

	if len(existing) == 0 {
		if _, err := s.client.CreateItem(item, s.vaultID); err != nil {
			return fmt.Errorf("creating secret item: %w", err)
		}
	} else {
		item.ID = existing[0].ID
		if _, err := s.client.UpdateItem(item, s.vaultID); err != nil {
			return fmt.Errorf("updating secret item: %w", err)
		}
	}

	s.mu.Lock()
	s.cache[deviceID] = secret
	s.mu.Unlock()
	return nil
}

func (s *onePasswordStore) Delete(ctx context.Context, deviceID string) error {
	items, err := s.client.GetItemsByTitle(s.itemTitle(deviceID), s.vaultID)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("finding secret item to delete: %w", err)
	}
	for _, it := range items {
		if err := s.client.DeleteItem(&it, s.vaultID); err != nil {
			return fmt.Errorf("deleting secret item: %w", err)
		}
	}
	s.mu.Lock()
	delete(s.cache, deviceID)
	s.mu.Unlock()
	return nil
}

func (s *onePasswordStore) Close() error {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
	return nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "404") || strings.Contains(msg, "no items")
}
