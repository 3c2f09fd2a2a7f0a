package service

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/keystone/internal/auth/domain"
	"github.com/aussiebroadwan/keystone/internal/auth/store"
	"github.com/aussiebroadwan/keystone/pkg/cryptox"
	"github.com/aussiebroadwan/keystone/pkg/idx"
	"github.com/aussiebroadwan/keystone/pkg/slogx"
	"github.com/samber/oops"
)

const (
	// APIKeyRandomLength is the random part of a key after "<env>_".
	APIKeyRandomLength = 25
	// APIKeySecretLength is the length of a generated secret.
	APIKeySecretLength = 35

	proofLength = 64 // hex sha256
)

// APIKeyService authenticates machine callers and administers their keys.
//
// Callers send "X-API-Key: <key>:<proof>" where proof is the hex SHA-256 of
// "key:secret". Only the proof is persisted, the secret is shown once at
// creation or reset.
type APIKeyService struct {
	Store store.Store
	Env   string // Key prefix, keys look like "<env>_xxxx"

	// Secure enables the check. When false every caller is let through,
	// which is what non-secure app modes run with.
	Secure bool

	Now func() time.Time
}

func (s *APIKeyService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *APIKeyService) prefix() string { return s.Env + "_" }

// Authenticate validates a raw header value. It returns a nil key and nil
// error when the service is not in secure mode.
func (s *APIKeyService) Authenticate(ctx context.Context, header string) (key *domain.APIKey, err error) {
	if !s.Secure {
		return nil, nil
	}
	defer func() { apiKeyChecks.WithLabelValues(outcome(err)).Inc() }()
	l := slogx.FromContext(ctx)

	// 1. Presence and prefix
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, ErrAPIKeyMissing
	}
	if !strings.HasPrefix(header, s.prefix()) {
		l.Info("api key with foreign prefix", slog.String("fingerprint", cryptox.FingerprintToken(header)))
		return nil, ErrAPIKeyMalformed
	}

	// 2. "<key>:<proof>" shape
	keyPart, proof, ok := strings.Cut(header, ":")
	if !ok || !validKey(keyPart, s.prefix()) || !validProof(proof) {
		l.Info("api key schema invalid", slog.String("fingerprint", cryptox.FingerprintToken(header)))
		return nil, ErrAPIKeySchemaInvalid
	}

	// 3. Lookup
	stored, err := s.Store.APIKeys().GetAPIKeyByKey(ctx, keyPart)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("unknown api key", slog.String("key", keyPart))
			return nil, ErrAPIKeyNotFound
		}
		return nil, oops.Code("STORE_FAILED").With("operation", "get api key").Wrap(err)
	}

	// 4. Flag and validity window
	if !stored.Usable(s.now()) {
		l.Info("inactive api key", slog.String("api_key_id", stored.ID))
		return nil, ErrAPIKeyInactive
	}

	// 5. Proof
	if !cryptox.EqualProof(strings.ToLower(proof), stored.Hash) {
		l.Warn("api key proof mismatch", slog.String("api_key_id", stored.ID))
		return nil, ErrAPIKeyInvalid
	}

	return &stored, nil
}

func validKey(key, prefix string) bool {
	random := strings.TrimPrefix(key, prefix)
	if len(random) != APIKeyRandomLength {
		return false
	}
	for i := 0; i < len(random); i++ {
		if !strings.ContainsRune(cryptox.Alphanumeric, rune(random[i])) {
			return false
		}
	}
	return true
}

func validProof(proof string) bool {
	if len(proof) != proofLength {
		return false
	}
	_, err := hex.DecodeString(proof)
	return err == nil
}

// APIKeyInput carries the editable fields of a key.
type APIKeyInput struct {
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
}

func (in APIKeyInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return oops.Code("INVALID_INPUT").Public("name is required").Wrap(ErrInvalidInput)
	}
	return validateWindow(in.StartDate, in.EndDate)
}

func validateWindow(start, end *time.Time) error {
	if start != nil && end != nil && !end.After(*start) {
		return oops.Code("INVALID_INPUT").Public("end_date must be after start_date").Wrap(ErrInvalidInput)
	}
	return nil
}

// Create generates a new key and secret. The secret is only returned here.
func (s *APIKeyService) Create(ctx context.Context, in APIKeyInput) (*domain.APIKeyWithSecret, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	random, err := cryptox.RandomString(APIKeyRandomLength, cryptox.Alphanumeric)
	if err != nil {
		return nil, oops.Code("KEY_GENERATION_FAILED").Wrap(err)
	}
	secret, err := cryptox.RandomString(APIKeySecretLength, cryptox.Alphanumeric)
	if err != nil {
		return nil, oops.Code("KEY_GENERATION_FAILED").Wrap(err)
	}

	now := s.now()
	key := domain.APIKey{
		ID:          idx.NewAt(now).String(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Key:         s.prefix() + random,
		IsActive:    true,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	key.Hash = cryptox.KeyProof(key.Key, secret)

	if err := s.Store.APIKeys().CreateAPIKey(ctx, key); err != nil {
		return nil, oops.Code("STORE_FAILED").With("operation", "create api key").Wrap(err)
	}

	slogx.FromContext(ctx).Info("api key created",
		slog.String("api_key_id", key.ID),
		slog.String("name", key.Name),
	)
	return &domain.APIKeyWithSecret{APIKey: key, Secret: secret}, nil
}

// Reset rotates the secret of an existing key, invalidating the old one.
func (s *APIKeyService) Reset(ctx context.Context, id string) (*domain.APIKeyWithSecret, error) {
	secret, err := cryptox.RandomString(APIKeySecretLength, cryptox.Alphanumeric)
	if err != nil {
		return nil, oops.Code("KEY_GENERATION_FAILED").Wrap(err)
	}

	var key domain.APIKey
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		key, err = tx.APIKeys().GetAPIKeyByID(ctx, id)
		if err != nil {
			return err
		}
		key.Hash = cryptox.KeyProof(key.Key, secret)
		return tx.APIKeys().UpdateAPIKeyHash(ctx, id, key.Hash)
	})
	if err != nil {
		return nil, s.mapErr(err, "reset api key")
	}

	slogx.FromContext(ctx).Info("api key secret reset", slog.String("api_key_id", id))
	return &domain.APIKeyWithSecret{APIKey: key, Secret: secret}, nil
}

func (s *APIKeyService) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.Store.APIKeys().SetAPIKeyActive(ctx, id, active); err != nil {
		return s.mapErr(err, "set api key active")
	}
	slogx.FromContext(ctx).Info("api key status changed",
		slog.String("api_key_id", id),
		slog.Bool("active", active),
	)
	return nil
}

// UpdateDates replaces the validity window. Nil clears a bound.
func (s *APIKeyService) UpdateDates(ctx context.Context, id string, start, end *time.Time) error {
	if err := validateWindow(start, end); err != nil {
		return err
	}
	if err := s.Store.APIKeys().UpdateAPIKeyDates(ctx, id, start, end); err != nil {
		return s.mapErr(err, "update api key dates")
	}
	return nil
}

func (s *APIKeyService) UpdateName(ctx context.Context, id, name, description string) error {
	if strings.TrimSpace(name) == "" {
		return oops.Code("INVALID_INPUT").Public("name is required").Wrap(ErrInvalidInput)
	}
	if err := s.Store.APIKeys().UpdateAPIKeyName(ctx, id, strings.TrimSpace(name), description); err != nil {
		return s.mapErr(err, "update api key name")
	}
	return nil
}

func (s *APIKeyService) Delete(ctx context.Context, id string) error {
	if err := s.Store.APIKeys().DeleteAPIKey(ctx, id); err != nil {
		return s.mapErr(err, "delete api key")
	}
	slogx.FromContext(ctx).Info("api key deleted", slog.String("api_key_id", id))
	return nil
}

func (s *APIKeyService) Get(ctx context.Context, id string) (domain.APIKey, error) {
	key, err := s.Store.APIKeys().GetAPIKeyByID(ctx, id)
	if err != nil {
		return domain.APIKey{}, s.mapErr(err, "get api key")
	}
	return key, nil
}

func (s *APIKeyService) List(ctx context.Context) ([]domain.APIKey, error) {
	keys, err := s.Store.APIKeys().ListAPIKeys(ctx)
	if err != nil {
		return nil, s.mapErr(err, "list api keys")
	}
	return keys, nil
}

func (s *APIKeyService) mapErr(err error, op string) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return oops.Code("STORE_FAILED").With("operation", op).Wrap(err)
}
