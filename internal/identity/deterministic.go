package identity

import (
	"strconv"
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Keys are prefixed per entity kind so two kinds never collide.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// RepositoryConfigUUID is the primary key of a repository's persisted
// governance config. Repository names are case-insensitive on GitHub.
func RepositoryConfigUUID(repoFullName string) uuid.UUID {
	return UUID("docbot:repository_config:" + strings.ToLower(strings.TrimSpace(repoFullName)))
}

// CrossDomainRuleUUID identifies the n-th rule synced for a repository.
func CrossDomainRuleUUID(configID uuid.UUID, pattern string, position int) uuid.UUID {
	return UUID("docbot:cross_domain_rule:" + configID.String() + ":" + strings.TrimSpace(pattern) + ":" + strconv.Itoa(position))
}

// DeliveryUUID normalises a webhook delivery id into a stable UUID for event
// payloads. GitHub already sends UUIDs; anything else is hashed.
func DeliveryUUID(deliveryID string) uuid.UUID {
	trimmed := strings.TrimSpace(deliveryID)
	if parsed, err := uuid.Parse(trimmed); err == nil {
		return parsed
	}
	return UUID("docbot:delivery:" + trimmed)
}
