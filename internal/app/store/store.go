/*
Package store provides the durable backends for the registered-user mapping.

Every backend stores the complete mapping and rewrites it wholesale on Save. The JSON
file backend is the default; Postgres and S3-compatible object storage are available
for deployments without a persistent local disk.
*/
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"neoslink/internal/app/user"
	"neoslink/internal/configs"
)

// FileName is the name of the registry document on disk and the default object key.
const FileName = "registered_users.json"

// Backend is a user.Store holding external resources.
type Backend interface {
	user.Store
	Close() error
}

// Open returns the backend selected by cfg.RegistryBackend.
func Open(ctx context.Context, cfg *configs.AppConfig) (Backend, error) {
	switch cfg.RegistryBackend {
	case configs.BackendPostgres:
		return NewPostgresStore(ctx, cfg.DatabaseDSN)
	case configs.BackendS3:
		return NewS3Store(ctx, S3Config{
			BucketName:      cfg.S3BucketName,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Key:             cfg.S3Key,
		})
	case configs.BackendFile, "":
		return NewFileStore(cfg.FileDir), nil
	default:
		return nil, fmt.Errorf("unknown registry backend %q", cfg.RegistryBackend)
	}
}

// encode renders users the way the registry file has always been written: four-space indented JSON.
func encode(users map[string]user.User) ([]byte, error) {
	if users == nil {
		users = map[string]user.User{}
	}
	data, err := json.MarshalIndent(users, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode registered users: %w", err)
	}
	return data, nil
}

func decode(data []byte) (map[string]user.User, error) {
	users := make(map[string]user.User)
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("decode registered users: %w", err)
	}
	return users, nil
}
