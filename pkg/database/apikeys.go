package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/komodo-run/komodo-core/pkg/models"
)

const collApiKeys = "api_keys"

func (c *Client) apiKeys() *mongo.Collection { return c.db.Collection(collApiKeys) }

// InsertApiKey persists a freshly minted key/secret pair.
func (c *Client) InsertApiKey(ctx context.Context, k *models.ApiKey) error {
	_, err := c.apiKeys().InsertOne(ctx, k)
	return err
}

// DeleteApiKey removes a key, used once an Action run completes to revoke
// the credential the script ran under.
func (c *Client) DeleteApiKey(ctx context.Context, key string) error {
	_, err := c.apiKeys().DeleteOne(ctx, bson.M{"_id": key})
	return err
}

// GetApiKeyUser resolves an api-key auth header to the user it was minted
// for, used by pkg/api's auth middleware.
func (c *Client) GetApiKeyUser(ctx context.Context, key string) (*models.ApiKey, error) {
	var k models.ApiKey
	err := c.apiKeys().FindOne(ctx, bson.M{"_id": key}).Decode(&k)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound{ID: key}
	}
	if err != nil {
		return nil, err
	}
	return &k, nil
}
