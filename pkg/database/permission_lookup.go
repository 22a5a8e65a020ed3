package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/komodo-run/komodo-core/pkg/models"
)

// basePermissionDoc projects only the one field every resource kind's
// document shares, letting BasePermission stay kind-agnostic despite
// Resource being generic over Config/Info.
type basePermissionDoc struct {
	BasePermission models.Level `bson:"base_permission"`
}

// BasePermission implements pkg/permission.ResourceLookup without needing
// the Config/Info type parameters GetResource requires.
func (c *Client) BasePermission(ctx context.Context, target models.ResourceTarget) (models.Level, error) {
	var doc basePermissionDoc
	opts := options.FindOne().SetProjection(bson.M{"base_permission": 1})
	err := c.Resources(target.Kind).FindOne(ctx, bson.M{"_id": target.ID}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return models.LevelNone, nil
	}
	if err != nil {
		return models.LevelNone, err
	}
	return doc.BasePermission, nil
}

// GroupsForUser implements pkg/permission.GroupLookup.
func (c *Client) GroupsForUser(ctx context.Context, userID string) ([]models.UserGroup, error) {
	cur, err := c.userGroups().Find(ctx, bson.M{"users": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var groups []models.UserGroup
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// PermissionsForTarget implements pkg/permission.PermissionLookup.
func (c *Client) PermissionsForTarget(ctx context.Context, target models.ResourceTarget, subjects []models.UserTarget) ([]models.Permission, error) {
	return c.GetPermissionsForTarget(ctx, target, subjects)
}
