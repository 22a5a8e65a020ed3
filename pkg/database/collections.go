package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/komodo-run/komodo-core/pkg/models"
)

// Collection names for the non-resource documents. Resource kind
// collections come from Kind.Collection() instead.
const (
	collUpdates     = "updates"
	collAlerts      = "alerts"
	collPermissions = "permissions"
	collVariables   = "variables"
	collTags        = "tags"
	collUsers       = "users"
	collUserGroups  = "user_groups"
)

func (c *Client) updates() *mongo.Collection     { return c.db.Collection(collUpdates) }
func (c *Client) alerts() *mongo.Collection      { return c.db.Collection(collAlerts) }
func (c *Client) permissions() *mongo.Collection { return c.db.Collection(collPermissions) }
func (c *Client) variables() *mongo.Collection   { return c.db.Collection(collVariables) }
func (c *Client) tags() *mongo.Collection        { return c.db.Collection(collTags) }
func (c *Client) users() *mongo.Collection       { return c.db.Collection(collUsers) }
func (c *Client) userGroups() *mongo.Collection  { return c.db.Collection(collUserGroups) }

// Resources returns the collection backing a given resource kind, used by
// pkg/registry to stay generic over all eleven kinds.
func (c *Client) Resources(kind models.Kind) *mongo.Collection {
	return c.db.Collection(kind.Collection())
}

// InsertUpdate implements pkg/update.Store.
func (c *Client) InsertUpdate(ctx context.Context, u *models.Update) error {
	_, err := c.updates().InsertOne(ctx, u)
	return err
}

// SaveUpdate implements pkg/update.Store.
func (c *Client) SaveUpdate(ctx context.Context, u *models.Update) error {
	_, err := c.updates().ReplaceOne(ctx, bson.M{"_id": u.ID}, u, options.Replace().SetUpsert(true))
	return err
}

// GetUpdate implements pkg/update.Store.
func (c *Client) GetUpdate(ctx context.Context, id string) (*models.Update, error) {
	var u models.Update
	err := c.updates().FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("update %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// InProgressUpdates returns every Update left InProgress, e.g. by a prior
// process that never finalized them. Used on startup to reconcile the
// journal: see pkg/update.RecoverIncomplete.
func (c *Client) InProgressUpdates(ctx context.Context) ([]models.Update, error) {
	cur, err := c.updates().Find(ctx, bson.M{"status": models.UpdateStatusInProgress})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Update
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertAlert persists a new Alert.
func (c *Client) InsertAlert(ctx context.Context, a *models.Alert) error {
	_, err := c.alerts().InsertOne(ctx, a)
	return err
}

// SaveAlert upserts an Alert, used to mark a prior alert resolved.
func (c *Client) SaveAlert(ctx context.Context, a *models.Alert) error {
	_, err := c.alerts().ReplaceOne(ctx, bson.M{"_id": a.ID}, a, options.Replace().SetUpsert(true))
	return err
}

// FindUnresolvedAlert looks up the most recent unresolved alert for a
// (target, variant) pair, used by the dedup rule
func (c *Client) FindUnresolvedAlert(ctx context.Context, target models.ResourceTarget, variant models.AlertVariant) (*models.Alert, error) {
	var a models.Alert
	filter := bson.M{"target": target, "variant": variant, "resolved": false}
	opts := options.FindOne().SetSort(bson.M{"ts": -1})
	err := c.alerts().FindOne(ctx, filter, opts).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetUser fetches a user by id.
func (c *Client) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := c.users().FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("user %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserGroups fetches the UserGroup documents whose ids are given, used
// to resolve a user's memberships for the permission engine.
func (c *Client) GetUserGroups(ctx context.Context, ids []string) ([]models.UserGroup, error) {
	cur, err := c.userGroups().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
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

// GetVariable fetches a variable by name.
func (c *Client) GetVariable(ctx context.Context, name string) (*models.Variable, error) {
	var v models.Variable
	err := c.variables().FindOne(ctx, bson.M{"_id": name}).Decode(&v)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("variable %s not found", name)
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetPermissionsForTarget implements pkg/permission.PermissionLookup.
func (c *Client) GetPermissionsForTarget(ctx context.Context, target models.ResourceTarget, subjects []models.UserTarget) ([]models.Permission, error) {
	cur, err := c.permissions().Find(ctx, bson.M{
		"resource_target": target,
		"user_target":     bson.M{"$in": subjects},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var perms []models.Permission
	if err := cur.All(ctx, &perms); err != nil {
		return nil, err
	}
	return perms, nil
}
