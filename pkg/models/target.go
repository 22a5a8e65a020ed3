package models

import "fmt"

// ResourceTarget is the tagged-union {type, id} reference used throughout the
// wire contract (Update.target, Alert.target, Permission.resource_target,
// ExecuteRequest payloads that reference a resource by name).
type ResourceTarget struct {
	Kind Kind   `json:"type"`
	ID   string `json:"id"`
}

func NewTarget(kind Kind, id string) ResourceTarget {
	return ResourceTarget{Kind: kind, ID: id}
}

func (t ResourceTarget) String() string {
	return fmt.Sprintf("%s(%s)", t.Kind, t.ID)
}

// UserTarget is the subject half of a Permission: either a User or a
// UserGroup, identified the same {kind, id} shape as ResourceTarget so a
// Permission can be stored as a flat pair of tagged unions.
type SubjectKind string

const (
	SubjectUser      SubjectKind = "User"
	SubjectUserGroup SubjectKind = "UserGroup"
)

type UserTarget struct {
	Kind SubjectKind `json:"type"`
	ID   string      `json:"id"`
}

func NewUserTarget(id string) UserTarget      { return UserTarget{Kind: SubjectUser, ID: id} }
func NewGroupTarget(id string) UserTarget     { return UserTarget{Kind: SubjectUserGroup, ID: id} }
func (t UserTarget) IsUser() bool             { return t.Kind == SubjectUser }
func (t UserTarget) IsGroup() bool            { return t.Kind == SubjectUserGroup }
