package entities

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names in the Teletale database
const (
	CollectionDevices      = "Devices"
	CollectionBookings     = "bookings"
	CollectionTestimonials = "testimonials"
	CollectionUsers        = "users"
)

// RoleAdmin is the users.role value that grants admin status
const RoleAdmin = "admin"

var (
	ErrInvalidID        = errors.New("invalid document id")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrStoreUnavailable = errors.New("document store unavailable")
	ErrImmutableField   = errors.New("update would modify the immutable field _id")
)

// Document is a schema-less record as stored in a collection
type Document map[string]interface{}

// Filter holds top-level equality conditions. A nil value matches documents
// where the field is missing or null.
type Filter map[string]interface{}

// ByID returns a filter on the document _id
func ByID(id primitive.ObjectID) Filter {
	return Filter{"_id": id}
}

// ParseID converts a hex path parameter into an ObjectID
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, hex)
	}
	return id, nil
}

// InsertResult acknowledges a single insert
type InsertResult struct {
	Acknowledged bool        `json:"acknowledged"`
	InsertedID   interface{} `json:"insertedId"`
}

// UpdateResult acknowledges a single update, upsert included
type UpdateResult struct {
	Acknowledged  bool        `json:"acknowledged"`
	MatchedCount  int64       `json:"matchedCount"`
	ModifiedCount int64       `json:"modifiedCount"`
	UpsertedCount int64       `json:"upsertedCount"`
	UpsertedID    interface{} `json:"upsertedId"`
}

// DeleteResult acknowledges a single delete
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// AdminStatus is the role check answer for a user email
type AdminStatus struct {
	Admin bool `json:"admin"`
}

// IsAdmin reports whether a user document carries the admin role.
// A nil user is not an admin.
func IsAdmin(user Document) bool {
	role, _ := user["role"].(string)
	return role == RoleAdmin
}
