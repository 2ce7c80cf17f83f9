package services

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/pustak/pkg/apperr"
)

// parseID converts a hex id from the URL or token into an ObjectID.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperr.New(apperr.KindValidation, "Invalid id")
	}
	return oid, nil
}
