package mongo

import (
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/sakif/profile-dashboard/internal/query"
)

// FilterDocument translates f into a MongoDB query document. It matches at
// least every profile f.Match accepts; callers still re-check with Match.
func FilterDocument(f query.Filter) bson.M {
	doc := bson.M{}

	eq := func(path, value string) {
		if value != "" {
			doc[path] = value
		}
	}
	switch values := f.CategoryValues(); len(values) {
	case 0:
	case 1:
		doc["ai_profile.user_category"] = values[0]
	default:
		// nil also matches documents where the field is missing.
		in := bson.A{}
		for _, v := range values {
			in = append(in, v)
		}
		doc["ai_profile.user_category"] = bson.M{"$in": append(in, nil)}
	}
	eq("ai_profile.user_subcategory", f.Subcategory)
	eq("ai_profile.positioning.industry", f.Industry)
	eq("ai_profile.positioning.platform", f.Platform)
	eq("ai_profile.business_potential.stage", f.Stage)

	switch {
	case f.MinScore > 0:
		doc["ai_profile.business_potential.score"] = bson.M{"$gte": f.MinScore}
	case f.RequiresProfile():
		doc["ai_profile"] = bson.M{"$type": "object"}
	}

	if f.Start != nil || f.End != nil {
		rng := bson.M{}
		if f.Start != nil {
			rng["$gte"] = *f.Start
		}
		if f.End != nil {
			rng["$lte"] = *f.End
		}
		doc["ai_profile.analyzed_at"] = rng
	}

	email := bson.M{}
	if f.EmailContains != "" {
		email["$regex"] = bson.Regex{Pattern: regexp.QuoteMeta(f.EmailContains), Options: "i"}
	}
	if len(f.ExcludedEmails) > 0 {
		email["$nin"] = f.ExcludedEmails
	}
	if len(email) > 0 {
		doc["user_email"] = email
	}

	return doc
}

// pendingDocument is the ListPending selector.
func pendingDocument(email string, force bool) bson.M {
	switch {
	case email != "":
		return bson.M{"user_email": email}
	case force:
		return bson.M{}
	default:
		// Matches both a missing field and an explicit null.
		return bson.M{"ai_profile": nil}
	}
}
