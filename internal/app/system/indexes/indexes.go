// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.

The unique indexes here are load-bearing correctness, not tuning: they close
the check-then-act races on duplicate registration, double voting, and
double story submission.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureCauses(ctx, db); err != nil {
		problems = append(problems, "causes: "+err.Error())
	}
	if err := ensureVotes(ctx, db); err != nil {
		problems = append(problems, "votes: "+err.Error())
	}
	if err := ensureDonations(ctx, db); err != nil {
		problems = append(problems, "donations: "+err.Error())
	}
	if err := ensureCauseFollowers(ctx, db); err != nil {
		problems = append(problems, "cause_followers: "+err.Error())
	}
	if err := ensureSuccessStories(ctx, db); err != nil {
		problems = append(problems, "success_stories: "+err.Error())
	}
	if err := ensureReferenceData(ctx, db); err != nil {
		problems = append(problems, "reference data: "+err.Error())
	}
	if err := ensureNewsletter(ctx, db); err != nil {
		problems = append(problems, "newsletter_subscriptions: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			if m.Options.Unique != nil {
				desiredUnique = m.Options.Unique
			}
		}
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()

		existing, err := loadExisting(ctx, coll)
		if err != nil {
			zap.L().Warn("listing existing indexes failed",
				zap.String("collection", coll.Name()),
				zap.Error(err))
		}

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) {
				// Same keys and options: align the name if needed, else reuse.
				if desiredName != "" && ex.Name != desiredName {
					if err := recreate(ctx, coll, ex.Name, m); err != nil {
						errs = append(errs, fmt.Sprintf("%s(%s): rename: %v", coll.Name(), desiredName, err))
						continue
					}
					zap.L().Info("index renamed",
						zap.String("collection", coll.Name()),
						zap.String("from", ex.Name),
						zap.String("to", desiredName),
						zap.String("took", time.Since(start).String()))
					continue
				}
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig))
				continue
			}

			// Options mismatch (e.g. upgrading to unique). Drop & recreate.
			if err := recreate(ctx, coll, ex.Name, m); err != nil {
				errs = append(errs, describeEnsureErr(coll, desiredName, desiredSig, desiredUnique, err))
				continue
			}
			zap.L().Info("index dropped and recreated",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.String("took", time.Since(start).String()))
			continue
		}

		// No existing index with the same keys: create it.
		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isOptionsConflictErr(err) {
				// Lost a race with a concurrent ensure, or a same-key index
				// under another name appeared. Reconcile on the next pass.
				zap.L().Warn("index options conflict, leaving existing index in place",
					zap.String("collection", coll.Name()),
					zap.String("name", desiredName),
					zap.String("keys", desiredSig))
				continue
			}
			errs = append(errs, describeEnsureErr(coll, desiredName, desiredSig, desiredUnique, err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func loadExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing, cur.Err()
}

func recreate(ctx context.Context, coll *mongo.Collection, oldName string, m mongo.IndexModel) error {
	if _, err := coll.Indexes().DropOne(ctx, oldName); err != nil {
		return fmt.Errorf("drop %s: %w", oldName, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	return nil
}

func describeEnsureErr(coll *mongo.Collection, name, sig string, unique *bool, err error) string {
	if isDuplicateKeyErr(err) && unique != nil && *unique {
		helper := ""
		if coll.Name() == "users" && strings.Contains(sig, "email:1") {
			helper = " — duplicates exist on users.email. Example finder:\n" +
				`db.users.aggregate([{ $group: { _id: "$email", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`
		}
		return fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)%s", coll.Name(), name, helper)
	}
	return fmt.Sprintf("%s(%s): %v", coll.Name(), name, err)
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                             */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One account per e-mail, globally. Registration relies on this.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},

		// Moderator routing: roles is an array, so this is a multikey index
		// serving "roles contains Moderator AND roles contains <category>".
		{
			Keys:    bson.D{{Key: "roles", Value: 1}},
			Options: options.Index().SetName("idx_users_roles"),
		},

		// Folded-name lookups for admin screens.
		{
			Keys:    bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_fullnameci_id"),
		},

		// One-time token lookups hit these paths directly.
		{
			Keys:    bson.D{{Key: "verify_token.token", Value: 1}},
			Options: options.Index().SetName("idx_users_verify_token").SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "reset_token.token", Value: 1}},
			Options: options.Index().SetName("idx_users_reset_token").SetSparse(true),
		},
	})
}

func ensureCauses(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("causes")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Public listings: approved causes, optionally narrowed by category,
		// sorted oldest-first. {state, category, created_at} serves both the
		// all-approved and per-category paths via prefix use.
		{
			Keys: bson.D{
				{Key: "isApproved", Value: 1},
				{Key: "category", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("idx_causes_state_category_created"),
		},

		// "My causes" listing.
		{
			Keys:    bson.D{{Key: "created_by", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_causes_creator_created"),
		},

		// One-time token lookups.
		{
			Keys:    bson.D{{Key: "reason_view_token.token", Value: 1}},
			Options: options.Index().SetName("idx_causes_reason_token").SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "success_story_token.token", Value: 1}},
			Options: options.Index().SetName("idx_causes_story_token").SetSparse(true),
		},
	})
}

func ensureVotes(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("votes")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One vote per (voter, cause). The vote endpoint depends on this to
		// refuse concurrent duplicates.
		{
			Keys:    bson.D{{Key: "voter_id", Value: 1}, {Key: "cause_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_votes_voter_cause"),
		},
		{
			Keys:    bson.D{{Key: "cause_id", Value: 1}},
			Options: options.Index().SetName("idx_votes_cause"),
		},
	})
}

func ensureDonations(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("donations")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "cause_id", Value: 1}, {Key: "donated_at", Value: 1}},
			Options: options.Index().SetName("idx_donations_cause_donated"),
		},
		{
			Keys:    bson.D{{Key: "donor_id", Value: 1}},
			Options: options.Index().SetName("idx_donations_donor").SetSparse(true),
		},
	})
}

func ensureCauseFollowers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("cause_followers")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Following is idempotent because re-inserts collide here.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "cause_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_followers_user_cause"),
		},
		{
			Keys:    bson.D{{Key: "cause_id", Value: 1}},
			Options: options.Index().SetName("idx_followers_cause"),
		},
	})
}

func ensureSuccessStories(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("success_stories")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// At most one story per cause.
		{
			Keys:    bson.D{{Key: "cause_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_stories_cause"),
		},
	})
}

func ensureReferenceData(ctx context.Context, db *mongo.Database) error {
	sets := []struct {
		coll  string
		field string
		name  string
	}{
		{"roles", "role", "uniq_roles_role"},
		{"cause_categories", "category_name", "uniq_categories_name"},
		{"banks", "bank_name", "uniq_banks_name"},
		{"account_types", "account_type", "uniq_account_types_name"},
	}
	var errs []string
	for _, s := range sets {
		err := ensureIndexSet(ctx, db.Collection(s.coll), []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: s.field, Value: 1}},
				Options: options.Index().SetUnique(true).SetName(s.name),
			},
		})
		if err != nil {
			errs = append(errs, s.coll+": "+err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func ensureNewsletter(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("newsletter_subscriptions")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Subscribe is idempotent because duplicates collide here.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_newsletter_email"),
		},
	})
}
