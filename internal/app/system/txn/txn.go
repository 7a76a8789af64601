// Package txn runs multi-document writes inside a Mongo transaction when the
// deployment supports one, and falls back to plain sequential writes when it
// does not (standalone servers, some DocumentDB versions).
//
// Callers must keep their writes safe under the fallback: counters go through
// $inc and uniqueness through indexes, so the transaction is belt and
// suspenders, not the only line of defense.
package txn

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// WithTransaction executes fn transactionally against client. When the
// server rejects transactions as unsupported, fn is re-run once outside a
// session and a warning is logged.
func WithTransaction(ctx context.Context, client *mongo.Client, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			logFallback(log, err)
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		logFallback(log, err)
		return fn(ctx)
	}
	return err
}

func logFallback(log *zap.Logger, err error) {
	if log != nil {
		log.Warn("transactions unsupported on this deployment; applying writes without a session", zap.Error(err))
	}
}

// Server command codes that mean "transactions are not available here":
// 20 IllegalOperation wording on standalone, 51 IllegalOperation,
// 263 OperationNotSupportedInTransaction.
var notSupportedCodes = map[int32]bool{20: true, 51: true, 263: true}

// IsNotSupported reports whether err indicates the server cannot run
// transactions, as opposed to a transaction that legitimately failed.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	if cmdErr, ok := err.(mongo.CommandError); ok {
		return notSupportedCodes[cmdErr.Code]
	}

	s := strings.ToLower(err.Error())
	if strings.Contains(s, "illegal operation") {
		return true
	}
	if strings.Contains(s, "transaction") &&
		(strings.Contains(s, "replica set") || strings.Contains(s, "session")) {
		return true
	}
	if strings.Contains(s, "session") && strings.Contains(s, "not supported") {
		return true
	}
	return false
}
