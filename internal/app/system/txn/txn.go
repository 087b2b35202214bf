// Package txn runs MongoDB multi-document transactions.
//
// Transactions need a replica set or a sharded cluster. Run falls back to
// executing the function without a transaction when the deployment does not
// support them (a standalone mongod in development). RunStrict never falls
// back; callers whose invariants depend on atomicity use it.
package txn

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrUnsupported is returned by RunStrict when the deployment cannot run
// multi-document transactions.
var ErrUnsupported = errors.New("txn: transactions are not supported by this MongoDB deployment")

// Server error codes that mean "no transactions here".
const (
	codeIllegalOperation           = 20
	codeNoReplicationEnabled       = 51
	codeOperationNotSupportedInTxn = 263
)

// Run executes fn inside a transaction, or directly when transactions are
// not supported. fn receives the session context and must use it for every
// operation that belongs to the transaction.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	err := run(ctx, db, fn)
	if err == nil || !IsNotSupported(err) {
		return err
	}
	if log != nil {
		log.Warn("transactions unsupported, running without transaction", zap.Error(err))
	}
	return fn(ctx)
}

// RunStrict executes fn inside a transaction and fails with ErrUnsupported
// when the deployment cannot provide one.
func RunStrict(ctx context.Context, db *mongo.Database, fn func(ctx context.Context) error) error {
	err := run(ctx, db, fn)
	if err != nil && IsNotSupported(err) {
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return err
}

func run(ctx context.Context, db *mongo.Database, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// IsNotSupported reports whether err indicates that the server cannot run
// transactions. It recognizes the server codes and, for wrapped or driver
// side errors, messages that mention at least two telltale phrases.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case codeIllegalOperation, codeNoReplicationEnabled, codeOperationNotSupportedInTxn:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(msg, kw) {
			hits++
		}
	}
	return hits >= 2
}

// IsWriteConflict reports whether err is a server write conflict (code 112),
// which a concurrent transaction on the same document produces.
func IsWriteConflict(err error) bool {
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorCode(112)
	}
	return false
}

// CheckSupport asks the server whether it is a replica set member or a
// mongos router, which is what multi-document transactions require.
func CheckSupport(ctx context.Context, client *mongo.Client) error {
	var hello struct {
		SetName string `bson:"setName"`
		Msg     string `bson:"msg"`
	}
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		return fmt.Errorf("txn: hello: %w", err)
	}
	if hello.SetName == "" && hello.Msg != "isdbgrid" {
		return ErrUnsupported
	}
	return nil
}
