// Package db provides the MongoDB-backed credit ledger. It is the durable
// counterpart of ledger.MemoryStore: every debit is a single conditional
// document update, so the balance invariant holds under concurrent access
// without any process-level locking.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/zkerkeb-class/payment-services-MalicknND/ledger"
)

const creditsCollectionName = "credits"

// CreditAccount is the stored per-user ledger document.
type CreditAccount struct {
	UserID    string    `bson:"_id" json:"userId"`
	Balance   int64     `bson:"balance" json:"balance"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// MongoStorage uses an external MongoDB service for storing the credit ledger.
type MongoStorage struct {
	client  *mongo.Client
	credits *mongo.Collection
}

// New connects to MongoDB and initializes the ledger collection.
func New(url, database string) (*MongoStorage, error) {
	if url == "" {
		return nil, fmt.Errorf("mongo URL is not defined")
	}
	if database == "" {
		return nil, fmt.Errorf("mongo database is not defined")
	}
	zap.L().Info("connecting to mongodb", zap.String("url", url), zap.String("database", database))
	// preparing connection
	opts := options.Client()
	opts.ApplyURI(url)
	opts.SetMaxConnecting(200)
	timeout := time.Second * 10
	opts.ConnectTimeout = &timeout
	// create a new client with the connection options
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to mongodb: %w", err)
	}
	// check if the connection is successful
	ctx, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("cannot connect to mongodb: %w", err)
	}

	ms := &MongoStorage{
		client:  client,
		credits: client.Database(database).Collection(creditsCollectionName),
	}
	return ms, nil
}

// Close disconnects the underlying MongoDB client.
func (ms *MongoStorage) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ms.client.Disconnect(ctx); err != nil {
		zap.L().Warn("mongodb disconnect failed", zap.Error(err))
	}
}

// Reset drops the ledger collection. Used by tests.
func (ms *MongoStorage) Reset() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return ms.credits.Drop(ctx)
}

// Balance returns the current balance for the user, 0 for unseen users.
func (ms *MongoStorage) Balance(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var account CreditAccount
	err := ms.credits.FindOne(ctx, bson.M{"_id": userID}).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cannot read balance for user %s: %w", userID, err)
	}
	return account.Balance, nil
}

// Credit adds amount to the user's balance, creating the account on first
// mutation, and returns the new balance.
func (ms *MongoStorage) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount < 1 {
		return 0, ledger.ErrInvalidAmount
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	update := bson.M{
		"$inc": bson.M{"balance": amount},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	var account CreditAccount
	if err := ms.credits.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&account); err != nil {
		return 0, fmt.Errorf("cannot credit user %s: %w", userID, err)
	}
	return account.Balance, nil
}

// Debit subtracts amount from the user's balance as a single conditional
// update: the filter requires balance >= amount, so the read-check-write
// cycle is atomic on the server and the balance can never go negative.
func (ms *MongoStorage) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount < 1 {
		return 0, ledger.ErrInvalidAmount
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"_id":     userID,
		"balance": bson.M{"$gte": amount},
	}
	update := bson.M{
		"$inc": bson.M{"balance": -amount},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var account CreditAccount
	err := ms.credits.FindOneAndUpdate(ctx, filter, update, opts).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// either the account does not exist or the balance is short;
		// both surface as insufficient funds with the observed balance
		balance, berr := ms.Balance(ctx, userID)
		if berr != nil {
			return 0, berr
		}
		return 0, &ledger.InsufficientFundsError{Balance: balance, Required: amount}
	}
	if err != nil {
		return 0, fmt.Errorf("cannot debit user %s: %w", userID, err)
	}
	return account.Balance, nil
}
