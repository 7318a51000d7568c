package auth

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoUserStore keeps users in a MongoDB collection with unique indexes on
// username and email, so duplicates are enforced by the database and not by
// racy read-then-write checks.
type MongoUserStore struct {
	cli  *mongo.Client
	coll *mongo.Collection
}

type userDoc struct {
	Username   string    `bson:"username"`
	Email      string    `bson:"email"`
	PassHash   string    `bson:"password"`
	Roles      []Role    `bson:"roles"`
	Creation   time.Time `bson:"creation"`
	LastUpdate time.Time `bson:"last_update"`
}

func NewMongoUserStore(ctx context.Context, uri, db, coll string) (*MongoUserStore, error) {
	if uri == "" {
		return nil, errors.New("auth: mongo uri is empty")
	}
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	cli, err := mongo.Connect(dialCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}

	c := cli.Database(db).Collection(coll)

	_, _ = c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	_, _ = c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &MongoUserStore{cli: cli, coll: c}, nil
}

func (s *MongoUserStore) Close(ctx context.Context) error {
	return s.cli.Disconnect(ctx)
}

func isDuplicateKey(err error) bool {
	var wex mongo.WriteException
	if errors.As(err, &wex) {
		for _, we := range wex.WriteErrors {
			if we.Code == 11000 {
				return true
			}
		}
	}
	return false
}

func (s *MongoUserStore) Add(u *User) error {
	now := time.Now().UTC()
	creation := u.Creation
	if creation.IsZero() {
		creation = now
	}
	doc := userDoc{
		Username:   u.Username,
		Email:      normalizeEmail(u.Email),
		PassHash:   u.PassHash,
		Roles:      u.Roles,
		Creation:   creation,
		LastUpdate: now,
	}
	_, err := s.coll.InsertOne(context.Background(), doc)
	if isDuplicateKey(err) {
		return ErrDuplicateUser
	}
	return err
}

func (s *MongoUserStore) FindByUsername(username string) (*User, error) {
	return s.findOne(bson.M{"username": username})
}

func (s *MongoUserStore) FindByEmail(email string) (*User, error) {
	return s.findOne(bson.M{"email": normalizeEmail(email)})
}

func (s *MongoUserStore) findOne(filter any) (*User, error) {
	var doc userDoc
	err := s.coll.FindOne(context.Background(), filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toUser(), nil
}

func (d *userDoc) toUser() *User {
	return &User{
		Username:   d.Username,
		Email:      d.Email,
		PassHash:   d.PassHash,
		Roles:      d.Roles,
		Creation:   d.Creation,
		LastUpdate: d.LastUpdate,
	}
}

// List returns users sorted ascending by username. limit<=0 means no limit.
func (s *MongoUserStore) List(limit, skip int64) ([]*User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "username", Value: 1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	if skip > 0 {
		opts = opts.SetSkip(skip)
	}

	ctx := context.Background()
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*User
	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toUser())
	}
	return out, cur.Err()
}

func (s *MongoUserStore) Count() (int64, error) {
	return s.coll.CountDocuments(context.Background(), bson.M{})
}

func (s *MongoUserStore) CountWithRole(role Role) (int64, error) {
	return s.coll.CountDocuments(context.Background(), bson.M{"roles": role})
}

func (s *MongoUserStore) Update(username string, upd UserUpdate) error {
	res, err := s.coll.UpdateOne(
		context.Background(),
		bson.M{"username": username},
		bson.M{"$set": bson.M{
			"username":    upd.Username,
			"email":       normalizeEmail(upd.Email),
			"roles":       upd.Roles,
			"last_update": time.Now().UTC(),
		}},
	)
	if isDuplicateKey(err) {
		return ErrDuplicateUser
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *MongoUserStore) UpdatePassword(username, newHash string) error {
	res, err := s.coll.UpdateOne(
		context.Background(),
		bson.M{"username": username},
		bson.M{"$set": bson.M{
			"password":    newHash,
			"last_update": time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *MongoUserStore) Delete(username string) error {
	res, err := s.coll.DeleteOne(context.Background(), bson.M{"username": username})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
