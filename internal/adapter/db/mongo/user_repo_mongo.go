package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"user-directory-service/internal/domain/user"
	apperrors "user-directory-service/pkg/errors"
)

// UserRepoMongo implements the Repository interface on a MongoDB collection.
type UserRepoMongo struct {
	coll *mongo.Collection
	log  *zap.Logger
}

// NewUserRepoMongo creates a repository backed by coll.
func NewUserRepoMongo(coll *mongo.Collection, log *zap.Logger) *UserRepoMongo {
	return &UserRepoMongo{coll: coll, log: log}
}

// userDocument is the stored shape of a user. Timestamps are kept raw so that
// documents written by other producers (BSON dates, timestamps, seconds
// objects) still decode.
type userDocument struct {
	ID                        bson.RawValue `bson:"_id"`
	Name                      string        `bson:"name"`
	Email                     string        `bson:"email"`
	TotalAverageWeightRatings float64       `bson:"totalAverageWeightRatings"`
	NumberOfRents             int64         `bson:"numberOfRents"`
	RecentlyActive            bson.RawValue `bson:"recentlyActive"`
	CreatedAt                 bson.RawValue `bson:"createdAt"`
	UpdatedAt                 bson.RawValue `bson:"updatedAt"`
}

func (d userDocument) toDomain() user.User {
	return user.User{
		ID:                        idString(d.ID),
		Name:                      d.Name,
		Email:                     d.Email,
		TotalAverageWeightRatings: d.TotalAverageWeightRatings,
		NumberOfRents:             d.NumberOfRents,
		RecentlyActive:            timestampFromRaw(d.RecentlyActive),
		CreatedAt:                 timestampFromRaw(d.CreatedAt),
		UpdatedAt:                 timestampFromRaw(d.UpdatedAt),
	}
}

// EnsureIndexes creates the compound indexes backing the field sort modes.
func (r *UserRepoMongo) EnsureIndexes(ctx context.Context) error {
	fields := []user.SortField{user.FieldRatings, user.FieldRents, user.FieldActivity}
	models := make([]mongo.IndexModel, len(fields))
	for i, f := range fields {
		models[i] = mongo.IndexModel{
			Keys:    bson.D{{Key: string(f), Value: -1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName(string(f) + "_desc_id_asc"),
		}
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts u. Hex identifiers are stored as ObjectIDs; an empty one gets a new ObjectID.
func (r *UserRepoMongo) Create(ctx context.Context, u *user.User) (string, error) {
	if u == nil {
		return "", errors.New("user cannot be nil")
	}

	var id any = primitive.NewObjectID()
	if u.ID != "" {
		id = idValue(u.ID)
	}

	doc := bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: u.Name},
		{Key: "email", Value: u.Email},
		{Key: "totalAverageWeightRatings", Value: u.TotalAverageWeightRatings},
		{Key: "numberOfRents", Value: u.NumberOfRents},
		{Key: "recentlyActive", Value: u.RecentlyActive.Millis()},
		{Key: "createdAt", Value: u.CreatedAt.Millis()},
		{Key: "updatedAt", Value: u.UpdatedAt.Millis()},
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		r.log.Error("failed to create user in mongo", zap.Error(err), zap.String("email", u.Email))
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	created := idOf(res.InsertedID)
	r.log.Info("user created in mongo", zap.String("id", created))
	return created, nil
}

func (r *UserRepoMongo) GetByID(ctx context.Context, id string) (*user.User, error) {
	var doc userDocument
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: idValue(id)}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%s", id))
		}
		r.log.Error("failed to get user from mongo", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u := doc.toDomain()
	return &u, nil
}

func (r *UserRepoMongo) Update(ctx context.Context, id string, f user.Fields) error {
	set := setDocument(f)
	if len(set) == 0 {
		return nil
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: idValue(id)}},
		bson.D{{Key: "$set", Value: set}},
	)
	if err != nil {
		r.log.Error("failed to update user in mongo", zap.Error(err), zap.String("id", id))
		return fmt.Errorf("failed to update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%s", id))
	}
	return nil
}

func (r *UserRepoMongo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: idValue(id)}})
	if err != nil {
		r.log.Error("failed to delete user in mongo", zap.Error(err), zap.String("id", id))
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%s", id))
	}

	r.log.Info("user deleted in mongo", zap.String("id", id))
	return nil
}

// ListAll scans the whole collection in _id order.
func (r *UserRepoMongo) ListAll(ctx context.Context) ([]user.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return r.find(ctx, bson.D{}, opts)
}

// ListOrdered runs a keyset query on field descending, _id ascending.
func (r *UserRepoMongo) ListOrdered(ctx context.Context, field user.SortField, afterID string, limit int) ([]user.User, error) {
	if limit <= 0 {
		return []user.User{}, nil
	}
	if _, ok := sortableFields[field]; !ok {
		return nil, fmt.Errorf("unsupported sort field %q", field)
	}

	filter, err := r.keysetFilter(ctx, field, afterID)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: string(field), Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

var sortableFields = map[user.SortField]struct{}{
	user.FieldRatings:  {},
	user.FieldRents:    {},
	user.FieldActivity: {},
}

// keysetFilter selects the documents that sort strictly after the cursor
// document. A missing cursor document selects everything.
func (r *UserRepoMongo) keysetFilter(ctx context.Context, field user.SortField, afterID string) (bson.D, error) {
	if afterID == "" {
		return bson.D{}, nil
	}

	var cursorDoc bson.Raw
	opts := options.FindOne().SetProjection(bson.D{{Key: string(field), Value: 1}})
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: idValue(afterID)}}, opts).Decode(&cursorDoc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.log.Debug("cursor document not found, listing from the start", zap.String("cursor", afterID))
			return bson.D{}, nil
		}
		return nil, fmt.Errorf("failed to load cursor document: %w", err)
	}

	var value any
	if v, err := cursorDoc.LookupErr(string(field)); err == nil {
		value = v
	}
	cursorID := cursorDoc.Lookup("_id")

	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: string(field), Value: bson.D{{Key: "$lt", Value: value}}}},
		bson.D{
			{Key: string(field), Value: value},
			{Key: "_id", Value: bson.D{{Key: "$gt", Value: cursorID}}},
		},
	}}}, nil
}

func (r *UserRepoMongo) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]user.User, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		r.log.Error("failed to list users from mongo", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]user.User, len(docs))
	for i, d := range docs {
		users[i] = d.toDomain()
	}
	return users, nil
}

func setDocument(f user.Fields) bson.D {
	var set bson.D
	if f.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *f.Name})
	}
	if f.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *f.Email})
	}
	if f.TotalAverageWeightRatings != nil {
		set = append(set, bson.E{Key: "totalAverageWeightRatings", Value: *f.TotalAverageWeightRatings})
	}
	if f.NumberOfRents != nil {
		set = append(set, bson.E{Key: "numberOfRents", Value: *f.NumberOfRents})
	}
	if f.UpdatedAt != nil {
		set = append(set, bson.E{Key: "updatedAt", Value: f.UpdatedAt.Millis()})
	}
	if f.RecentlyActive != nil {
		set = append(set, bson.E{Key: "recentlyActive", Value: f.RecentlyActive.Millis()})
	}
	return set
}

// idValue maps an API identifier onto the stored _id. Hex strings that parse
// as ObjectIDs are matched as ObjectIDs, anything else as a plain string.
func idValue(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func idOf(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}

func idString(rv bson.RawValue) string {
	if oid, ok := rv.ObjectIDOK(); ok {
		return oid.Hex()
	}
	if s, ok := rv.StringValueOK(); ok {
		return s
	}
	if rv.Type == 0 {
		return ""
	}
	return rv.String()
}

// timestampFromRaw resolves the stored activity representations to epoch
// milliseconds: plain numbers are millis, BSON dates are millis, BSON
// timestamps and {_seconds}/{seconds} documents carry seconds. Anything else is 0.
func timestampFromRaw(rv bson.RawValue) user.Timestamp {
	if n, ok := number(rv); ok {
		return user.Timestamp(n)
	}
	if ms, ok := rv.DateTimeOK(); ok {
		return user.Timestamp(ms)
	}
	if sec, _, ok := rv.TimestampOK(); ok {
		return user.TimestampFromSeconds(int64(sec))
	}
	if doc, ok := rv.DocumentOK(); ok {
		for _, key := range []string{"_seconds", "seconds"} {
			v, err := doc.LookupErr(key)
			if err != nil {
				continue
			}
			if sec, ok := number(v); ok {
				return user.TimestampFromSeconds(sec)
			}
		}
	}
	return 0
}

func number(rv bson.RawValue) (int64, bool) {
	if v, ok := rv.Int64OK(); ok {
		return v, true
	}
	if v, ok := rv.Int32OK(); ok {
		return int64(v), true
	}
	if v, ok := rv.DoubleOK(); ok {
		return int64(v), true
	}
	return 0, false
}
