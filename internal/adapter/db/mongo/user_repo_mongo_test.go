package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap/zaptest"

	"user-directory-service/internal/domain/user"
	apperrors "user-directory-service/pkg/errors"
)

func rawOf(t *testing.T, v any) bson.RawValue {
	t.Helper()
	data, err := bson.Marshal(bson.D{{Key: "v", Value: v}})
	require.NoError(t, err)
	return bson.Raw(data).Lookup("v")
}

func TestTimestampFromRaw(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		value    any
		expected user.Timestamp
	}{
		{"int64 millis", at.UnixMilli(), user.Timestamp(at.UnixMilli())},
		{"int32 millis", int32(1234), 1234},
		{"double millis", float64(1500.9), 1500},
		{"bson datetime", primitive.NewDateTimeFromTime(at), user.Timestamp(at.UnixMilli())},
		{"bson timestamp", primitive.Timestamp{T: uint32(at.Unix()), I: 1}, user.TimestampFromSeconds(at.Unix())},
		{"_seconds object", bson.D{{Key: "_seconds", Value: at.Unix()}, {Key: "_nanoseconds", Value: 0}}, user.TimestampFromSeconds(at.Unix())},
		{"seconds object", bson.D{{Key: "seconds", Value: int32(60)}, {Key: "nanos", Value: 5}}, 60000},
		{"object without seconds", bson.D{{Key: "millis", Value: 1}}, 0},
		{"null", nil, 0},
		{"string", "yesterday", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, timestampFromRaw(rawOf(t, tt.value)))
		})
	}

	assert.Equal(t, user.Timestamp(0), timestampFromRaw(bson.RawValue{}))
}

func TestIDValue(t *testing.T) {
	oid := primitive.NewObjectID()

	assert.Equal(t, oid, idValue(oid.Hex()))
	assert.Equal(t, "legacy-id", idValue("legacy-id"))

	assert.Equal(t, oid.Hex(), idString(rawOf(t, oid)))
	assert.Equal(t, "legacy-id", idString(rawOf(t, "legacy-id")))
	assert.Equal(t, oid.Hex(), idOf(oid))
}

func TestSetDocument(t *testing.T) {
	name := "Ann"
	rents := int64(3)
	now := user.Timestamp(42)

	set := setDocument(user.Fields{Name: &name, NumberOfRents: &rents, RecentlyActive: &now})

	assert.Equal(t, bson.D{
		{Key: "name", Value: "Ann"},
		{Key: "numberOfRents", Value: int64(3)},
		{Key: "recentlyActive", Value: int64(42)},
	}, set)
	assert.Empty(t, setDocument(user.Fields{}))
}

func TestUserDocument_Decode(t *testing.T) {
	oid := primitive.NewObjectID()
	data, err := bson.Marshal(bson.D{
		{Key: "_id", Value: oid},
		{Key: "name", Value: "Ann"},
		{Key: "totalAverageWeightRatings", Value: int32(4)},
		{Key: "numberOfRents", Value: int32(12)},
		{Key: "recentlyActive", Value: bson.D{{Key: "_seconds", Value: int64(10)}}},
	})
	require.NoError(t, err)

	var doc userDocument
	require.NoError(t, bson.Unmarshal(data, &doc))

	u := doc.toDomain()
	assert.Equal(t, oid.Hex(), u.ID)
	assert.Equal(t, 4.0, u.TotalAverageWeightRatings)
	assert.Equal(t, int64(12), u.NumberOfRents)
	assert.Equal(t, user.Timestamp(10000), u.RecentlyActive)
	assert.True(t, u.CreatedAt.IsZero())
}

// The tests below need a running MongoDB, e.g. MONGO_TEST_URI=mongodb://localhost:27017

func setupTestCollection(t *testing.T) *mongo.Collection {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	coll := client.Database("user_directory_test").Collection("USERS_" + primitive.NewObjectID().Hex())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = coll.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return coll
}

func TestUserRepoMongo_CRUD(t *testing.T) {
	coll := setupTestCollection(t)
	ctx := context.Background()
	repo := NewUserRepoMongo(coll, zaptest.NewLogger(t))
	require.NoError(t, repo.EnsureIndexes(ctx))

	id, err := repo.Create(ctx, &user.User{Name: "Ann", Email: "ann@example.com", RecentlyActive: 1000})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)
	assert.Equal(t, user.Timestamp(1000), got.RecentlyActive)

	email := "new@example.com"
	require.NoError(t, repo.Update(ctx, id, user.Fields{Email: &email}))
	got, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", got.Email)

	require.NoError(t, repo.Delete(ctx, id))
	_, err = repo.GetByID(ctx, id)
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, apperrors.IsNotFound(repo.Delete(ctx, id)))
	assert.True(t, apperrors.IsNotFound(repo.Update(ctx, id, user.Fields{Email: &email})))
}

func TestUserRepoMongo_ListOrdered(t *testing.T) {
	coll := setupTestCollection(t)
	ctx := context.Background()
	repo := NewUserRepoMongo(coll, zaptest.NewLogger(t))

	for _, u := range []user.User{
		{ID: "a", NumberOfRents: 5},
		{ID: "b", NumberOfRents: 50},
		{ID: "c", NumberOfRents: 5},
		{ID: "d", NumberOfRents: 20},
	} {
		u := u
		_, err := repo.Create(ctx, &u)
		require.NoError(t, err)
	}

	first, err := repo.ListOrdered(ctx, user.FieldRents, "", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d", "a"}, idsOf(first))

	next, err := repo.ListOrdered(ctx, user.FieldRents, "a", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, idsOf(next))

	restart, err := repo.ListOrdered(ctx, user.FieldRents, "unknown", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d"}, idsOf(restart))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, idsOf(all))
}

func idsOf(users []user.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}
