package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"

	"github.com/sakif/medassoc/internal/model"
)

func decodeWithRegistry(t *testing.T, doc bson.M, dst any) error {
	t.Helper()
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	dec, err := bson.NewDecoder(bsonrw.NewBSONDocumentReader(raw))
	require.NoError(t, err)
	require.NoError(t, dec.SetRegistry(newRegistry()))
	return dec.Decode(dst)
}

func TestDecodeCreatedAt(t *testing.T) {
	want := time.Date(2025, 12, 23, 13, 23, 32, 123_000_000, time.UTC)

	tests := []struct {
		name  string
		value any
		want  time.Time
	}{
		{"bson date", want, want},
		{"iso with offset", "2025-12-23T13:23:32.123456+00:00", want},
		{"iso with other offset", "2025-12-23T10:23:32.123-03:00", want},
		{"naive iso is utc", "2025-12-23T13:23:32.123456", want},
		{"space separated", "2025-12-23 13:23:32.123", want},
		{"no fraction", "2025-12-23T13:23:32Z", want.Truncate(time.Second)},
		{"null", nil, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d model.Doctor
			err := decodeWithRegistry(t, bson.M{"id": "d1", "name": "Dr. Jane Doe", "created_at": tt.value}, &d)
			require.NoError(t, err)
			assert.Equal(t, "Dr. Jane Doe", d.Name)
			assert.True(t, tt.want.Equal(d.CreatedAt), "got %v", d.CreatedAt)
		})
	}
}

func TestDecodeCreatedAtLegacyEvent(t *testing.T) {
	var ev model.Event
	err := decodeWithRegistry(t, bson.M{"id": "e1", "title": "Congresso", "created_at": "2025-10-01T08:00:00+00:00"}, &ev)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC), ev.CreatedAt)
}

func TestDecodeCreatedAtRejectsGarbage(t *testing.T) {
	var d model.Doctor
	assert.Error(t, decodeWithRegistry(t, bson.M{"created_at": "last tuesday"}, &d))
	assert.Error(t, decodeWithRegistry(t, bson.M{"created_at": int32(5)}, &d))
}
