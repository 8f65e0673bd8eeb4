package mongo

import (
	"fmt"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

var timeType = reflect.TypeOf(time.Time{})

// legacyTimeLayouts are the string forms created_at was written in before
// it became a BSON date: ISO 8601 with or without an offset, with a "T" or a
// space. A missing offset means UTC.
var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// newRegistry is the default registry with a time.Time decoder that also
// reads ISO strings. Writes still produce BSON dates.
func newRegistry() *bsoncodec.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeDecoder(timeType, bsoncodec.ValueDecoderFunc(decodeTime))
	return reg
}

func decodeTime(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != timeType {
		return bsoncodec.ValueDecoderError{Name: "decodeTime", Types: []reflect.Type{timeType}, Received: val}
	}

	var t time.Time
	switch vr.Type() {
	case bsontype.DateTime:
		ms, err := vr.ReadDateTime()
		if err != nil {
			return err
		}
		t = time.UnixMilli(ms).UTC()
	case bsontype.String:
		s, err := vr.ReadString()
		if err != nil {
			return err
		}
		if t, err = parseLegacyTime(s); err != nil {
			return err
		}
	case bsontype.Null:
		if err := vr.ReadNull(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("mongo: cannot decode BSON %s into time.Time", vr.Type())
	}

	val.Set(reflect.ValueOf(t))
	return nil
}

func parseLegacyTime(s string) (time.Time, error) {
	for _, layout := range legacyTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Millisecond), nil
		}
	}
	return time.Time{}, fmt.Errorf("mongo: unrecognised timestamp %q", s)
}
