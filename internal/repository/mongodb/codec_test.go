package mongodb

import (
	"testing"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

type pricedDoc struct {
	Price decimal.Decimal `bson:"price"`
}

func TestDecimalRoundTripAsDecimal128(t *testing.T) {
	reg := newRegistry()
	in := pricedDoc{Price: decimal.RequireFromString("25000.75")}

	raw, err := bson.MarshalWithRegistry(reg, in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := bson.Raw(raw).Lookup("price").Type; got != bsontype.Decimal128 {
		t.Fatalf("expected decimal128 on the wire got %v", got)
	}

	var out pricedDoc
	if err := bson.UnmarshalWithRegistry(reg, raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Price.Equal(in.Price) {
		t.Fatalf("expected %s got %s", in.Price, out.Price)
	}
}

func TestDecimalDecodesLegacyRepresentations(t *testing.T) {
	reg := newRegistry()
	cases := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"double", 1.75, "1.75"},
		{"string", "12.500", "12.5"},
		{"int32", int32(7), "7"},
		{"int64", int64(9000), "9000"},
		{"null", nil, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := bson.Marshal(bson.M{"price": tc.value})
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var out pricedDoc
			if err := bson.UnmarshalWithRegistry(reg, raw, &out); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !out.Price.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("expected %s got %s", tc.want, out.Price)
			}
		})
	}
}

func TestDecimalRejectsBadString(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"price": "twelve"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out pricedDoc
	if err := bson.UnmarshalWithRegistry(newRegistry(), raw, &out); err == nil {
		t.Fatalf("expected decode error for non-numeric string")
	}
}
