package docstore

import (
	"testing"

	"google.golang.org/genproto/googleapis/type/latlng"
)

func TestLowerValue_GeoPointNested(t *testing.T) {
	in := map[string]any{
		"name": "depot",
		"loc":  &latlng.LatLng{Latitude: 52.5, Longitude: 13.25},
		"tags": []any{"a", map[string]any{"at": &latlng.LatLng{Latitude: 1, Longitude: -2}}},
	}
	out := lowerValue(in).(map[string]any)
	if out["loc"] != "52.5,13.25" {
		t.Fatalf("loc: got %v", out["loc"])
	}
	inner := out["tags"].([]any)[1].(map[string]any)
	if inner["at"] != "1,-2" {
		t.Fatalf("nested geo point: got %v", inner["at"])
	}
	if out["name"] != "depot" {
		t.Fatalf("plain value changed: %v", out["name"])
	}
}
