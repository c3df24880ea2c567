package features

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vijayrajbudala/GIS-Application/display"
	"github.com/vijayrajbudala/GIS-Application/schema"
)

// PointRecord is one user-added service request.
type PointRecord struct {
	ID       int64         `json:"id"`
	Status   string        `json:"status"`
	Geometry display.Point `json:"geometry"`
}

// UnmarshalJSON also accepts the OBJECTID field older saves used for the id.
func (r *PointRecord) UnmarshalJSON(b []byte) error {
	type plain PointRecord
	var aux struct {
		plain
		ObjectID *int64 `json:"OBJECTID"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = PointRecord(aux.plain)
	if r.ID == 0 && aux.ObjectID != nil {
		r.ID = *aux.ObjectID
	}
	return nil
}

func (r PointRecord) graphic() display.Graphic {
	return display.Graphic{
		Geometry:   r.Geometry,
		Attributes: display.Attributes{ObjectID: r.ID, Status: r.Status},
	}
}

var errNotArray = errors.New("stored JSON is not an array")

// decodeRecords parses the persisted blob. Any element failing the record
// schema, or a repeated id, rejects the whole blob.
func decodeRecords(raw string) ([]PointRecord, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	docs, ok := v.([]any)
	if !ok {
		return nil, errNotArray
	}

	recordSchema := schema.RecordSchema()
	for i, doc := range docs {
		if m, ok := doc.(map[string]any); ok {
			if _, has := m["id"]; !has {
				if oid, has := m["OBJECTID"]; has {
					m["id"] = oid
				}
			}
		}
		if err := schema.Validate(recordSchema, doc); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}

	var records []PointRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(records))
	for _, r := range records {
		if seen[r.ID] {
			return nil, fmt.Errorf("duplicate id %d", r.ID)
		}
		seen[r.ID] = true
	}
	return records, nil
}

// nextIDFor returns max(ids)+1, or 1 for an empty collection.
func nextIDFor(records []PointRecord) int64 {
	var max int64
	for _, r := range records {
		if r.ID > max {
			max = r.ID
		}
	}
	return max + 1
}
