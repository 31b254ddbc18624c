package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Medicines is stored as a JSONB column.
type Medicines []Medicine

func (m Medicines) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m)
}

func (m *Medicines) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		*m = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Medicines", src)
	}
	return json.Unmarshal(raw, m)
}
