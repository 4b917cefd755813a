package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a jsonb-backed list of strings.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan StringList: %v", value)
	}
	return json.Unmarshal(bytes, l)
}

// Int64List is a jsonb-backed ordered list of entity ids. Order matters and
// duplicates are allowed (a ticket waiting on two units of a request appears
// twice in the request's ticket list).
type Int64List []int64

func (l Int64List) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]int64{})
	}
	return json.Marshal(l)
}

func (l *Int64List) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan Int64List: %v", value)
	}
	return json.Unmarshal(bytes, l)
}

// IndexOf returns the first index of id, or -1.
func (l Int64List) IndexOf(id int64) int {
	for i, v := range l {
		if v == id {
			return i
		}
	}
	return -1
}

// Remove returns the list with the first occurrence of id removed. The list
// is unchanged when id is absent.
func (l Int64List) Remove(id int64) Int64List {
	idx := l.IndexOf(id)
	if idx == -1 {
		return l
	}
	out := make(Int64List, 0, len(l)-1)
	out = append(out, l[:idx]...)
	out = append(out, l[idx+1:]...)
	return out
}
