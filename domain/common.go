package domain

import (
	"database/sql/driver"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SQLModel is embedded by every table. Times are unix millis and a zero
// DeletedAt marks a live row.
type SQLModel struct {
	ID        string `json:"id" gorm:"type:varchar(36);primary_key;default:gen_random_uuid()"`
	CreatedAt int64  `json:"created_at" gorm:"autoCreateTime:milli"`
	UpdatedAt int64  `json:"updated_at" gorm:"autoUpdateTime:milli"`
	DeletedAt int64  `json:"deleted_at" gorm:"index;default:0"`
}

type FindOneOption struct {
	Preloads []string
	Sort     []string
}

type FindManyOption struct {
	Preloads []string
	Joins    []string
	Sort     []string
	Limit    *int
	Offset   *int
}

// FindPageOption carries an already normalized page; see pagination.Paginator.
type FindPageOption struct {
	Preloads []string
	Sort     []string
	Page     int
	PerPage  int
}

// JSONB is a free form object stored in a jsonb column.
type JSONB map[string]any

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return marshalColumn(j)
}

func (j *JSONB) Scan(input any) error {
	if input == nil {
		*j = nil
		return nil
	}
	return unmarshalColumn(input, j)
}

// StringSlice is stored as a json array. A nil slice is written as "[]".
type StringSlice []string

func NewStringSlice(s []string) StringSlice {
	return StringSlice(s)
}

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return marshalColumn(s)
}

func (s *StringSlice) Scan(input any) error {
	if input == nil {
		*s = nil
		return nil
	}
	return unmarshalColumn(input, s)
}

func marshalColumn(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal json column")
	}
	return string(b), nil
}

func unmarshalColumn(input any, dst any) error {
	var b []byte
	switch v := input.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.Errorf("unsupported scan type %T", input)
	}
	return errors.Wrap(json.Unmarshal(b, dst), "unmarshal json column")
}
