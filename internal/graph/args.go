package graph

import (
	"github.com/go-viper/mapstructure/v2"

	"azbeauty-be/internal/apperror"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// decodeArgs copies GraphQL argument values into dest using its json tags.
func decodeArgs(src any, dest any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           dest,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(src); err != nil {
		return apperror.Wrap(apperror.CodeValidation, err, "invalid arguments")
	}
	return nil
}

type paging struct {
	Limit  *int `json:"limit"`
	Offset *int `json:"offset"`
}

func (p *paging) values() (limit, offset int) {
	limit = defaultPageSize
	if p != nil {
		if p.Limit != nil && *p.Limit > 0 {
			limit = *p.Limit
		}
		if p.Offset != nil && *p.Offset > 0 {
			offset = *p.Offset
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, offset
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
