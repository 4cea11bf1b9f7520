package transport

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fastygo/livechat/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode unmarshals a JSON body into dst and validates its struct tags.
// An empty body is treated as an empty object.
func Decode(body []byte, dst interface{}) error {
	if len(body) > 0 {
		if err := json.Unmarshal(body, dst); err != nil {
			return domain.ErrInvalidPayload.Detail("malformed json: %v", err)
		}
	}
	return Validate(dst)
}

func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fe.Field()+" failed "+fe.Tag())
		}
		return domain.ErrInvalidPayload.Detail("%s", strings.Join(msgs, "; "))
	}
	return domain.ErrInvalidPayload.Detail("%v", err)
}
