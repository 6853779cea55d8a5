package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"quizbattle/internal/domain"
)

var (
	once     sync.Once
	validate *govalidator.Validate
	trans    ut.Translator
)

// setup builds the validator with English translations, using JSON tag names
// for field names in messages.
func setup() {
	validate = govalidator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, trans)
}

// Struct validates v and returns a *domain.ValidationError on failure.
func Struct(v any) error {
	once.Do(setup)
	if err := validate.Struct(v); err != nil {
		return &domain.ValidationError{Fields: TranslateErrors(err)}
	}
	return nil
}

// TranslateErrors returns a map of field name to human-readable message. If the
// error is not a validation error, it returns a single "detail" entry.
func TranslateErrors(err error) map[string]string {
	once.Do(setup)
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(trans)
		}
		return fields
	}

	fields["detail"] = err.Error()
	return fields
}

// Question trims the free-text fields of q and validates it. Blank options
// are rejected the same way as empty ones.
func Question(q *domain.NewQuestion) error {
	q.Text = strings.TrimSpace(q.Text)
	for i := range q.Options {
		q.Options[i] = strings.TrimSpace(q.Options[i])
	}
	return Struct(q)
}

// JoinCode normalizes a challenge join code to upper case and validates it.
func JoinCode(code string) (string, error) {
	req := domain.JoinRequest{Code: strings.ToUpper(strings.TrimSpace(code))}
	if err := Struct(req); err != nil {
		return "", err
	}
	return req.Code, nil
}
