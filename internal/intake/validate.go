package intake

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	statePattern = regexp.MustCompile(`^[A-Za-z]{2}$`)
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9().\s-]+$`)
	digitPattern = regexp.MustCompile(`\d`)
)

// fieldOrder fixes the sequence errors are reported in, matching the order
// fields appear on the form.
var fieldOrder = []string{"name", "address", "city", "state", "zip", "contact", "contact2"}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "usstate", func(fl validator.FieldLevel) bool {
		return statePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "uszip", func(fl validator.FieldLevel) bool {
		return zipPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "emailorphone", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return looksLikeEmail(value) || looksLikePhone(value)
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

// looksLikeEmail reports whether value has the shape local@domain.tld.
func looksLikeEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// looksLikePhone accepts 7 to 15 digits with optional separators,
// parentheses, and a leading plus.
func looksLikePhone(value string) bool {
	if value == "" || !phonePattern.MatchString(value) {
		return false
	}
	digits := len(digitPattern.FindAllString(value, -1))
	return digits >= 7 && digits <= 15
}

// FieldError describes one failing form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateSubmission trims every field and checks them all before reporting,
// returning either the normalized record fields or one error per failing
// field in form order.
func ValidateSubmission(req SubmitRequest) (*ContactRecord, []FieldError) {
	req = req.sanitized()

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, []FieldError{{Field: "form", Message: "could not be validated"}}
		}

		byField := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			if _, seen := byField[fe.Field()]; !seen {
				byField[fe.Field()] = messageFor(fe)
			}
		}

		out := make([]FieldError, 0, len(byField))
		for _, field := range fieldOrder {
			if msg, ok := byField[field]; ok {
				out = append(out, FieldError{Field: field, Message: msg})
			}
		}
		return nil, out
	}

	record := &ContactRecord{
		Name:        req.Name,
		Address:     req.Address,
		City:        req.City,
		State:       strings.ToUpper(req.State),
		Zip:         req.Zip,
		Contact:     req.Contact,
		ContactKind: classifyContact(req.Contact),
	}
	if req.Contact2 != "" {
		record.Contact2 = req.Contact2
		record.Contact2Kind = classifyContact(req.Contact2)
	}
	return record, nil
}

// classifyContact records which branch matched; email wins when a value
// could pass as both.
func classifyContact(value string) ContactKind {
	if looksLikeEmail(value) {
		return ContactEmail
	}
	return ContactPhone
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "usstate":
		return "must be a 2-letter state code (e.g., WA)"
	case "uszip":
		return "must be 5 digits or ZIP+4 (e.g., 98101 or 98101-1234)"
	case "emailorphone":
		return "must be a valid email or phone number"
	}
	return "is invalid"
}
