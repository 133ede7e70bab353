package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/valyala/fastjson"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode parses raw dataset bytes into a validated Document. The top level is
// either a single payload (it has "kpis") or an object keyed by merchant.
func Decode(data []byte) (*Document, error) {
	var parser fastjson.Parser
	root, err := parser.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	obj, err := root.Object()
	if err != nil {
		return nil, fmt.Errorf("%w: top level must be an object", ErrMalformed)
	}

	doc := &Document{Payloads: make(map[string]*Payload)}
	if obj.Get("kpis") != nil {
		payload, err := decodePayload(data)
		if err != nil {
			return nil, err
		}
		doc.Merchants = []string{DefaultMerchant}
		doc.Payloads[DefaultMerchant] = payload
		return doc, nil
	}

	var visitErr error
	obj.Visit(func(key []byte, v *fastjson.Value) {
		if visitErr != nil {
			return
		}
		name := string(key)
		if v.Type() != fastjson.TypeObject {
			visitErr = fmt.Errorf("%w: merchant %q is not an object", ErrMalformed, name)
			return
		}
		payload, err := decodePayload(v.MarshalTo(nil))
		if err != nil {
			visitErr = fmt.Errorf("merchant %q: %w", name, err)
			return
		}
		if _, dup := doc.Payloads[name]; !dup {
			doc.Merchants = append(doc.Merchants, name)
		}
		doc.Payloads[name] = payload
	})
	if visitErr != nil {
		return nil, visitErr
	}
	if len(doc.Merchants) == 0 {
		return nil, fmt.Errorf("%w: no merchant payloads", ErrInvalid)
	}
	return doc, nil
}

func decodePayload(data []byte) (*Payload, error) {
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	payload.normalize()
	if err := validate.Struct(&payload); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalid, describe(verrs))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return &payload, nil
}

func describe(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for i, fe := range verrs {
		if i == 3 {
			parts = append(parts, fmt.Sprintf("and %d more", len(verrs)-i))
			break
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", trimNamespace(fe.Namespace()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func trimNamespace(ns string) string {
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}
