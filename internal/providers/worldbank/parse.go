package worldbank

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"countrygraph/internal/model"
)

// Responses are two-element arrays: [paging metadata, records]. Errors come back
// as [{"message": [{"id", "key", "value"}]}].

const invalidValueKey = "Invalid value"

func parseEnvelope(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: invalid json", ErrUnexpectedPayload)
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return gjson.Result{}, fmt.Errorf("%w: top level is not an array", ErrUnexpectedPayload)
	}
	return root, nil
}

func apiMessage(root gjson.Result) (key, text string, ok bool) {
	message := root.Get("0.message.0")
	if !message.Exists() {
		return "", "", false
	}
	key = strings.TrimSpace(message.Get("key").String())
	text = strings.TrimSpace(message.Get("value").String())
	return key, text, key != "" || text != ""
}

func formatMessage(key, text string) string {
	switch {
	case key == "":
		return text
	case text == "":
		return key
	default:
		return key + ": " + text
	}
}

func messageFromBody(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	key, text, ok := apiMessage(gjson.ParseBytes(body))
	if !ok {
		return ""
	}
	return formatMessage(key, text)
}

func parseCountry(body []byte) (model.Country, error) {
	root, err := parseEnvelope(body)
	if err != nil {
		return model.Country{}, err
	}
	if key, text, ok := apiMessage(root); ok {
		if strings.EqualFold(key, invalidValueKey) {
			return model.Country{}, fmt.Errorf("%w: %s", ErrCountryNotFound, formatMessage(key, text))
		}
		return model.Country{}, &APIError{Message: formatMessage(key, text)}
	}

	records := root.Get("1")
	if !records.Exists() || records.Type == gjson.Null {
		return model.Country{}, ErrCountryNotFound
	}
	if !records.IsArray() {
		return model.Country{}, fmt.Errorf("%w: country records are not an array", ErrUnexpectedPayload)
	}
	entry := records.Get("0")
	if !entry.Exists() {
		return model.Country{}, ErrCountryNotFound
	}
	if !entry.IsObject() {
		return model.Country{}, fmt.Errorf("%w: country record is not an object", ErrUnexpectedPayload)
	}

	country := model.Country{
		ID:          entry.Get("id").String(),
		ISO2Code:    entry.Get("iso2Code").String(),
		Name:        entry.Get("name").String(),
		CapitalCity: entry.Get("capitalCity").String(),
		Longitude:   entry.Get("longitude").String(),
		Latitude:    entry.Get("latitude").String(),
		Region:      entry.Get("region.value").String(),
		Values:      model.Values{},
	}
	if country.ISO2Code == "" {
		return model.Country{}, fmt.Errorf("%w: country record has no iso2Code", ErrUnexpectedPayload)
	}
	return country, nil
}

// parseObservations treats a null record element as "no data" rather than an
// error; the API answers that way when nothing matches the date filter.
func parseObservations(body []byte) ([]model.Observation, error) {
	root, err := parseEnvelope(body)
	if err != nil {
		return nil, err
	}
	if key, text, ok := apiMessage(root); ok {
		return nil, &APIError{Message: formatMessage(key, text)}
	}

	records := root.Get("1")
	if !records.Exists() {
		return nil, fmt.Errorf("%w: missing observation array", ErrUnexpectedPayload)
	}
	if records.Type == gjson.Null {
		return nil, nil
	}
	if !records.IsArray() {
		return nil, fmt.Errorf("%w: observations are not an array", ErrUnexpectedPayload)
	}

	items := records.Array()
	observations := make([]model.Observation, 0, len(items))
	for _, item := range items {
		code := item.Get("indicator.id").String()
		if code == "" {
			continue
		}
		observations = append(observations, model.Observation{
			CountryISO2: item.Get("country.id").String(),
			Indicator:   code,
			Date:        item.Get("date").String(),
			Value:       optionalString(item.Get("value")),
		})
	}
	return observations, nil
}

func optionalString(value gjson.Result) *string {
	if !value.Exists() || value.Type == gjson.Null {
		return nil
	}
	s := value.String()
	return &s
}
