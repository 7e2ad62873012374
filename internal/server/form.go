package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/storage"
)

const maxFormMemory = 32 << 20

var errInvalidBody = errors.New("Invalid request body")

// decodeProductForm accepts a JSON object or a url-encoded / multipart form.
// Every field arrives as text; storage does the typing. Images may be a JSON
// array, a JSON-encoded array in a single field, or repeated form values.
func decodeProductForm(r *http.Request) (storage.ProductForm, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		return decodeJSONForm(r)
	}

	var values url.Values
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return storage.ProductForm{}, errInvalidBody
		}
		values = r.MultipartForm.Value
	} else {
		if err := r.ParseForm(); err != nil {
			return storage.ProductForm{}, errInvalidBody
		}
		values = r.PostForm
	}

	form := storage.ProductForm{Values: make(map[string]string, len(values))}
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		if key == "images" {
			form.Images = formImages(vals)
			continue
		}
		form.Values[key] = vals[0]
	}
	return form, nil
}

func decodeJSONForm(r *http.Request) (storage.ProductForm, error) {
	var raw map[string]interface{}
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return storage.ProductForm{}, errInvalidBody
	}

	form := storage.ProductForm{Values: make(map[string]string, len(raw))}
	for key, v := range raw {
		if key == "images" {
			images, err := jsonImages(v)
			if err != nil {
				return storage.ProductForm{}, err
			}
			form.Images = images
			continue
		}

		switch value := v.(type) {
		case nil:
			form.Values[key] = ""
		case string:
			form.Values[key] = value
		case json.Number:
			form.Values[key] = value.String()
		case bool:
			form.Values[key] = strconv.FormatBool(value)
		default:
			return storage.ProductForm{}, fmt.Errorf("%w: field %s must be a string or number", errInvalidBody, key)
		}
	}
	return form, nil
}

func formImages(vals []string) []string {
	if len(vals) == 1 && strings.HasPrefix(strings.TrimSpace(vals[0]), "[") {
		var images []string
		if err := json.Unmarshal([]byte(vals[0]), &images); err == nil {
			return images
		}
	}
	images := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			images = append(images, v)
		}
	}
	return images
}

func jsonImages(v interface{}) ([]string, error) {
	switch value := v.(type) {
	case nil:
		return []string{}, nil
	case string:
		return formImages([]string{value}), nil
	case []interface{}:
		images := make([]string, 0, len(value))
		for _, item := range value {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: images must be strings", errInvalidBody)
			}
			images = append(images, s)
		}
		return images, nil
	}
	return nil, fmt.Errorf("%w: images must be a list", errInvalidBody)
}

func catalogFilter(query url.Values) (storage.CatalogFilter, error) {
	filter := storage.CatalogFilter{
		Category: query.Get("category"),
		Search:   query.Get("search"),
		SortBy:   query.Get("sort"),
	}

	var err error
	if filter.MinPrice, err = floatParam(query, "min_price"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = floatParam(query, "max_price"); err != nil {
		return filter, err
	}
	if filter.Limit, err = intParam(query, "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = intParam(query, "offset"); err != nil {
		return filter, err
	}
	return filter, nil
}

func floatParam(query url.Values, key string) (float64, error) {
	raw := query.Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("Invalid value for '%s' parameter", key)
	}
	return v, nil
}

func intParam(query url.Values, key string) (int, error) {
	raw := query.Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("Invalid value for '%s' parameter", key)
	}
	return v, nil
}
