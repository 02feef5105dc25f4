package transport

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cast"

	"github.com/Skotchmaster/storefront/internal/service"
)

// SplitList reads a comma separated form value, dropping blanks.
func SplitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func formInt(form url.Values, key string) (int64, error) {
	raw := strings.TrimSpace(form.Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := cast.ToInt64E(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, service.ErrValidation)
	}
	return n, nil
}

// ProductInputFromForm reads the admin product form. Sizes, colors and images are comma
// separated; color_images is an optional JSON object of color to image url.
func ProductInputFromForm(form url.Values) (service.ProductInput, error) {
	var (
		in  service.ProductInput
		err error
	)

	in.Name = form.Get("name")
	in.Category = form.Get("category")
	in.Description = form.Get("description")
	in.Image = strings.TrimSpace(form.Get("image"))
	in.Images = SplitList(form.Get("images"))
	in.Sizes = SplitList(form.Get("sizes"))
	in.Colors = SplitList(form.Get("colors"))
	in.Featured = cast.ToBool(form.Get("featured")) || form.Get("featured") == "on"

	if in.Price, err = formInt(form, "price"); err != nil {
		return in, err
	}
	if in.OldPrice, err = formInt(form, "old_price"); err != nil {
		return in, err
	}
	if in.Stock, err = formInt(form, "stock"); err != nil {
		return in, err
	}

	if raw := strings.TrimSpace(form.Get("color_images")); raw != "" {
		var m map[string]any
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return in, fmt.Errorf("color_images must be a JSON object: %w", service.ErrValidation)
		}
		in.ColorImages = cast.ToStringMapString(m)
	}

	if in.Image != "" && len(in.Images) == 0 {
		in.Images = []string{in.Image}
	}
	return in, nil
}

// ReviewInputFromForm reads a multipart review submission; uploaded image urls are passed in.
func ReviewInputFromForm(form url.Values, images []string) (service.ReviewInput, error) {
	rating, err := cast.ToIntE(strings.TrimSpace(form.Get("rating")))
	if err != nil {
		return service.ReviewInput{}, fmt.Errorf("rating must be a number: %w", service.ErrValidation)
	}
	return service.ReviewInput{
		Rating:  rating,
		Comment: form.Get("comment"),
		Images:  images,
		Size:    form.Get("size"),
		Color:   form.Get("color"),
	}, nil
}
