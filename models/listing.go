package models

import "encoding/json"

// RawResponse is the undecoded body returned by the Finding API.
// The only guarantee is that it holds valid JSON.
type RawResponse []byte

// FindingItem holds the descriptive fields of a findCompletedItems item.
// They only ever decode leniently; the price is read separately.
type FindingItem struct {
	ItemID      Text `json:"itemId"`
	Title       Text `json:"title"`
	ViewItemURL Text `json:"viewItemURL"`
	GalleryURL  Text `json:"galleryURL"`
}

// Amount is a monetary value. Value is kept raw because the API sends it as
// a string while captured fixtures sometimes carry a bare number.
type Amount struct {
	CurrencyID Text            `json:"@currencyId"`
	Value      json.RawMessage `json:"__value__"`
}

// Text is a Finding API scalar field. The API wraps every field in an array;
// the first element is used. Strings and numbers are kept, anything else
// decodes as "" and never fails.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	var vals []json.RawMessage
	if err := json.Unmarshal(data, &vals); err == nil {
		if len(vals) == 0 {
			*t = ""
			return nil
		}
		data = vals[0]
	}
	*t = Text(scalar(data))
	return nil
}

func scalar(data []byte) string {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		return n.String()
	}
	return ""
}

// ListingItem is a sold listing with a successfully parsed price.
type ListingItem struct {
	ItemID       string
	Title        string
	ViewItemURL  string
	GalleryURL   string
	CurrentPrice float64
	Currency     string
}

// Report is the per-run summary consumed by the renderers.
type Report struct {
	Headline  string
	Summary   string
	Title     string
	Link      string
	Thumbnail string
	Price     float64
	Currency  string

	Average float64
	Count   int
	Skipped int
}
