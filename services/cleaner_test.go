package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comic-market-watch/models"
	"comic-market-watch/utils"
)

func newTestLogger() *utils.Logger { return utils.NewDiscardLogger() }

func TestCleanerParsePrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want float64

		wantErr bool
	}{
		{raw: `"120.00"`, want: 120},
		{raw: `"25.5"`, want: 25.5},
		{raw: `" 7 "`, want: 7},
		{raw: `9.99`, want: 9.99},
		{raw: `0`, want: 0},
		{raw: `"-3.5"`, want: -3.5},
		{raw: `"1e2"`, want: 100},

		{raw: ``, wantErr: true},
		{raw: `null`, wantErr: true},
		{raw: `""`, wantErr: true},
		{raw: `"$12.50"`, wantErr: true},
		{raw: `"1,200.50"`, wantErr: true},
		{raw: `"free"`, wantErr: true},
		{raw: `true`, wantErr: true},
		{raw: `{"v": 1}`, wantErr: true},
		{raw: `"NaN"`, wantErr: true},
		{raw: `"Inf"`, wantErr: true},
	}

	for _, tt := range tests {
		got, err := parsePrice(json.RawMessage(tt.raw))
		if tt.wantErr {
			assert.Error(t, err, "parsePrice(%s) should fail", tt.raw)
			continue
		}
		if assert.NoError(t, err, "parsePrice(%s)", tt.raw) {
			assert.InDelta(t, tt.want, got, 1e-9, "parsePrice(%s)", tt.raw)
		}
	}
}

func TestCleanerDecodeStructure(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		body string

		wantItems   int
		wantSkipped int
		wantErr     error
	}{
		"Items present":   {body: envelope(item("1", "A", `"10.00"`)), wantItems: 1},
		"Empty item list": {body: `{"findCompletedItemsResponse":[{"searchResult":[{"item":[]}]}]}`},
		"Off path fields of any type are ignored": {
			body: `{"version":1,"findCompletedItemsResponse":[{"ack":"Success","searchResult":[{"@count":2,"item":[` +
				item("1", "A", `"10.00"`) + `,` + item("2", "B", `"20.00"`) + `]}]}]}`,
			wantItems: 2,
		},
		"Only the first envelope and result are read": {
			body: `{"findCompletedItemsResponse":[{"searchResult":[{"item":[` + item("1", "A", `"1"`) + `]},"junk"]},42]}`,
			wantItems: 1,
		},
		"Item object is not a list":      {body: `{"findCompletedItemsResponse":[{"searchResult":[{"item":{"itemId":["1"]}}]}]}`},
		"Item string is not a list":      {body: `{"findCompletedItemsResponse":[{"searchResult":[{"item":"none"}]}]}`},
		"Null search result has no item": {body: `{"findCompletedItemsResponse":[{"searchResult":[null]}]}`, wantErr: ErrNoData},

		"No data on empty object":          {body: `{}`, wantErr: ErrNoData},
		"No data on empty envelope":        {body: `{"findCompletedItemsResponse":[]}`, wantErr: ErrNoData},
		"No data on missing search result": {body: `{"findCompletedItemsResponse":[{"ack":["Success"]}]}`, wantErr: ErrNoData},
		"No data on empty search result":   {body: `{"findCompletedItemsResponse":[{"searchResult":[]}]}`, wantErr: ErrNoData},
		"No data on missing item key":      {body: `{"findCompletedItemsResponse":[{"searchResult":[{"@count":"0"}]}]}`, wantErr: ErrNoData},
		"No data on null item list":        {body: `{"findCompletedItemsResponse":[{"searchResult":[{"item":null}]}]}`, wantErr: ErrNoData},
		"No data on top level array":       {body: `[1, 2, 3]`, wantErr: ErrNoData},
		"No data on wrong envelope shape":  {body: `{"findCompletedItemsResponse":"oops"}`, wantErr: ErrNoData},
		"No data on error reply": {
			body:    `{"errorMessage":[{"error":[{"errorId":["11002"],"message":["Authentication failed"]}]}]}`,
			wantErr: ErrNoData,
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c := NewCleaner(newTestLogger())
			batch, err := c.Decode(models.RawResponse(tc.body))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, batch.Items, tc.wantItems)
			assert.Len(t, batch.Skipped, tc.wantSkipped)
		})
	}
}

func TestCleanerSkipsBadItems(t *testing.T) {
	t.Parallel()

	body := envelope(
		item("1", "Good", `"10.00"`),
		`{"itemId":["2"],"title":["No selling status"]}`,
		`{"itemId":["3"],"sellingStatus":[{"currentPrice":[]}]}`,
		item("4", "Unparseable", `"n/a"`),
		`"not an object"`,
		`{"itemId":[6],"sellingStatus":[{"currentPrice":[{"__value__":null}]}]}`,
		item("7", "Also good", `3.5`),
	)

	c := NewCleaner(newTestLogger())
	batch, err := c.Decode(models.RawResponse(body))
	require.NoError(t, err)

	require.Len(t, batch.Items, 2)
	assert.Equal(t, "Good", batch.Items[0].Title)
	assert.Equal(t, "Also good", batch.Items[1].Title)

	require.Len(t, batch.Skipped, 5)
	gotIDs := make([]string, 0, len(batch.Skipped))
	for _, ev := range batch.Skipped {
		assert.NotEmpty(t, ev.Reason)
		gotIDs = append(gotIDs, ev.ItemID)
	}
	assert.Equal(t, []string{"2", "3", "4", "unknown", "6"}, gotIDs)
	assert.Equal(t, 4, batch.Skipped[3].Index)
}

func TestCleanerDecodesItemFields(t *testing.T) {
	t.Parallel()

	body := envelope(`{
		"itemId": ["42"],
		"title": ["Saga #1 First Print"],
		"viewItemURL": [" https://www.ebay.com/itm/42 "],
		"galleryURL": ["https://i.ebayimg.com/42.jpg", "https://i.ebayimg.com/42b.jpg"],
		"sellingStatus": [{"currentPrice": [{"@currencyId": "USD", "__value__": "199.99"}]}]
	}`, item("43", "", `"1"`))

	c := NewCleaner(newTestLogger())
	batch, err := c.Decode(models.RawResponse(body))
	require.NoError(t, err)
	require.Len(t, batch.Items, 2)

	got := batch.Items[0]
	assert.Equal(t, "42", got.ItemID)
	assert.Equal(t, "Saga #1 First Print", got.Title)
	assert.Equal(t, "https://www.ebay.com/itm/42", got.ViewItemURL)
	assert.Equal(t, "https://i.ebayimg.com/42.jpg", got.GalleryURL)
	assert.Equal(t, "USD", got.Currency)
	assert.InDelta(t, 199.99, got.CurrentPrice, 1e-9)

	assert.Empty(t, batch.Items[1].GalleryURL, "missing gallery is not an error")
	assert.Empty(t, batch.Items[1].Title)
}

func TestCleanerKeepsItemsWithOddDescriptiveFields(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		item string

		wantID       string
		wantTitle    string
		wantURL      string
		wantCurrency string
	}{
		"Numeric item id": {
			item:   `{"itemId":[2],"title":["B"],"sellingStatus":[{"currentPrice":[{"__value__":"30.00"}]}]}`,
			wantID: "2", wantTitle: "B",
		},
		"Bare string title": {
			item:      `{"itemId":["3"],"title":"Plain title","sellingStatus":[{"currentPrice":[{"__value__":"30.00"}]}]}`,
			wantID:    "3",
			wantTitle: "Plain title",
		},
		"Object fields are empty": {
			item: `{"itemId":{"id":4},"title":[{"text":"x"}],"viewItemURL":[true],"galleryURL":7,"sellingStatus":[{"currentPrice":[{"__value__":"30.00"}]}]}`,
		},
		"Odd currency": {
			item:   `{"itemId":["5"],"sellingStatus":[{"currentPrice":[{"@currencyId":{"code":"USD"},"__value__":"30.00"}]}]}`,
			wantID: "5",
		},
		"Currency without array": {
			item:         `{"itemId":["6"],"sellingStatus":[{"currentPrice":[{"@currencyId":"EUR","__value__":"30.00"}]}]}`,
			wantID:       "6",
			wantCurrency: "EUR",
		},
		"Extra selling status entries are ignored": {
			item:   `{"itemId":["7"],"sellingStatus":[{"currentPrice":[{"__value__":"30.00"},"junk"]},"junk"]}`,
			wantID: "7",
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c := NewCleaner(newTestLogger())
			batch, err := c.Decode(models.RawResponse(envelope(item("1", "A", `"10.00"`), tc.item)))
			require.NoError(t, err)
			require.Empty(t, batch.Skipped, "items are only skipped for their price")
			require.Len(t, batch.Items, 2)

			got := batch.Items[1]
			assert.Equal(t, tc.wantID, got.ItemID)
			assert.Equal(t, tc.wantTitle, got.Title)
			assert.Equal(t, tc.wantURL, got.ViewItemURL)
			assert.Equal(t, tc.wantCurrency, got.Currency)
			assert.InDelta(t, 30.0, got.CurrentPrice, 1e-9)
		})
	}
}

// envelope wraps raw item objects in a findCompletedItems reply.
func envelope(items ...string) string {
	out := `{"findCompletedItemsResponse":[{"ack":["Success"],"searchResult":[{"item":[`
	for i, it := range items {
		if i > 0 {
			out += ","
		}
		out += it
	}
	return out + `]}]}]}`
}

// item builds a raw item; price is inserted verbatim as the __value__ JSON value.
func item(id, title, price string) string {
	return `{"itemId":["` + id + `"],"title":["` + title + `"],` +
		`"viewItemURL":["https://www.ebay.com/itm/` + id + `"],` +
		`"sellingStatus":[{"currentPrice":[{"@currencyId":"USD","__value__":` + price + `}]}]}`
}
