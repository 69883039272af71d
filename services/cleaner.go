package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"comic-market-watch/models"
	"comic-market-watch/utils"
)

var (
	// ErrNoData is returned when the response lacks the item list.
	ErrNoData = errors.New("No data returned.")

	// ErrNoValidPrices is returned when no item carries a usable price.
	ErrNoValidPrices = errors.New("No valid prices.")
)

// SkipEvent records why an item was left out of the batch.
type SkipEvent struct {
	Index  int
	ItemID string
	Reason string
}

// Batch is the decoded item list of one response, in response order.
type Batch struct {
	Items   []*models.ListingItem
	Skipped []SkipEvent
}

// Cleaner turns a raw Finding API response into typed listing items.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Decode walks findCompletedItemsResponse[0].searchResult[0].item and
// decodes every item on its own. ErrNoData is returned when any key or index
// of that path is missing. Nothing off the path is decoded. Items without a
// usable price are recorded as skip events.
func (c *Cleaner) Decode(raw models.RawResponse) (Batch, error) {
	resp, err := firstOf(json.RawMessage(raw), "findCompletedItemsResponse")
	if err != nil {
		c.logger.Debug("[cleaner] Response does not match the expected envelope: %v", err)
		return Batch{}, ErrNoData
	}
	result, err := firstOf(resp, "searchResult")
	if err != nil {
		c.logger.Debug("[cleaner] Response does not match the expected envelope: %v", err)
		return Batch{}, ErrNoData
	}
	itemsRaw, ok := field(result, "item")
	if !ok || isNull(itemsRaw) {
		return Batch{}, ErrNoData
	}

	var rawItems []json.RawMessage
	if err := json.Unmarshal(itemsRaw, &rawItems); err != nil {
		// Present but not a list: nothing in it can carry a price.
		c.logger.Warn("[cleaner] Item field is not a list, no listing can be read")
		return Batch{}, nil
	}
	batch := Batch{Items: make([]*models.ListingItem, 0, len(rawItems))}

	for i, ri := range rawItems {
		item, err := decodeItem(ri)
		if err != nil {
			ev := SkipEvent{Index: i, ItemID: itemID(ri), Reason: err.Error()}
			c.logger.Debug("[cleaner] Skipping item %d (%s): %s", ev.Index, ev.ItemID, ev.Reason)
			batch.Skipped = append(batch.Skipped, ev)
			continue
		}
		batch.Items = append(batch.Items, item)
	}

	c.logger.Info("[cleaner] Decoded %d → %d listings (skipped %d)",
		len(rawItems), len(batch.Items), len(batch.Skipped))
	return batch, nil
}

// decodeItem keeps or skips an item based on its price alone. Descriptive
// fields of the wrong shape decode as empty strings.
func decodeItem(raw json.RawMessage) (*models.ListingItem, error) {
	amount, err := currentPrice(raw)
	if err != nil {
		return nil, err
	}
	price, err := parsePrice(amount.Value)
	if err != nil {
		return nil, err
	}

	var fi models.FindingItem
	if err := json.Unmarshal(raw, &fi); err != nil {
		return nil, fmt.Errorf("malformed item: %v", err)
	}

	return &models.ListingItem{
		ItemID:       string(fi.ItemID),
		Title:        string(fi.Title),
		ViewItemURL:  strings.TrimSpace(string(fi.ViewItemURL)),
		GalleryURL:   strings.TrimSpace(string(fi.GalleryURL)),
		CurrentPrice: price,
		Currency:     string(amount.CurrencyID),
	}, nil
}

// currentPrice reads sellingStatus[0].currentPrice[0].
func currentPrice(raw json.RawMessage) (models.Amount, error) {
	status, err := firstOf(raw, "sellingStatus")
	if err != nil {
		return models.Amount{}, err
	}
	price, err := firstOf(status, "currentPrice")
	if err != nil {
		return models.Amount{}, err
	}
	var amount models.Amount
	if err := json.Unmarshal(price, &amount); err != nil {
		return models.Amount{}, errors.New("malformed current price")
	}
	return amount, nil
}

// firstOf returns element 0 of the array stored under key in the object raw.
func firstOf(raw json.RawMessage, key string) (json.RawMessage, error) {
	val, ok := field(raw, key)
	if !ok {
		return nil, fmt.Errorf("missing %s", key)
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(val, &arr); err != nil {
		return nil, fmt.Errorf("%s is not a list", key)
	}
	if len(arr) == 0 {
		return nil, fmt.Errorf("empty %s", key)
	}
	return arr[0], nil
}

func field(raw json.RawMessage, key string) (json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	val, ok := obj[key]
	return val, ok
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// parsePrice accepts either a JSON number or a string holding one.
// Examples:
//
//	"12.50"   → 12.5
//	" 7 "     → 7
//	9.99      → 9.99
//	"$12.50"  → error
//	null      → error
func parsePrice(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return 0, errors.New("missing price value")
	}

	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("malformed price: %v", err)
		}
		s = strings.TrimSpace(s)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable price %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite price %q", s)
	}
	return v, nil
}

// itemID digs out the item id for logging, even from items that failed to decode.
func itemID(raw json.RawMessage) string {
	var fi models.FindingItem
	if err := json.Unmarshal(raw, &fi); err != nil || fi.ItemID == "" {
		return "unknown"
	}
	return string(fi.ItemID)
}
