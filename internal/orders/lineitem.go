package orders

import (
	"encoding/json"

	pkgerrors "github.com/smartdine/smartdine-backend/pkg/errors"
	"github.com/smartdine/smartdine-backend/pkg/types"
)

// LineItem is the one normalized item shape the state machine operates on.
// Every accepted external form is translated into it at the service boundary
// before any validation or pricing runs.
type LineItem struct {
	DishID          int64
	Quantity        int
	SelectedOptions types.Selection
}

// ItemSource is anything that can yield a LineItem. Request DTOs and cart
// views both satisfy it, so checkout never assumes a single call-site shape.
type ItemSource interface {
	LineItem() LineItem
}

// NormalizeItems translates any accepted item shape into LineItems. Supported
// shapes: LineItem, ItemSource, and map-like records decoded from JSON with
// dish_id/quantity/selected_specs keys. Quantity defaults to 1 when absent.
func NormalizeItems(raw []any) ([]LineItem, error) {
	items := make([]LineItem, 0, len(raw))
	for _, entry := range raw {
		switch v := entry.(type) {
		case LineItem:
			items = append(items, v)
		case *LineItem:
			items = append(items, *v)
		case ItemSource:
			items = append(items, v.LineItem())
		case map[string]any:
			item, err := lineItemFromMap(v)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		default:
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported order item shape")
		}
	}
	return items, nil
}

func lineItemFromMap(record map[string]any) (LineItem, error) {
	rawID, ok := record["dish_id"]
	if !ok {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "dish_id is required")
	}
	dishID, ok := asInt64(rawID)
	if !ok {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "dish_id must be an integer")
	}

	quantity := 1
	if rawQty, present := record["quantity"]; present {
		qty, okQty := asInt64(rawQty)
		if !okQty {
			return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be an integer")
		}
		quantity = int(qty)
	}

	selection := types.Selection{}
	if rawSpecs, present := record["selected_specs"]; present && rawSpecs != nil {
		switch specs := rawSpecs.(type) {
		case types.Selection:
			selection = specs
		case map[string]string:
			selection = types.Selection(specs)
		case map[string]any:
			for k, val := range specs {
				s, okStr := val.(string)
				if !okStr {
					return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "selected spec values must be strings")
				}
				selection[k] = s
			}
		default:
			return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "selected_specs must be an object")
		}
	}

	return LineItem{DishID: dishID, Quantity: quantity, SelectedOptions: selection}, nil
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
