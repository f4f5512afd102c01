package openfoodfacts

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/foodlens/backend/internal/domain"
)

// SearchFields are the product fields requested from the search API
var SearchFields = []string{
	"code",
	"product_name",
	"brands",
	"categories",
	"nutriscore_grade",
	"ingredients_text",
	"nutriments",
	"image_url",
	"countries",
	"stores",
}

// SearchResponse is the envelope returned by search.pl with json=1
type SearchResponse struct {
	Count    int                 `json:"count"`
	Products []domain.RawPayload `json:"products"`
}

func searchParams(page, pageSize int) url.Values {
	params := url.Values{}
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page_size", strconv.Itoa(pageSize))
	params.Set("page", strconv.Itoa(page))
	params.Set("fields", strings.Join(SearchFields, ","))
	return params
}

// decodeSearchResponse extracts the product payloads from a search response.
// Entries that are not JSON objects are dropped.
func decodeSearchResponse(body []byte) ([]domain.RawPayload, error) {
	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrSourceUnavailable, err)
	}

	products := make([]domain.RawPayload, 0, len(resp.Products))
	for _, p := range resp.Products {
		if p != nil {
			products = append(products, p)
		}
	}
	return products, nil
}
