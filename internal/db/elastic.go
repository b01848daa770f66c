package db

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/olivere/elastic/v7"
	"github.com/ukydev/lunch-recommender/internal/models"
)

// maxCatalogHits bounds a single catalog search; it matches the default index.max_result_window.
const maxCatalogHits = 10000

// ElasticCatalog reads the catalog from an Elasticsearch index.
type ElasticCatalog struct {
	Client *elastic.Client
	Index  string
}

// NewElasticCatalog connects to the cluster at url.
func NewElasticCatalog(url, index string) (*ElasticCatalog, error) {
	client, err := elastic.NewClient(elastic.SetURL(url), elastic.SetSniff(false))
	if err != nil {
		return nil, fmt.Errorf("create elastic client: %w", err)
	}
	return &ElasticCatalog{Client: client, Index: index}, nil
}

// LoadCatalog returns every indexed restaurant ordered by id.
func (c *ElasticCatalog) LoadCatalog(ctx context.Context) ([]models.RestaurantDetail, error) {
	if c.Client == nil {
		return nil, fmt.Errorf("%w: elastic client is nil", ErrStoreUnavailable)
	}
	result, err := c.Client.Search().
		Index(c.Index).
		Query(elastic.NewMatchAllQuery()).
		Sort("id", true).
		Size(maxCatalogHits).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: search %s: %w", ErrStoreUnavailable, c.Index, err)
	}

	if result.Hits == nil {
		return []models.RestaurantDetail{}, nil
	}
	restaurants := make([]models.RestaurantDetail, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		var r models.RestaurantDetail
		if err := json.Unmarshal(hit.Source, &r); err != nil {
			return nil, fmt.Errorf("decode hit %s: %w", hit.Id, err)
		}
		restaurants = append(restaurants, r)
	}
	return restaurants, nil
}
