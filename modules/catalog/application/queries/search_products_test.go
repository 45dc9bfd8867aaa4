package queries_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rai/storefront-modularmonolith-go/modules/catalog/application/queries"
	"github.com/rai/storefront-modularmonolith-go/modules/catalog/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

type mockSearcher struct {
	searchFn func(ctx context.Context, text string, limit int) ([]string, error)
}

func (m *mockSearcher) Search(ctx context.Context, text string, limit int) ([]string, error) {
	return m.searchFn(ctx, text, limit)
}

func TestSearchProductsHandler_UsesIndex(t *testing.T) {
	p := newProduct(t)
	stale := types.NewProductID()
	repo := &mockProductRepository{
		findByIDFn: func(ctx context.Context, id types.ProductID) (*domain.Product, error) {
			if id == p.ID() {
				return p, nil
			}
			return nil, domain.ErrProductNotFound
		},
		listFn: func(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error) {
			t.Error("repository search must not run when the index answers")
			return nil, 0, nil
		},
	}
	searcher := &mockSearcher{
		searchFn: func(ctx context.Context, text string, limit int) ([]string, error) {
			if text != "runner" || limit != 20 {
				t.Errorf("unexpected search %q limit %d", text, limit)
			}
			return []string{stale.String(), p.ID().String()}, nil
		},
	}

	result, err := queries.NewSearchProductsHandler(repo, searcher, discardLogger()).Handle(context.Background(), queries.SearchProductsQuery{Text: " runner "})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Source != queries.SourceIndex {
		t.Errorf("source = %q, want %q", result.Source, queries.SourceIndex)
	}
	if len(result.Products) != 1 || result.Products[0].ID != p.ID().String() {
		t.Errorf("unexpected products: %+v", result.Products)
	}
}

func TestSearchProductsHandler_FallsBackWhenIndexFails(t *testing.T) {
	p := newProduct(t)
	var got domain.ProductFilter
	repo := &mockProductRepository{
		listFn: func(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error) {
			got = filter
			return []*domain.Product{p}, 1, nil
		},
	}
	searcher := &mockSearcher{
		searchFn: func(ctx context.Context, text string, limit int) ([]string, error) {
			return nil, errors.New("connection refused")
		},
	}

	result, err := queries.NewSearchProductsHandler(repo, searcher, discardLogger()).Handle(context.Background(), queries.SearchProductsQuery{Text: "trail", Limit: 5})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Source != queries.SourceCatalog || len(result.Products) != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
	if got.Text != "trail" || !got.ActiveOnly || got.Limit != 5 {
		t.Errorf("unexpected filter: %+v", got)
	}
}

func TestSearchProductsHandler_NoIndex(t *testing.T) {
	repo := &mockProductRepository{
		listFn: func(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error) {
			return nil, 0, nil
		},
	}

	result, err := queries.NewSearchProductsHandler(repo, nil, discardLogger()).Handle(context.Background(), queries.SearchProductsQuery{Text: "scarf"})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Source != queries.SourceCatalog || result.Products == nil {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestSearchProductsHandler_EmptyText(t *testing.T) {
	_, err := queries.NewSearchProductsHandler(&mockProductRepository{}, nil, discardLogger()).Handle(context.Background(), queries.SearchProductsQuery{Text: "  "})

	if !errors.Is(err, domain.ErrEmptySearch) {
		t.Errorf("expected ErrEmptySearch, got %v", err)
	}
}

func TestListCategoriesHandler(t *testing.T) {
	repo := &mockProductRepository{
		categoriesFn: func(ctx context.Context) ([]string, error) {
			return []string{"accessories", "shoes"}, nil
		},
	}

	categories, err := queries.NewListCategoriesHandler(repo).Handle(context.Background())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(categories) != 2 || categories[0] != "accessories" {
		t.Errorf("unexpected categories: %v", categories)
	}
}
