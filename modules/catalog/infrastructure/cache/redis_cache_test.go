package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"

	"github.com/rai/storefront-modularmonolith-go/modules/catalog/application/queries"
)

func TestRedisProductCache_GetMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisProductCache(db, time.Minute)

	mock.ExpectGet("catalog:product:p1").RedisNil()

	dto, ok, err := c.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ok || dto != nil {
		t.Errorf("expected a miss, got %+v", dto)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRedisProductCache_SetThenGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisProductCache(db, time.Minute)
	ctx := context.Background()

	dto := &queries.ProductDTO{ID: "p1", Name: "Trail Runner", Price: "29.99", Currency: "USD", Stock: 4, Active: true}
	data, _ := json.Marshal(dto)

	mock.ExpectSet("catalog:product:p1", data, time.Minute).SetVal("OK")
	mock.ExpectGet("catalog:product:p1").SetVal(string(data))

	if err := c.Set(ctx, dto); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	got, ok, err := c.Get(ctx, "p1")
	if err != nil || !ok {
		t.Fatalf("expected a hit, got ok=%v err=%v", ok, err)
	}
	if got.Name != "Trail Runner" || got.Price != "29.99" || got.Stock != 4 {
		t.Errorf("unexpected product: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRedisProductCache_Delete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisProductCache(db, time.Minute)

	mock.ExpectDel("catalog:product:p1", "catalog:product:p2").SetVal(2)

	if err := c.Delete(context.Background(), "p1", "p2"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRedisProductCache_GetError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisProductCache(db, time.Minute)

	mock.ExpectGet("catalog:product:p1").SetErr(errors.New("connection refused"))

	if _, _, err := c.Get(context.Background(), "p1"); err == nil {
		t.Error("expected an error")
	}
}
