package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/yash-patil1/Cdac-Project/internal/domain"
	"github.com/yash-patil1/Cdac-Project/internal/testutil"
)

func TestOrderRepository_StatusTransitions(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)

	repo := NewOrderRepository(pool)

	t.Run("guarded update transitions once", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		orderID := testutil.InsertOrder(t, ctx, pool, "PO-1001", domain.StatusNew, nil)

		if err := repo.UpdateStatus(ctx, orderID, domain.StatusNew, domain.StatusCompleted); err != nil {
			t.Fatalf("update status: %v", err)
		}
		if got := testutil.OrderStatus(t, ctx, pool, orderID); got != domain.StatusCompleted {
			t.Fatalf("expected COMPLETED, got %s", got)
		}

		err := repo.UpdateStatus(ctx, orderID, domain.StatusNew, domain.StatusFailedNoStock)
		if !errors.Is(err, domain.ErrStatusConflict) {
			t.Fatalf("expected ErrStatusConflict, got %v", err)
		}
		if got := testutil.OrderStatus(t, ctx, pool, orderID); got != domain.StatusCompleted {
			t.Fatalf("expected status unchanged, got %s", got)
		}
	})

	t.Run("missing order", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)

		_, err := repo.GetOrderForUpdate(ctx, "9f6ad0a2-0000-0000-0000-000000000000")
		if !errors.Is(err, domain.ErrOrderNotFound) {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)

		_, err := repo.GetOrderForUpdate(ctx, "not-a-uuid")
		if !errors.Is(err, domain.ErrInvalidID) {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})
}

func TestOrderRepository_CreateAndRead(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := NewOrderRepository(pool)

	orderID := testutil.InsertOrder(t, ctx, pool, "PO-2001", domain.StatusNew, []domain.LineItem{
		{ProductID: "P1", ProductName: "Widget", Quantity: 3, UnitPrice: decimal.NewFromInt(10)},
		{ProductID: "P2", ProductName: "Gadget", Quantity: 1, UnitPrice: decimal.NewFromInt(5)},
	})

	items, err := repo.ListItems(ctx, orderID)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ProductID != "P1" || items[0].Quantity != 3 {
		t.Fatalf("unexpected first item %+v", items[0])
	}

	id, err := repo.FindOrderIDByNumber(ctx, "PO-2001")
	if err != nil {
		t.Fatalf("find by number: %v", err)
	}
	if id != orderID {
		t.Fatalf("expected %s, got %s", orderID, id)
	}

	if _, err := repo.FindOrderIDByNumber(ctx, "PO-9999"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}

	order, err := repo.GetOrderByNumber(ctx, "PO-2001")
	if err != nil {
		t.Fatalf("get by number: %v", err)
	}
	if order.Status != domain.StatusNew {
		t.Fatalf("expected NEW, got %s", order.Status)
	}

	waiting, err := repo.ListOrders(ctx, domain.StatusWaitingForReply, 10)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(waiting) != 0 {
		t.Fatalf("expected no waiting orders, got %d", len(waiting))
	}
	all, err := repo.ListOrders(ctx, "", 10)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 order, got %d", len(all))
	}
}
