package service

import (
	"testing"
	"time"

	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"github.com/pedalworks/shop-backend/internal/shop/repository"
	"github.com/pedalworks/shop-backend/internal/shop/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testActor = Actor{ID: "test-user-001", Name: "Test Admin"}

func testPricing() Pricing {
	return Pricing{
		Rate:               0.0825,
		CutoffDate:         time.Date(2017, 11, 28, 0, 0, 0, 0, time.UTC),
		ItemName:           "Sales Tax",
		EmployeeMultiplier: 1.05,
	}
}

func newTestServices(t *testing.T) (*Services, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewServices(db, repository.NewRepositories(db), testPricing(), zap.NewNop()), db
}

func requireDomainKind(t *testing.T, err error, kind string) *DomainError {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected %s error, got nil", kind)
	}
	de := AsDomain(err)
	if de == nil {
		t.Fatalf("Expected %s error, got %v", kind, err)
	}
	if de.Kind != kind {
		t.Fatalf("Expected %s error, got %s: %s", kind, de.Kind, de.Message)
	}
	return de
}

// itemLineCount counts the ticket's lines holding the given catalog item.
func itemLineCount(trx *entity.Transaction, itemID string) int {
	n := 0
	for _, line := range trx.Items {
		if line.ItemID != nil && *line.ItemID == itemID {
			n++
		}
	}
	return n
}

// taxLine returns the ticket's managed tax line, or nil.
func taxLine(trx *entity.Transaction, itemName string) *entity.TransactionItem {
	for i, line := range trx.Items {
		if line.Item != nil && line.Item.Name == itemName {
			return &trx.Items[i]
		}
	}
	return nil
}
