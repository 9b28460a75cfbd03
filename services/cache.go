package services

import (
	"context"
	"encoding/json"
	"time"

	"billsplit-backend/database"
	"billsplit-backend/models"

	"github.com/google/uuid"
)

// Cache-aside bill response cache. All helpers are no-ops when Redis is not
// connected.

const billCacheTTL = 5 * time.Minute

func billCacheKey(billID uuid.UUID) string {
	return "bill:" + billID.String()
}

func GetCachedBill(ctx context.Context, billID uuid.UUID) (models.BillResponse, bool) {
	if database.Redis == nil {
		return models.BillResponse{}, false
	}

	data, err := database.Redis.Get(ctx, billCacheKey(billID)).Bytes()
	if err != nil {
		return models.BillResponse{}, false
	}

	var resp models.BillResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return models.BillResponse{}, false
	}
	return resp, true
}

func CacheBill(ctx context.Context, resp models.BillResponse) {
	if database.Redis == nil {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	database.Redis.Set(ctx, billCacheKey(resp.ID), data, billCacheTTL)
}

// InvalidateBill drops the cached response after any bill mutation.
func InvalidateBill(ctx context.Context, billID uuid.UUID) {
	if database.Redis == nil {
		return
	}
	database.Redis.Del(ctx, billCacheKey(billID))
}
