package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"billsplit-backend/models"
	"billsplit-backend/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	api := r.Group("/api/v1")
	{
		api.POST("/bills", CreateBill)
		api.GET("/bills", GetBills)
		api.GET("/bills/:id", GetBill)
		api.PUT("/bills/:id", UpdateBill)
		api.POST("/bills/:id/participants", AddParticipants)
		api.DELETE("/bills/:id/participants/:uid", RemoveParticipant)
		api.DELETE("/bills/:id", DeleteBill)

		api.POST("/expenses", CreateExpense)
		api.GET("/expenses/bill/:billId", GetExpensesByBill)
		api.POST("/expenses/bill/:billId/split", SplitBill)
		api.GET("/expenses/:id", GetExpense)
		api.PUT("/expenses/:id", UpdateExpense)
		api.PUT("/expenses/:id/payment", RecordPayment)
		api.DELETE("/expenses/:id", DeleteExpense)
	}
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, w.Body.String())
	}
	if out != nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			t.Fatalf("decode data: %v (body %s)", err, w.Body.String())
		}
	}
}

func TestCreateBill(t *testing.T) {
	db := testutil.OpenDB(t)
	r := setupRouter()

	creator := testutil.CreateUser(t, db, "Creator", "creator@example.com")
	alice := testutil.CreateUser(t, db, "Alice", "alice@example.com")

	t.Run("with participants", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/bills", gin.H{
			"title":           "Road trip",
			"total_amount":    120.0,
			"created_by":      creator.ID.String(),
			"participant_ids": []string{alice.ID.String()},
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201 (body %s)", w.Code, w.Body.String())
		}

		var bill models.BillResponse
		decodeData(t, w, &bill)
		if len(bill.Participants) != 1 || bill.Participants[0].ID != alice.ID {
			t.Errorf("participants = %+v, want just alice", bill.Participants)
		}
	})

	t.Run("creator missing", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/bills", gin.H{
			"title":        "Ghost bill",
			"total_amount": 10.0,
			"created_by":   uuid.NewString(),
		})
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
	})

	t.Run("participant missing leaves nothing behind", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/bills", gin.H{
			"title":           "Half real",
			"total_amount":    10.0,
			"created_by":      creator.ID.String(),
			"participant_ids": []string{alice.ID.String(), uuid.NewString()},
		})
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}

		var count int64
		db.Model(&models.Bill{}).Where("title = ?", "Half real").Count(&count)
		if count != 0 {
			t.Errorf("bill was created despite missing participant")
		}
	})

	t.Run("zero total rejected by binding", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/bills", gin.H{
			"title":        "Free lunch",
			"total_amount": 0,
			"created_by":   creator.ID.String(),
		})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})
}

func TestAddParticipants(t *testing.T) {
	db := testutil.OpenDB(t)
	r := setupRouter()

	creator := testutil.CreateUser(t, db, "Creator", "creator@example.com")
	alice := testutil.CreateUser(t, db, "Alice", "alice@example.com")
	bob := testutil.CreateUser(t, db, "Bob", "bob@example.com")
	bill := testutil.CreateBill(t, db, "Dinner", 60.0, creator, alice)

	base := fmt.Sprintf("/api/v1/bills/%s/participants", bill.ID)

	t.Run("all already participants", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, base, gin.H{
			"participant_ids": []string{alice.ID.String()},
		})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400 (body %s)", w.Code, w.Body.String())
		}
	})

	t.Run("unknown user id", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, base, gin.H{
			"participant_ids": []string{uuid.NewString()},
		})
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
	})

	t.Run("mixed existing and new adds the difference", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, base, gin.H{
			"participant_ids": []string{alice.ID.String(), bob.ID.String()},
		})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
		}

		var resp models.BillResponse
		decodeData(t, w, &resp)
		if len(resp.Participants) != 2 {
			t.Fatalf("participant count = %d, want 2", len(resp.Participants))
		}

		var count int64
		db.Model(&models.BillParticipant{}).Where("bill_id = ?", bill.ID).Count(&count)
		if count != 2 {
			t.Errorf("join rows = %d, want 2 (no duplicates)", count)
		}
	})

	t.Run("bill missing", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/bills/%s/participants", uuid.New()), gin.H{
			"participant_ids": []string{alice.ID.String()},
		})
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
	})
}

func TestRemoveParticipant(t *testing.T) {
	db := testutil.OpenDB(t)
	r := setupRouter()

	creator := testutil.CreateUser(t, db, "Creator", "creator@example.com")
	alice := testutil.CreateUser(t, db, "Alice", "alice@example.com")
	bob := testutil.CreateUser(t, db, "Bob", "bob@example.com")
	bill := testutil.CreateBill(t, db, "Dinner", 60.0, creator, alice, bob)

	// An expense alice already carries must survive her removal
	expense := models.Expense{BillID: bill.ID, UserID: alice.ID, AmountOwed: 30, SplitMethod: models.SplitEqual}
	if err := db.Create(&expense).Error; err != nil {
		t.Fatalf("seed expense: %v", err)
	}

	t.Run("not a participant", func(t *testing.T) {
		w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/bills/%s/participants/%s", bill.ID, creator.ID), nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
	})

	t.Run("removes membership but not expenses", func(t *testing.T) {
		w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/bills/%s/participants/%s", bill.ID, alice.ID), nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
		}

		var memberCount int64
		db.Model(&models.BillParticipant{}).Where("bill_id = ? AND user_id = ?", bill.ID, alice.ID).Count(&memberCount)
		if memberCount != 0 {
			t.Errorf("alice still a participant")
		}

		var expenseCount int64
		db.Model(&models.Expense{}).Where("bill_id = ? AND user_id = ?", bill.ID, alice.ID).Count(&expenseCount)
		if expenseCount != 1 {
			t.Errorf("alice's expense rows = %d, want 1 (removal must not cascade)", expenseCount)
		}
	})
}

func TestGetBill(t *testing.T) {
	db := testutil.OpenDB(t)
	r := setupRouter()

	creator := testutil.CreateUser(t, db, "Creator", "creator@example.com")
	bill := testutil.CreateBill(t, db, "Dinner", 60.0, creator)

	w := doJSON(t, r, http.MethodGet, "/api/v1/bills/"+bill.ID.String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp models.BillResponse
	decodeData(t, w, &resp)
	if resp.Title != "Dinner" || resp.TotalAmount != 60.0 {
		t.Errorf("bill = %+v", resp)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/bills/"+uuid.NewString(), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestUpdateBill(t *testing.T) {
	db := testutil.OpenDB(t)
	r := setupRouter()

	creator := testutil.CreateUser(t, db, "Creator", "creator@example.com")
	bill := testutil.CreateBill(t, db, "Dinner", 60.0, creator)

	w := doJSON(t, r, http.MethodPut, "/api/v1/bills/"+bill.ID.String(), gin.H{"total_amount": 75.5})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}

	var reloaded models.Bill
	db.First(&reloaded, "id = ?", bill.ID)
	if reloaded.TotalAmount != 75.5 {
		t.Errorf("total = %v, want 75.5", reloaded.TotalAmount)
	}
	if reloaded.Title != "Dinner" {
		t.Errorf("title = %q, want unchanged", reloaded.Title)
	}
}

func TestDeleteBill(t *testing.T) {
	db := testutil.OpenDB(t)
	r := setupRouter()

	creator := testutil.CreateUser(t, db, "Creator", "creator@example.com")
	alice := testutil.CreateUser(t, db, "Alice", "alice@example.com")
	bill := testutil.CreateBill(t, db, "Dinner", 60.0, creator, alice)

	expense := models.Expense{BillID: bill.ID, UserID: alice.ID, AmountOwed: 60, SplitMethod: models.SplitEqual}
	if err := db.Create(&expense).Error; err != nil {
		t.Fatalf("seed expense: %v", err)
	}

	w := doJSON(t, r, http.MethodDelete, "/api/v1/bills/"+bill.ID.String(), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}

	var bills, members, expenses int64
	db.Model(&models.Bill{}).Where("id = ?", bill.ID).Count(&bills)
	db.Model(&models.BillParticipant{}).Where("bill_id = ?", bill.ID).Count(&members)
	db.Model(&models.Expense{}).Where("bill_id = ?", bill.ID).Count(&expenses)
	if bills != 0 || members != 0 || expenses != 0 {
		t.Errorf("leftovers after delete: bills=%d members=%d expenses=%d", bills, members, expenses)
	}

	w = doJSON(t, r, http.MethodDelete, "/api/v1/bills/"+bill.ID.String(), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("repeat delete status = %d, want 404", w.Code)
	}
}
