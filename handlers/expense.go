package handlers

import (
	"errors"
	"io"
	"net/http"

	"billsplit-backend/database"
	"billsplit-backend/models"
	"billsplit-backend/services"
	"billsplit-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// POST /api/v1/expenses
func CreateExpense(c *gin.Context) {
	var req models.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	billID, err := utils.ParseUUID(req.BillID)
	if err != nil {
		utils.BadRequest(c, "Invalid bill ID")
		return
	}
	userID, err := utils.ParseUUID(req.UserID)
	if err != nil {
		utils.BadRequest(c, "Invalid user ID")
		return
	}

	var bill models.Bill
	if err := database.DB.First(&bill, "id = ?", billID).Error; err != nil {
		utils.NotFound(c, "Bill not found")
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.NotFound(c, "User not found")
		return
	}

	if !isParticipant(billID, userID) {
		utils.BadRequest(c, "User is not a participant in this bill")
		return
	}

	expense := models.Expense{
		BillID:      billID,
		UserID:      userID,
		AmountOwed:  req.AmountOwed,
		AmountPaid:  req.AmountPaid,
		SplitMethod: models.SplitMethod(req.SplitMethod),
	}

	if err := database.DB.Create(&expense).Error; err != nil {
		utils.InternalError(c, "Failed to create expense")
		return
	}

	services.InvalidateBill(c.Request.Context(), billID)

	utils.SuccessResponse(c, http.StatusCreated, "Expense created", expense.ToResponse())
}

// GET /api/v1/expenses/bill/:billId
func GetExpensesByBill(c *gin.Context) {
	billID, err := utils.ParseUUID(c.Param("billId"))
	if err != nil {
		utils.BadRequest(c, "Invalid bill ID")
		return
	}

	var bill models.Bill
	if err := database.DB.First(&bill, "id = ?", billID).Error; err != nil {
		utils.NotFound(c, "Bill not found")
		return
	}

	var expenses []models.Expense
	database.DB.Where("bill_id = ?", billID).Find(&expenses)

	responses := []models.ExpenseResponse{}
	for _, e := range expenses {
		responses = append(responses, buildExpenseResponse(e))
	}

	utils.SuccessResponse(c, http.StatusOK, "", responses)
}

// GET /api/v1/expenses/:id
func GetExpense(c *gin.Context) {
	expenseID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, "id = ?", expenseID).Error; err != nil {
		utils.NotFound(c, "Expense not found")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", buildExpenseResponse(expense))
}

// PUT /api/v1/expenses/:id
func UpdateExpense(c *gin.Context) {
	expenseID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, "id = ?", expenseID).Error; err != nil {
		utils.NotFound(c, "Expense not found")
		return
	}

	var req models.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	// Only the fields present in the request are applied
	updates := map[string]interface{}{}
	if req.AmountOwed != nil {
		updates["amount_owed"] = *req.AmountOwed
	}
	if req.AmountPaid != nil {
		updates["amount_paid"] = *req.AmountPaid
	}
	if req.SplitMethod != nil {
		updates["split_method"] = *req.SplitMethod
	}

	if err := database.DB.Model(&expense).Updates(updates).Error; err != nil {
		utils.InternalError(c, "Failed to update expense")
		return
	}
	services.InvalidateBill(c.Request.Context(), expense.BillID)

	utils.SuccessResponse(c, http.StatusOK, "Expense updated", expense.ToResponse())
}

// POST /api/v1/expenses/bill/:billId/split
func SplitBill(c *gin.Context) {
	billID, err := utils.ParseUUID(c.Param("billId"))
	if err != nil {
		utils.BadRequest(c, "Invalid bill ID")
		return
	}

	// An empty body means an equal split
	var req models.SplitBillRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.BadRequest(c, err.Error())
		return
	}

	method := models.SplitMethod(req.SplitMethod)
	if method == "" {
		method = models.SplitEqual
	}

	// Equal splits ignore custom_amounts entirely, malformed keys included
	customAmounts := make(map[uuid.UUID]float64, len(req.CustomAmounts))
	if method != models.SplitEqual {
		for key, value := range req.CustomAmounts {
			userID, err := uuid.Parse(key)
			if err != nil {
				utils.BadRequest(c, "Invalid user ID in custom_amounts: "+key)
				return
			}
			customAmounts[userID] = value
		}
	}

	expenses, err := services.SplitBill(database.DB, billID, method, customAmounts)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBillNotFound):
			utils.NotFound(c, "Bill not found")
		case errors.Is(err, services.ErrNoParticipants), errors.Is(err, services.ErrInvalidSplit):
			utils.BadRequest(c, err.Error())
		default:
			utils.InternalError(c, "Failed to split bill")
		}
		return
	}

	services.InvalidateBill(c.Request.Context(), billID)

	responses := []models.ExpenseResponse{}
	for _, e := range expenses {
		responses = append(responses, buildExpenseResponse(e))
	}

	utils.SuccessResponse(c, http.StatusOK, "Bill split", responses)
}

// PUT /api/v1/expenses/:id/payment
func RecordPayment(c *gin.Context) {
	expenseID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	var req models.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if *req.AmountPaid < 0 {
		utils.BadRequest(c, "Payment amount must be positive")
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, "id = ?", expenseID).Error; err != nil {
		utils.NotFound(c, "Expense not found")
		return
	}

	// Absolute overwrite, so repeated calls with the same value are idempotent
	if err := database.DB.Model(&expense).Update("amount_paid", *req.AmountPaid).Error; err != nil {
		utils.InternalError(c, "Failed to record payment")
		return
	}
	services.InvalidateBill(c.Request.Context(), expense.BillID)

	utils.SuccessResponse(c, http.StatusOK, "Payment recorded", expense.ToResponse())
}

// DELETE /api/v1/expenses/:id
func DeleteExpense(c *gin.Context) {
	expenseID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, "id = ?", expenseID).Error; err != nil {
		utils.NotFound(c, "Expense not found")
		return
	}

	database.DB.Delete(&expense)
	services.InvalidateBill(c.Request.Context(), expense.BillID)

	c.Status(http.StatusNoContent)
}

// Helper: check bill participation
func isParticipant(billID, userID uuid.UUID) bool {
	var count int64
	database.DB.Model(&models.BillParticipant{}).Where("bill_id = ? AND user_id = ?", billID, userID).Count(&count)
	return count > 0
}

// Helper: expense response with the participant's name
func buildExpenseResponse(expense models.Expense) models.ExpenseResponse {
	response := expense.ToResponse()

	var user models.User
	if err := database.DB.First(&user, "id = ?", expense.UserID).Error; err == nil {
		response.UserName = user.Name
	}
	return response
}
