package handlers

import (
	"net/http"

	"billsplit-backend/database"
	"billsplit-backend/models"
	"billsplit-backend/services"
	"billsplit-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// POST /api/v1/bills
func CreateBill(c *gin.Context) {
	var req models.CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	createdBy, err := utils.ParseUUID(req.CreatedBy)
	if err != nil {
		utils.BadRequest(c, "Invalid creator ID")
		return
	}

	// Verify creator exists
	var creator models.User
	if err := database.DB.First(&creator, "id = ?", createdBy).Error; err != nil {
		utils.NotFound(c, "Creator user not found")
		return
	}

	participantIDs, err := parseUUIDList(req.ParticipantIDs)
	if err != nil {
		utils.BadRequest(c, "Invalid participant ID")
		return
	}

	// Verify all participants exist before anything is written
	if len(participantIDs) > 0 {
		var count int64
		database.DB.Model(&models.User{}).Where("id IN ?", participantIDs).Count(&count)
		if count != int64(len(participantIDs)) {
			utils.NotFound(c, "One or more participant users not found")
			return
		}
	}

	bill := models.Bill{
		Title:       req.Title,
		TotalAmount: req.TotalAmount,
		CreatedBy:   createdBy,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&bill).Error; err != nil {
			return err
		}
		for _, userID := range participantIDs {
			if err := tx.Create(&models.BillParticipant{BillID: bill.ID, UserID: userID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.InternalError(c, "Failed to create bill")
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Bill created", buildBillResponse(bill.ID))
}

// GET /api/v1/bills
func GetBills(c *gin.Context) {
	var pagination utils.PaginationQuery
	c.ShouldBindQuery(&pagination)

	var bills []models.Bill
	database.DB.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit).
		Find(&bills)

	responses := []models.BillResponse{}
	for _, b := range bills {
		responses = append(responses, buildBillResponse(b.ID))
	}

	utils.SuccessResponse(c, http.StatusOK, "", responses)
}

// GET /api/v1/bills/:id
func GetBill(c *gin.Context) {
	billID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid bill ID")
		return
	}

	if cached, ok := services.GetCachedBill(c.Request.Context(), billID); ok {
		utils.SuccessResponse(c, http.StatusOK, "", cached)
		return
	}

	var bill models.Bill
	if err := database.DB.First(&bill, "id = ?", billID).Error; err != nil {
		utils.NotFound(c, "Bill not found")
		return
	}

	response := buildBillResponse(billID)
	services.CacheBill(c.Request.Context(), response)

	utils.SuccessResponse(c, http.StatusOK, "", response)
}

// PUT /api/v1/bills/:id
func UpdateBill(c *gin.Context) {
	billID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid bill ID")
		return
	}

	var bill models.Bill
	if err := database.DB.First(&bill, "id = ?", billID).Error; err != nil {
		utils.NotFound(c, "Bill not found")
		return
	}

	var req models.UpdateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.TotalAmount > 0 {
		updates["total_amount"] = req.TotalAmount
	}

	if err := database.DB.Model(&bill).Updates(updates).Error; err != nil {
		utils.InternalError(c, "Failed to update bill")
		return
	}
	services.InvalidateBill(c.Request.Context(), billID)

	utils.SuccessResponse(c, http.StatusOK, "Bill updated", buildBillResponse(billID))
}

// POST /api/v1/bills/:id/participants
func AddParticipants(c *gin.Context) {
	billID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid bill ID")
		return
	}

	var bill models.Bill
	if err := database.DB.First(&bill, "id = ?", billID).Error; err != nil {
		utils.NotFound(c, "Bill not found")
		return
	}

	var req models.AddParticipantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	participantIDs, err := parseUUIDList(req.ParticipantIDs)
	if err != nil {
		utils.BadRequest(c, "Invalid participant ID")
		return
	}

	// Verify all submitted users exist
	var count int64
	database.DB.Model(&models.User{}).Where("id IN ?", participantIDs).Count(&count)
	if count != int64(len(participantIDs)) {
		utils.NotFound(c, "One or more participant users not found")
		return
	}

	// Only the ids not already participating get added
	existing := participantIDSet(billID)
	var newIDs []uuid.UUID
	for _, id := range participantIDs {
		if _, ok := existing[id]; !ok {
			newIDs = append(newIDs, id)
		}
	}

	if len(newIDs) == 0 {
		utils.BadRequest(c, "All users are already participants in this bill")
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		for _, userID := range newIDs {
			if err := tx.Create(&models.BillParticipant{BillID: billID, UserID: userID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.InternalError(c, "Failed to add participants")
		return
	}

	services.InvalidateBill(c.Request.Context(), billID)

	utils.SuccessResponse(c, http.StatusOK, "Participants added", buildBillResponse(billID))
}

// DELETE /api/v1/bills/:id/participants/:uid
//
// Removing a participant leaves their existing expense rows in place; a
// follow-up split or an explicit expense delete has to clean those up.
func RemoveParticipant(c *gin.Context) {
	billID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid bill ID")
		return
	}

	userID, err := utils.ParseUUID(c.Param("uid"))
	if err != nil {
		utils.BadRequest(c, "Invalid user ID")
		return
	}

	var bill models.Bill
	if err := database.DB.First(&bill, "id = ?", billID).Error; err != nil {
		utils.NotFound(c, "Bill not found")
		return
	}

	var membership models.BillParticipant
	if err := database.DB.Where("bill_id = ? AND user_id = ?", billID, userID).First(&membership).Error; err != nil {
		utils.NotFound(c, "User is not a participant in this bill")
		return
	}

	database.DB.Where("bill_id = ? AND user_id = ?", billID, userID).Delete(&models.BillParticipant{})
	services.InvalidateBill(c.Request.Context(), billID)

	utils.SuccessResponse(c, http.StatusOK, "Participant removed", buildBillResponse(billID))
}

// DELETE /api/v1/bills/:id
func DeleteBill(c *gin.Context) {
	billID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid bill ID")
		return
	}

	var bill models.Bill
	if err := database.DB.First(&bill, "id = ?", billID).Error; err != nil {
		utils.NotFound(c, "Bill not found")
		return
	}

	// Delete the bill with its ledger and participant rows as one unit
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bill_id = ?", billID).Delete(&models.Expense{}).Error; err != nil {
			return err
		}
		if err := tx.Where("bill_id = ?", billID).Delete(&models.BillParticipant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&bill).Error
	})
	if err != nil {
		utils.InternalError(c, "Failed to delete bill")
		return
	}

	services.InvalidateBill(c.Request.Context(), billID)

	c.Status(http.StatusNoContent)
}

// Helper: parse a list of string UUIDs
func parseUUIDList(ids []string) ([]uuid.UUID, error) {
	var parsed []uuid.UUID
	for _, s := range ids {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, id)
	}
	return parsed, nil
}

// Helper: current participant-id set of a bill
func participantIDSet(billID uuid.UUID) map[uuid.UUID]struct{} {
	var memberships []models.BillParticipant
	database.DB.Where("bill_id = ?", billID).Find(&memberships)

	set := make(map[uuid.UUID]struct{}, len(memberships))
	for _, m := range memberships {
		set[m.UserID] = struct{}{}
	}
	return set
}

// Helper: build full bill response with participants and expenses
func buildBillResponse(billID uuid.UUID) models.BillResponse {
	var bill models.Bill
	if err := database.DB.First(&bill, "id = ?", billID).Error; err != nil {
		return models.BillResponse{}
	}

	var creator models.User
	database.DB.First(&creator, "id = ?", bill.CreatedBy)

	var memberships []models.BillParticipant
	database.DB.Where("bill_id = ?", billID).Find(&memberships)

	participants := []models.UserResponse{}
	for _, m := range memberships {
		var user models.User
		if err := database.DB.First(&user, "id = ?", m.UserID).Error; err == nil {
			participants = append(participants, user.ToResponse())
		}
	}

	var dbExpenses []models.Expense
	database.DB.Where("bill_id = ?", billID).Find(&dbExpenses)

	expenses := []models.ExpenseResponse{}
	for _, e := range dbExpenses {
		expenses = append(expenses, e.ToResponse())
	}

	return models.BillResponse{
		ID:           bill.ID,
		Title:        bill.Title,
		TotalAmount:  bill.TotalAmount,
		CreatedBy:    bill.CreatedBy,
		CreatorName:  creator.Name,
		Participants: participants,
		Expenses:     expenses,
		CreatedAt:    bill.CreatedAt,
	}
}
