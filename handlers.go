package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/warehouse_client/apiclient"
	"github.com/mmdatafocus/warehouse_client/models"
	"github.com/mmdatafocus/warehouse_client/offline"
	"github.com/mmdatafocus/warehouse_client/workflow"
)

type handlers struct {
	ops    *workflow.Operations
	store  *offline.Store
	replay *offline.ReplayEngine
	api    *apiclient.Client
}

func (h *handlers) register(router *gin.Engine) {
	router.POST("/auth/login", h.login)
	router.POST("/session/pin", h.setPin)
	router.POST("/session/unlock", h.unlock)

	router.GET("/goods-receipts", h.listGoodsReceipts)
	router.POST("/goods-receipts", h.createGoodsReceipt)
	router.GET("/goods-receipts/:id/items", h.listGoodsReceiptItems)
	router.POST("/goods-receipts/:id/items", h.createGoodsReceiptItem)
	router.POST("/goods-receipts/:id/complete", h.completeGoodsReceipt)
	router.POST("/goods-receipts/:id/cancel", h.cancelGoodsReceipt)
	router.DELETE("/goods-receipts/:id", h.deleteGoodsReceipt)

	router.GET("/goods-issues", h.listGoodsIssues)
	router.POST("/goods-issues", h.createGoodsIssue)
	router.GET("/goods-issues/:id/items", h.listGoodsIssueItems)
	router.POST("/goods-issues/:id/items", h.createGoodsIssueItem)
	router.POST("/goods-issues/:id/complete", h.completeGoodsIssue)
	router.POST("/goods-issues/:id/cancel", h.cancelGoodsIssue)
	router.DELETE("/goods-issues/:id", h.deleteGoodsIssue)

	router.GET("/stock-transfers", h.listStockTransfers)
	router.POST("/stock-transfers", h.createStockTransfer)
	router.GET("/stock-transfers/:id/items", h.listStockTransferItems)
	router.POST("/stock-transfers/:id/items", h.createStockTransferItem)
	router.POST("/stock-transfers/:id/complete", h.completeStockTransfer)
	router.POST("/stock-transfers/:id/cancel", h.cancelStockTransfer)
	router.DELETE("/stock-transfers/:id", h.deleteStockTransfer)

	router.GET("/products", h.listProducts)
	router.GET("/bins", h.listBins)
	router.POST("/sync/master-data", h.syncMasterData)

	router.GET("/queue", h.listQueue)
	router.POST("/sync/replay", h.triggerReplay)
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func respond(c *gin.Context, result any, err error) {
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) login(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.api.Login(c.Request.Context(), input.Username, input.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged in"})
}

func (h *handlers) setPin(c *gin.Context) {
	var input struct {
		UserId int    `json:"user_id" binding:"required"`
		Pin    string `json:"pin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.ops.SetUnlockPin(c.Request.Context(), input.UserId, input.Pin); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "pin set"})
}

func (h *handlers) unlock(c *gin.Context) {
	var input struct {
		UserId int    `json:"user_id" binding:"required"`
		Pin    string `json:"pin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.ops.VerifyUnlockPin(c.Request.Context(), input.UserId, input.Pin); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid pin"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unlocked"})
}

func (h *handlers) createGoodsReceipt(c *gin.Context) {
	var input models.NewGoodsReceipt
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.ops.CreateGoodsReceipt(c.Request.Context(), &input)
	respond(c, result, err)
}

func (h *handlers) createGoodsReceiptItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewGoodsReceiptItem
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.ops.CreateGoodsReceiptItem(c.Request.Context(), id, &input)
	respond(c, result, err)
}

func (h *handlers) completeGoodsReceipt(c *gin.Context) {
	if id, ok := idParam(c); ok {
		result, err := h.ops.CompleteGoodsReceipt(c.Request.Context(), id)
		respond(c, result, err)
	}
}

func (h *handlers) cancelGoodsReceipt(c *gin.Context) {
	if id, ok := idParam(c); ok {
		result, err := h.ops.CancelGoodsReceipt(c.Request.Context(), id)
		respond(c, result, err)
	}
}

func (h *handlers) deleteGoodsReceipt(c *gin.Context) {
	if id, ok := idParam(c); ok {
		result, err := h.ops.DeleteGoodsReceipt(c.Request.Context(), id)
		respond(c, result, err)
	}
}

func (h *handlers) listGoodsReceipts(c *gin.Context) {
	result, err := h.ops.ListGoodsReceipts(c.Request.Context())
	respond(c, result, err)
}

func (h *handlers) listGoodsReceiptItems(c *gin.Context) {
	if id, ok := idParam(c); ok {
		result, err := h.ops.ListGoodsReceiptItems(c.Request.Context(), id)
		respond(c, result, err)
	}
}

func (h *handlers) createGoodsIssue(c *gin.Context) {
	var input models.NewGoodsIssue
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.ops.CreateGoodsIssue(c.Request.Context(), &input)
	respond(c, result, err)
}

func (h *handlers) createGoodsIssueItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewGoodsIssueItem
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.ops.CreateGoodsIssueItem(c.Request.Context(), id, &input)
	respond(c, result, err)
}

func (h *handlers) completeGoodsIssue(c *gin.Context) {
	if id, ok := idParam(c); ok {
		result, err := h.ops.CompleteGoodsIssue(c.Request.Context(), id)
		respond(c, result, err)
	}
}

func (h *handlers) cancelGoodsIssue(c *gin.Context) {
	if id, ok := idParam(c); ok {
		result, err := h.ops.CancelGoodsIssue(c.Request.Context(), id)
		respond(c, result, err)
	}
}

func (h *handlers) deleteGoodsIssue(c *gin.Context) {
	if id, ok := idParam(c); ok {
		result, err := h.ops.DeleteGoodsIssue(c.Request.Context(), id)
		respond(c, result, err)
	}
}

func (h *handlers) listGoodsIssues(c *gin.Context) {
	result, err := h.ops.ListGoodsIssues(c.Request.Context())
	respond(c, result, err)
}

func (h *handlers) listGoodsIssueItems(c *gin.Context) {
	if id, ok := idParam(c); ok {
		result, err := h.ops.ListGoodsIssueItems(c.Request.Context(), id)
		respond(c, result, err)
	}
}

func (h *handlers) createStockTransfer(c *gin.Context) {
	var input models.NewStockTransfer
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.ops.CreateStockTransfer(c.Request.Context(), &input)
	respond(c, result, err)
}

func (h *handlers) createStockTransferItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewStockTransferItem
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.ops.CreateStockTransferItem(c.Request.Context(), id, &input)
	respond(c, result, err)
}

func (h *handlers) completeStockTransfer(c *gin.Context) {
	if id, ok := idParam(c); ok {
		result, err := h.ops.CompleteStockTransfer(c.Request.Context(), id)
		respond(c, result, err)
	}
}

func (h *handlers) cancelStockTransfer(c *gin.Context) {
	if id, ok := idParam(c); ok {
		result, err := h.ops.CancelStockTransfer(c.Request.Context(), id)
		respond(c, result, err)
	}
}

func (h *handlers) deleteStockTransfer(c *gin.Context) {
	if id, ok := idParam(c); ok {
		result, err := h.ops.DeleteStockTransfer(c.Request.Context(), id)
		respond(c, result, err)
	}
}

func (h *handlers) listStockTransfers(c *gin.Context) {
	result, err := h.ops.ListStockTransfers(c.Request.Context())
	respond(c, result, err)
}

func (h *handlers) listStockTransferItems(c *gin.Context) {
	if id, ok := idParam(c); ok {
		result, err := h.ops.ListStockTransferItems(c.Request.Context(), id)
		respond(c, result, err)
	}
}

func (h *handlers) listProducts(c *gin.Context) {
	result, err := h.ops.ListProducts(c.Request.Context())
	respond(c, result, err)
}

func (h *handlers) listBins(c *gin.Context) {
	result, err := h.ops.ListBins(c.Request.Context())
	respond(c, result, err)
}

func (h *handlers) syncMasterData(c *gin.Context) {
	if err := h.ops.SyncMasterData(c.Request.Context()); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "master data synced"})
}

func (h *handlers) listQueue(c *gin.Context) {
	result, err := h.store.ListAll(c.Request.Context())
	respond(c, result, err)
}

func (h *handlers) triggerReplay(c *gin.Context) {
	replayed, failed := h.replay.ReplayOnce(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"replayed": replayed, "failed": failed})
}
